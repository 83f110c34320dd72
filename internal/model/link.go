package model

import "time"

// Link 短链记录。short_code 全局唯一：随机生成的 code 和用户自定义别名共用一个命名空间
type Link struct {
	BaseModel
	ShortCode   string     `gorm:"uniqueIndex;size:32;not null" json:"shortCode"`
	OriginalURL string     `gorm:"size:2048;not null" json:"originalUrl"`
	OwnerID     uint       `gorm:"index;not null" json:"ownerId"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"` // nil = 永不过期
	// ClickCount 只增不减，且只能通过重定向的原子操作累加
	ClickCount  int64  `gorm:"default:0" json:"clickCount"`
	CustomAlias bool   `gorm:"default:false" json:"customAlias"`
	Description string `gorm:"size:500" json:"description"`
	Tags        string `gorm:"size:500" json:"tags"` // 逗号分隔
}

// Expired 判断链接是否已过期
func (l *Link) Expired() bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(time.Now())
}
