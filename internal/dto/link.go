package dto

import (
	"fmt"
	"time"

	"urlshort-go/pkg/utils"
)

// CreateLinkRequest 建链请求
type CreateLinkRequest struct {
	OriginalURL string     `json:"originalUrl" binding:"required,url"`
	CustomAlias string     `json:"customAlias" binding:"omitempty,shortcode"` // 自定义别名，与随机 code 共用命名空间
	Description string     `json:"description" binding:"omitempty,max=500"`
	Tags        []string   `json:"tags" binding:"omitempty,max=20"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// Validate 自定义验证逻辑（Gin 绑定之外的业务规则）
func (r *CreateLinkRequest) Validate() error {
	if err := utils.ValidateOriginalURL(r.OriginalURL); err != nil {
		return err
	}

	if r.CustomAlias != "" {
		if err := utils.ValidateCustomAlias(r.CustomAlias); err != nil {
			return err
		}
	}

	if r.ExpiresAt != nil && !r.ExpiresAt.After(time.Now()) {
		return fmt.Errorf("error.expiry_in_past")
	}

	return nil
}

// UpdateLinkRequest 编辑请求。指针字段区分"未提交"和"清空"
type UpdateLinkRequest struct {
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Tags        *[]string  `json:"tags"`
	IsActive    *bool      `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// LinkView 对外返回的链接视图（带完整短链地址）
type LinkView struct {
	ID          uint       `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	ClickCount  int64      `json:"clickCount"`
	IsActive    bool       `json:"isActive"`
	CustomAlias bool       `json:"customAlias"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
