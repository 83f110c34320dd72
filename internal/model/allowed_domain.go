package model

// AllowedDomain 目标域名白名单。表为空时不限制，一旦有记录则建链时校验目标域名
type AllowedDomain struct {
	BaseModel
	Domain string `gorm:"size:255;uniqueIndex;not null" json:"domain"`
}
