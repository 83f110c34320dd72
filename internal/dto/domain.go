package dto

// CreateAllowedDomainRequest 新增目标域名白名单
type CreateAllowedDomainRequest struct {
	Domain string `json:"domain" binding:"required,max=255"`
}
