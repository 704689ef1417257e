package models

import "regexp"

// Tenant 租户模型，通过子域名识别
type Tenant struct {
	BaseModel
	Name      string `json:"name" gorm:"not null;size:100"`
	Subdomain string `json:"subdomain" gorm:"uniqueIndex;not null;size:63"`
	Tier      string `json:"tier" gorm:"size:20;not null;default:'free'"`
	Status    string `json:"status" gorm:"size:20;not null;default:'active'"`
	UserCount int    `json:"user_count" gorm:"-"` // 用户数量，不存储在数据库中
	GinCount  int    `json:"gin_count" gorm:"-"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户状态常量
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusCancelled = "cancelled"
)

// 子域名保留字，不允许注册
var reservedSubdomains = map[string]bool{
	"www": true, "api": true, "app": true, "mail": true, "static": true, "assets": true,
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])$`)

// IsValidSubdomain 3-63位小写字母、数字或连字符，首尾不能是连字符
func IsValidSubdomain(subdomain string) bool {
	return subdomainPattern.MatchString(subdomain) && !reservedSubdomains[subdomain]
}

// IsValidTenantStatus 检查租户状态是否有效
func IsValidTenantStatus(status string) bool {
	switch status {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive 检查租户是否可用
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
