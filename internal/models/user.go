package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型，邮箱在租户内唯一
type User struct {
	BaseModel
	TenantID        uint       `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_tenant_email"`
	Email           string     `json:"email" gorm:"not null;size:100;uniqueIndex:idx_users_tenant_email"`
	PasswordHash    string     `json:"-" gorm:"not null;size:255"`
	Name            string     `json:"name" gorm:"not null;size:100"`
	Role            string     `json:"role" gorm:"size:20;not null;default:'member'"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:true"`
	IsPlatformAdmin bool       `json:"is_platform_admin" gorm:"default:false"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 租户内角色
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// IsValidRole 检查角色是否有效
func IsValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

// CanManageUsers 所有者和管理员可以管理租户用户
func (u *User) CanManageUsers() bool {
	return u.IsPlatformAdmin || u.Role == RoleOwner || u.Role == RoleAdmin
}

// CanWrite 查看者只读
func (u *User) CanWrite() bool {
	return u.Role != RoleViewer
}

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
