package middleware

import (
	"ginvault/internal/models"
	"ginvault/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextTenant    = "tenant"
	ContextUser      = "user"
	ContextUserID    = "user_id"
	ContextTenantID  = "tenant_id"
	ContextClaims    = "claims"
	ContextRequestID = "request_id"
)

// CurrentTenant 由 ResolveTenant 解析的租户
func CurrentTenant(c *gin.Context) (*models.Tenant, bool) {
	v, ok := c.Get(ContextTenant)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*models.Tenant)
	return tenant, ok
}

// CurrentUser 由 RequireLogin 加载的用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentClaims 访问令牌声明
func CurrentClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// TenantID 当前请求所属租户，未解析租户时取令牌中的租户
func TenantID(c *gin.Context) uint {
	if tenant, ok := CurrentTenant(c); ok {
		return tenant.ID
	}
	return c.GetUint(ContextTenantID)
}

// UserID 当前登录用户ID
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}
