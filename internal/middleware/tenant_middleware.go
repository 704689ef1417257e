package middleware

import (
	"context"
	"net"
	"strings"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantHeader 租户子域名请求头
const TenantHeader = "X-Tenant-Subdomain"

// TenantLookup 按子域名查询租户
type TenantLookup interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
}

// SubdomainFromRequest 优先取请求头，否则取 Host 的第一段（至少三段时）
func SubdomainFromRequest(c *gin.Context) string {
	if sub := strings.TrimSpace(c.GetHeader(TenantHeader)); sub != "" {
		return strings.ToLower(sub)
	}

	host := c.Request.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return strings.ToLower(labels[0])
}

// ResolveTenant 解析租户：未知返回404，停用或取消返回403
func ResolveTenant(lookup TenantLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentTenant(c); ok {
			c.Next()
			return
		}

		subdomain := SubdomainFromRequest(c)
		if subdomain == "" {
			response.BadRequest(c, "缺少租户标识")
			c.Abort()
			return
		}

		tenant, err := lookup.GetBySubdomain(c.Request.Context(), subdomain)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				response.NotFound(c, "租户不存在")
			} else {
				response.FromError(c, err)
			}
			c.Abort()
			return
		}
		if !tenant.IsActive() {
			response.Forbidden(c, "租户已停用")
			c.Abort()
			return
		}

		c.Set(ContextTenant, tenant)
		c.Next()
	}
}

// RequireFeature 套餐不包含功能时返回403并提示升级
func RequireFeature(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := CurrentTenant(c)
		if !ok {
			response.BadRequest(c, "缺少租户标识")
			c.Abort()
			return
		}
		if !models.TierLimits(tenant.Tier).HasFeature(feature) {
			response.UpgradeRequired(c, "当前套餐不支持该功能，请升级套餐", models.MinimumTierFor(feature))
			c.Abort()
			return
		}
		c.Next()
	}
}
