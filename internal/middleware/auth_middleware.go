package middleware

import (
	"context"
	"strings"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/jwt"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserLookup 按ID查询用户
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware 认证与角色检查
type AuthMiddleware struct {
	users      UserLookup
	jwtManager *jwt.JWTManager
}

func NewAuthMiddleware(users UserLookup, jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		users:      users,
		jwtManager: jwtManager,
	}
}

// bearerToken 从 Authorization 头提取令牌；websocket 握手无法设置请求头，允许 token 查询参数
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && c.GetHeader("Upgrade") != "" {
			return token, true
		}
		return "", false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

// RequireLogin 校验访问令牌；令牌所属租户必须与请求租户一致（平台管理员除外）
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrTokenExpired) {
				response.Unauthorized(c, "token expired")
			} else {
				response.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				response.Unauthorized(c, "用户不存在")
			} else {
				response.FromError(c, err)
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		if tenant, ok := CurrentTenant(c); ok && !user.IsPlatformAdmin {
			if claims.TenantID != tenant.ID || user.TenantID != tenant.ID {
				response.Forbidden(c, "无权访问该租户")
				c.Abort()
				return
			}
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextTenantID, user.TenantID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole 要求租户内角色之一，平台管理员放行
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if !user.IsPlatformAdmin && !allowed[user.Role] {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireWrite 查看者只读
func (m *AuthMiddleware) RequireWrite() gin.HandlerFunc {
	return m.RequireRole(models.RoleOwner, models.RoleAdmin, models.RoleMember)
}

// RequirePlatformAdmin 要求平台管理员
func (m *AuthMiddleware) RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if !user.IsPlatformAdmin {
			response.Forbidden(c, "需要平台管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}
