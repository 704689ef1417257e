package handlers

import (
	"context"

	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// Authenticator 认证服务
type Authenticator interface {
	Register(ctx context.Context, input services.RegisterInput, meta services.ClientMeta) (*services.AuthResult, error)
	Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta services.ClientMeta) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uint) (*services.MeResult, error)
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginRequest 租户优先取请求头或域名，其次取 body 中的 subdomain
type LoginRequest struct {
	Subdomain string `json:"subdomain"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register 注册租户和所有者
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, result)
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	subdomain := middleware.SubdomainFromRequest(c)
	if subdomain == "" {
		subdomain = req.Subdomain
	}
	if subdomain == "" {
		response.BadRequest(c, "缺少租户标识")
		return
	}

	meta := clientMeta(c)
	result, err := h.auth.Login(c.Request.Context(), services.LoginInput{
		Subdomain: subdomain,
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Refresh 轮换刷新令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 吊销刷新令牌，请求体为空也返回成功
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "已退出登录"})
}

// Me 当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	result, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}
