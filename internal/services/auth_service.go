package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/jwt"
	"ginvault/pkg/logger"
	"ginvault/pkg/metrics"
	"ginvault/pkg/tokenstore"

	"gorm.io/gorm"
)

// AuthService 注册、登录和令牌轮换
type AuthService struct {
	db         *gorm.DB
	jwtManager *jwt.JWTManager
	tokens     tokenstore.Store
	refreshTTL time.Duration
	now        func() time.Time
}

// RegisterInput 注册新租户及其所有者
type RegisterInput struct {
	TenantName string `json:"tenant_name" binding:"required,max=100"`
	Subdomain  string `json:"subdomain" binding:"required,subdomain"`
	Email      string `json:"email" binding:"required,email,max=100"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Name       string `json:"name" binding:"required,max=100"`
}

// LoginInput 登录参数，Subdomain 来自租户解析
type LoginInput struct {
	Subdomain string
	Email     string
	Password  string
	UserAgent string
	ClientIP  string
}

// ClientMeta 签发刷新令牌时记录的客户端信息
type ClientMeta struct {
	UserAgent string
	ClientIP  string
}

// TokenPair 访问令牌和刷新令牌
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResult 登录/注册/刷新的返回
type AuthResult struct {
	TokenPair
	User   *models.User   `json:"user"`
	Tenant *models.Tenant `json:"tenant"`
}

// MeResult 当前用户信息
type MeResult struct {
	User   *models.User   `json:"user"`
	Tenant *models.Tenant `json:"tenant"`
	Limits models.Limits  `json:"limits"`
}

func NewAuthService(db *gorm.DB, jwtManager *jwt.JWTManager, tokens tokenstore.Store, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		jwtManager: jwtManager,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Register 在一个事务中创建租户、所有者和免费订阅
func (s *AuthService) Register(ctx context.Context, input RegisterInput, meta ClientMeta) (*AuthResult, error) {
	subdomain := strings.ToLower(strings.TrimSpace(input.Subdomain))
	if !models.IsValidSubdomain(subdomain) {
		return nil, apperrors.BadRequest("子域名格式错误")
	}
	email := normalizeEmail(input.Email)

	tenant := &models.Tenant{
		Name:      strings.TrimSpace(input.TenantName),
		Subdomain: subdomain,
		Tier:      models.TierFree,
		Status:    models.TenantStatusActive,
	}
	user := &models.User{
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		Role:     models.RoleOwner,
		IsActive: true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperrors.Internal("密码加密失败", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tenant{}).Where("subdomain = ?", subdomain).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict("子域名已被使用")
		}

		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Subscription{
			TenantID: tenant.ID,
			Tier:     models.TierFree,
			Status:   models.SubscriptionActive,
		}).Error
	})
	if err != nil {
		metrics.RecordAuth("register", "failure")
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("子域名已被使用")
		}
		return nil, err
	}

	metrics.RecordAuth("register", "success")
	logger.GetLogger().Infof("新租户注册: %s (id=%d)", tenant.Subdomain, tenant.ID)
	user.Tenant = nil
	return s.issue(ctx, user, tenant, meta)
}

// Login 校验租户、用户状态和密码后签发令牌
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := s.login(ctx, input)
	if err != nil {
		metrics.RecordAuth("login", "failure")
		return nil, err
	}
	metrics.RecordAuth("login", "success")
	return result, nil
}

func (s *AuthService) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	db := s.db.WithContext(ctx)

	var tenant models.Tenant
	err := db.Where("subdomain = ?", strings.ToLower(strings.TrimSpace(input.Subdomain))).First(&tenant).Error
	if err != nil {
		return nil, notFoundOr(err, "租户不存在")
	}
	if !tenant.IsActive() {
		return nil, apperrors.Wrap(apperrors.CodeForbidden, "租户已停用", apperrors.ErrTenantInactive)
	}

	var user models.User
	err = db.Where("tenant_id = ? AND email = ?", tenant.ID, normalizeEmail(input.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "邮箱或密码错误", apperrors.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(input.Password) {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "邮箱或密码错误", apperrors.ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "用户已被禁用", apperrors.ErrUserInactive)
	}

	now := s.now()
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		logger.GetLogger().WithError(err).Warnf("更新用户 %d 最后登录时间失败", user.ID)
	}
	user.LastLoginAt = &now

	return s.issue(ctx, &user, &tenant, ClientMeta{UserAgent: input.UserAgent, ClientIP: input.ClientIP})
}

// Refresh 消费刷新令牌并签发新的一对令牌，已消费的令牌再次使用返回401
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("缺少刷新令牌")
	}

	session, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		metrics.RecordRefresh("rejected")
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "刷新令牌无效或已过期", apperrors.ErrTokenInvalid)
		}
		return nil, apperrors.Internal("读取刷新令牌失败", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Preload("Tenant").First(&user, session.UserID).Error
	if err != nil {
		metrics.RecordRefresh("rejected")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("用户不存在")
		}
		return nil, err
	}
	if !user.IsActive {
		metrics.RecordRefresh("rejected")
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "用户已被禁用", apperrors.ErrUserInactive)
	}
	if user.Tenant == nil || !user.Tenant.IsActive() {
		metrics.RecordRefresh("rejected")
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "租户已停用", apperrors.ErrTenantInactive)
	}

	tenant := user.Tenant
	user.Tenant = nil
	result, err := s.issue(ctx, &user, tenant, meta)
	if err != nil {
		metrics.RecordRefresh("error")
		return nil, err
	}
	metrics.RecordRefresh("rotated")
	return result, nil
}

// Logout 吊销刷新令牌，令牌不存在也视为成功
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return apperrors.Internal("吊销刷新令牌失败", err)
	}
	return nil
}

// Me 当前用户、租户和套餐限制
func (s *AuthService) Me(ctx context.Context, userID uint) (*MeResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Tenant").First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "用户不存在")
	}
	tenant := user.Tenant
	user.Tenant = nil

	result := &MeResult{User: &user, Tenant: tenant}
	if tenant != nil {
		result.Limits = models.TierLimits(tenant.Tier)
	}
	return result, nil
}

// issue 签发访问令牌并保存新的刷新令牌
func (s *AuthService) issue(ctx context.Context, user *models.User, tenant *models.Tenant, meta ClientMeta) (*AuthResult, error) {
	access, expiresAt, err := s.jwtManager.GenerateAccessToken(jwt.Subject{
		UserID:          user.ID,
		TenantID:        tenant.ID,
		Subdomain:       tenant.Subdomain,
		Role:            user.Role,
		Email:           user.Email,
		IsPlatformAdmin: user.IsPlatformAdmin,
	})
	if err != nil {
		return nil, apperrors.Internal("生成令牌失败", err)
	}

	refresh, err := tokenstore.NewToken()
	if err != nil {
		return nil, apperrors.Internal("生成刷新令牌失败", err)
	}
	err = s.tokens.Save(ctx, refresh, tokenstore.Session{
		UserID:    user.ID,
		TenantID:  tenant.ID,
		IssuedAt:  s.now(),
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
	}, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Internal("保存刷新令牌失败", err)
	}

	return &AuthResult{
		TokenPair: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
			ExpiresAt:    expiresAt,
		},
		User:   user,
		Tenant: tenant,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
