package jwt

import (
	"errors"
	"ginvault/pkg/config"
	apperrors "ginvault/pkg/errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims 访问令牌声明
type Claims struct {
	UserID          uint   `json:"user_id"`
	TenantID        uint   `json:"tenant_id"`
	Subdomain       string `json:"subdomain"`
	Role            string `json:"role"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	jwt.RegisteredClaims
}

// Subject 令牌主体
type Subject struct {
	UserID          uint
	TenantID        uint
	Subdomain       string
	Role            string
	Email           string
	IsPlatformAdmin bool
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey, issuer string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// GenerateAccessToken 生成访问令牌，返回令牌和过期时间
func (m *JWTManager) GenerateAccessToken(sub Subject) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.tokenDuration)

	claims := Claims{
		UserID:          sub.UserID,
		TenantID:        sub.TenantID,
		Subdomain:       sub.Subdomain,
		Role:            sub.Role,
		IsPlatformAdmin: sub.IsPlatformAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(uint64(sub.UserID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken 验证访问令牌；过期返回 ErrTokenExpired，其他失败返回 ErrTokenInvalid
func (m *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// 只接受HMAC签名
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("意外的签名方法")
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// GetTokenDuration 获取令牌有效期
func (m *JWTManager) GetTokenDuration() time.Duration {
	return m.tokenDuration
}

// 单例实现
var (
	defaultManager *JWTManager
	once           sync.Once
)

// GetJWTManager 获取全局JWT管理器实例
func GetJWTManager() *JWTManager {
	once.Do(func() {
		cfg := config.GetConfig()
		defaultManager = NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.TokenDuration)
	})
	return defaultManager
}
