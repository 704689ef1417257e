// Package tokenstore 保存可轮换的刷新令牌。
//
// 刷新令牌是不透明的随机串，只能被 Consume 一次；刷新时旧令牌被消费、新令牌被保存，
// 重放已消费的令牌会得到 ErrNotFound。
package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound 令牌不存在、已过期或已被消费
var ErrNotFound = errors.New("refresh token not found")

// Session 刷新令牌绑定的会话信息
type Session struct {
	UserID    uint      `json:"user_id"`
	TenantID  uint      `json:"tenant_id"`
	IssuedAt  time.Time `json:"issued_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
}

// Store 刷新令牌存储
type Store interface {
	Save(ctx context.Context, token string, session Session, ttl time.Duration) error
	// Consume 原子地读取并删除令牌
	Consume(ctx context.Context, token string) (Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID uint) error
}

// NewToken 生成32字节随机令牌
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
