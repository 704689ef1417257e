package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore Redis实现
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建Redis令牌存储
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ginvault"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Save 保存令牌并加入用户索引
func (s *RedisStore) Save(ctx context.Context, token string, session Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %v", err)
	}

	userKey := s.getUserKey(session.UserID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.getTokenKey(token), data, ttl)
		pipe.SAdd(ctx, userKey, token)
		// 用户索引的过期时间跟随最新令牌
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("保存刷新令牌失败: %v", err)
	}
	return nil
}

// Consume 在 MULTI/EXEC 中执行 GET + DEL，并发消费时只有一个调用方拿到会话
func (s *RedisStore) Consume(ctx context.Context, token string) (Session, error) {
	key := s.getTokenKey(token)

	var getCmd *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		getCmd = pipe.Get(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Session{}, fmt.Errorf("读取刷新令牌失败: %v", err)
	}

	data, err := getCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("读取刷新令牌失败: %v", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("解析会话失败: %v", err)
	}
	s.client.SRem(ctx, s.getUserKey(session.UserID), token)
	return session, nil
}

// Revoke 撤销单个令牌，令牌不存在时不报错
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	_, err := s.Consume(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// RevokeUser 撤销用户的全部刷新令牌（禁用用户时调用）
func (s *RedisStore) RevokeUser(ctx context.Context, userID uint) error {
	userKey := s.getUserKey(userID)
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("读取用户令牌失败: %v", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, s.getTokenKey(t))
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("撤销用户令牌失败: %v", err)
	}
	return nil
}

// getTokenKey 获取令牌键名
func (s *RedisStore) getTokenKey(token string) string {
	return fmt.Sprintf("%s:refresh:%s", s.prefix, token)
}

// getUserKey 获取用户令牌索引键名
func (s *RedisStore) getUserKey(userID uint) string {
	return fmt.Sprintf("%s:refresh:user:%d", s.prefix, userID)
}
