package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 事件类型
const (
	GinCreated     = "gin.created"
	GinUpdated     = "gin.updated"
	GinDeleted     = "gin.deleted"
	PhotoReady     = "photo.ready"
	PhotoDeleted   = "photo.deleted"
	TastingCreated = "tasting.created"
	TastingUpdated = "tasting.updated"
	TastingDeleted = "tasting.deleted"
	TierChanged    = "subscription.tier_changed"
)

// Event 租户内的实体变更事件
type Event struct {
	Type     string    `json:"type"`
	TenantID uint      `json:"tenant_id"`
	EntityID uint      `json:"entity_id"`
	UserID   uint      `json:"user_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher 事件发布
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher 基于 Redis Pub/Sub，每个租户一个频道
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "ginvault"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Publish 发布事件到租户频道
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %v", err)
	}
	if err := p.client.Publish(ctx, Channel(p.prefix, event.TenantID), data).Err(); err != nil {
		return fmt.Errorf("发布事件失败: %v", err)
	}
	return nil
}

// Subscribe 订阅租户频道
func (p *RedisPublisher) Subscribe(ctx context.Context, tenantID uint) *redis.PubSub {
	return p.client.Subscribe(ctx, Channel(p.prefix, tenantID))
}

// Channel 租户频道名
func Channel(prefix string, tenantID uint) string {
	return fmt.Sprintf("%s:events:%d", prefix, tenantID)
}

// Recorder 记录发布的事件，测试用
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

// Types 已记录事件的类型序列
func (r *Recorder) Types() []string {
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
