package client

import (
	"context"
	"sync"
)

// AuthState 认证状态快照
type AuthState struct {
	IsAuthenticated bool
	User            *User
	Tenant          *Tenant
	Limits          *Limits
	Error           string
}

// AuthStore 维护当前登录状态，凭证失效时自动回到未登录
type AuthStore struct {
	client *Client

	mu        sync.RWMutex
	state     AuthState
	listeners map[int]func(AuthState)
	nextID    int
}

func NewAuthStore(c *Client) *AuthStore {
	s := &AuthStore{
		client:    c,
		listeners: make(map[int]func(AuthState)),
	}
	c.OnUnauthorized(func() {
		s.set(AuthState{Error: "登录已过期，请重新登录"})
	})
	return s
}

// State 当前状态
func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe 注册状态变更监听，返回取消函数
func (s *AuthStore) Subscribe(fn func(AuthState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthStore) set(state AuthState) {
	s.mu.Lock()
	s.state = state
	listeners := make([]func(AuthState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (s *AuthStore) fail(err error) error {
	s.set(AuthState{Error: err.Error()})
	return err
}

func (s *AuthStore) Login(ctx context.Context, email, password string) error {
	result, err := s.client.Auth().Login(ctx, email, password)
	if err != nil {
		return s.fail(err)
	}
	s.set(AuthState{IsAuthenticated: true, User: result.User, Tenant: result.Tenant})
	return nil
}

func (s *AuthStore) Register(ctx context.Context, req RegisterRequest) error {
	result, err := s.client.Auth().Register(ctx, req)
	if err != nil {
		return s.fail(err)
	}
	s.set(AuthState{IsAuthenticated: true, User: result.User, Tenant: result.Tenant})
	return nil
}

// Logout 网络失败时也清空本地状态，返回原始错误
func (s *AuthStore) Logout(ctx context.Context) error {
	err := s.client.Auth().Logout(ctx)
	s.set(AuthState{})
	return err
}

// Restore 用已保存的令牌恢复会话
func (s *AuthStore) Restore(ctx context.Context) error {
	if !s.client.HasTokens() {
		s.set(AuthState{})
		return nil
	}
	me, err := s.client.Auth().Me(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			// 失效回调已经重置状态
			return err
		}
		return s.fail(err)
	}
	limits := me.Limits
	s.set(AuthState{IsAuthenticated: true, User: me.User, Tenant: me.Tenant, Limits: &limits})
	return nil
}
