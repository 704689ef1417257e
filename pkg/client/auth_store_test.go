package client

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthStore_LoginSuccess(t *testing.T) {
	_, srv := newFakeServer(t)
	store := NewMemoryTokenStore()
	c, _ := newTestClient(t, srv, store)
	auth := NewAuthStore(c)

	require.NoError(t, auth.Login(context.Background(), "owner@example.com", "secret"))

	state := auth.State()
	assert.True(t, state.IsAuthenticated)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.User)
	assert.Equal(t, "owner@example.com", state.User.Email)
	require.NotNil(t, state.Tenant)
	assert.Equal(t, "acme", state.Tenant.Subdomain)

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "access-1", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestAuthStore_LoginFailure(t *testing.T) {
	_, srv := newFakeServer(t)
	c, _ := newTestClient(t, srv, nil)
	auth := NewAuthStore(c)

	err := auth.Login(context.Background(), "owner@example.com", "wrong")
	require.Error(t, err)

	state := auth.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Contains(t, state.Error, "邮箱或密码错误")
	assert.False(t, c.HasTokens())
}

func TestAuthStore_LogoutClearsOnNetworkFailure(t *testing.T) {
	_, srv := newFakeServer(t)
	store := NewMemoryTokenStore()
	c, _ := newTestClient(t, srv, store)
	auth := NewAuthStore(c)
	require.NoError(t, auth.Login(context.Background(), "owner@example.com", "secret"))

	srv.Close()
	err := auth.Logout(context.Background())
	assert.Error(t, err)

	assert.False(t, auth.State().IsAuthenticated)
	assert.Nil(t, auth.State().User)
	assert.False(t, c.HasTokens())
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestAuthStore_Restore(t *testing.T) {
	fs, srv := newFakeServer(t)
	access, refresh := fs.current()
	c, _ := newTestClient(t, srv, seededStore(t, access, refresh))
	auth := NewAuthStore(c)

	require.NoError(t, auth.Restore(context.Background()))

	state := auth.State()
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.Limits)
	assert.Equal(t, 25, state.Limits.MaxGins)
}

func TestAuthStore_RestoreWithoutTokens(t *testing.T) {
	_, srv := newFakeServer(t)
	c, _ := newTestClient(t, srv, nil)
	auth := NewAuthStore(c)

	require.NoError(t, auth.Restore(context.Background()))
	assert.False(t, auth.State().IsAuthenticated)
}

func TestAuthStore_ExpiryResetsState(t *testing.T) {
	fs, srv := newFakeServer(t)
	c, calls := newTestClient(t, srv, nil)
	auth := NewAuthStore(c)
	require.NoError(t, auth.Login(context.Background(), "owner@example.com", "secret"))

	fs.alwaysDeny.Store(true)
	_, err := c.Gins().Stats(context.Background())
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
	state := auth.State()
	assert.False(t, state.IsAuthenticated)
	assert.NotEmpty(t, state.Error)
}

func TestAuthStore_Subscribe(t *testing.T) {
	_, srv := newFakeServer(t)
	c, _ := newTestClient(t, srv, nil)
	auth := NewAuthStore(c)

	var mu sync.Mutex
	var seen []bool
	unsubscribe := auth.Subscribe(func(s AuthState) {
		mu.Lock()
		seen = append(seen, s.IsAuthenticated)
		mu.Unlock()
	})

	ctx := context.Background()
	require.NoError(t, auth.Login(ctx, "owner@example.com", "secret"))
	require.NoError(t, auth.Logout(ctx))
	unsubscribe()
	require.NoError(t, auth.Login(ctx, "owner@example.com", "secret"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}
