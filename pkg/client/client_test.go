package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer 模拟服务端令牌轮换
type fakeServer struct {
	mu      sync.Mutex
	access  string
	refresh string
	gen     int

	refreshCalls  atomic.Int32
	refreshDelay  atomic.Int64
	refreshFails  atomic.Bool
	alwaysDeny    atomic.Bool
	protectedHits atomic.Int32
	tenants       []string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{access: "access-0", refresh: "refresh-0"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", fs.login)
	mux.HandleFunc("POST /api/v1/auth/refresh", fs.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]string{"message": "ok"}})
	})
	mux.HandleFunc("GET /api/v1/auth/me", fs.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
			"user":   map[string]interface{}{"id": 1, "email": "owner@example.com", "role": "owner"},
			"tenant": map[string]interface{}{"id": 7, "subdomain": "acme", "tier": "basic"},
			"limits": map[string]interface{}{"tier": "basic", "max_gins": 25},
		}})
	}))
	mux.HandleFunc("GET /api/v1/gins/stats", fs.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"total": 3}})
	}))
	mux.HandleFunc("GET /api/v1/gins", fs.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"data":      []map[string]interface{}{{"id": 1, "name": "Monkey 47"}, {"id": 2, "name": "Hendrick's"}},
			"page_info": map[string]interface{}{"page": 2, "page_size": 2, "total": 5, "total_pages": 3, "has_next": true, "has_prev": true},
		})
	}))
	mux.HandleFunc("POST /api/v1/gins", fs.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success":          false,
			"error":            "藏品数量已达上限",
			"upgrade_required": true,
			"required_tier":    "pro",
		})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (fs *fakeServer) recordTenant(r *http.Request) {
	fs.mu.Lock()
	fs.tenants = append(fs.tenants, r.Header.Get(TenantHeader))
	fs.mu.Unlock()
}

func (fs *fakeServer) current() (string, string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.access, fs.refresh
}

func (fs *fakeServer) rotate() map[string]interface{} {
	fs.gen++
	fs.access = "access-" + strconv.Itoa(fs.gen)
	fs.refresh = "refresh-" + strconv.Itoa(fs.gen)
	return map[string]interface{}{
		"access_token":  fs.access,
		"refresh_token": fs.refresh,
		"token_type":    "Bearer",
		"expires_in":    900,
		"user":          map[string]interface{}{"id": 1, "email": "owner@example.com", "role": "owner"},
		"tenant":        map[string]interface{}{"id": 7, "subdomain": "acme", "tier": "basic"},
	}
}

func (fs *fakeServer) login(w http.ResponseWriter, r *http.Request) {
	fs.recordTenant(r)
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "邮箱或密码错误"})
		return
	}
	fs.mu.Lock()
	data := fs.rotate()
	fs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func (fs *fakeServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	fs.recordTenant(r)
	fs.refreshCalls.Add(1)
	if delay := time.Duration(fs.refreshDelay.Load()); delay > 0 {
		time.Sleep(delay)
	}

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	// 刷新令牌只能使用一次
	if fs.refreshFails.Load() || body["refresh_token"] != fs.refresh {
		fs.refresh = ""
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "刷新令牌无效"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": fs.rotate()})
}

func (fs *fakeServer) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fs.recordTenant(r)
		fs.protectedHits.Add(1)
		access, _ := fs.current()
		if fs.alwaysDeny.Load() || r.Header.Get("Authorization") != "Bearer "+access {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "令牌无效"})
			return
		}
		next(w, r)
	}
}

// expireAccess 让当前访问令牌失效，刷新令牌仍然有效
func (fs *fakeServer) expireAccess() {
	fs.mu.Lock()
	fs.access = "revoked"
	fs.mu.Unlock()
}

func newTestClient(t *testing.T, srv *httptest.Server, store TokenStore) (*Client, *atomic.Int32) {
	var calls atomic.Int32
	c, err := New(Options{
		BaseURL:        srv.URL,
		Subdomain:      "acme",
		TokenStore:     store,
		OnUnauthorized: func() { calls.Add(1) },
	})
	require.NoError(t, err)
	return c, &calls
}

func seededStore(t *testing.T, access, refresh string) *MemoryTokenStore {
	store := NewMemoryTokenStore()
	require.NoError(t, store.Save(&Tokens{AccessToken: access, RefreshToken: refresh, Subdomain: "acme"}))
	return store
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_RestoresSubdomainFromStore(t *testing.T) {
	_, srv := newFakeServer(t)
	c, err := New(Options{BaseURL: srv.URL, TokenStore: seededStore(t, "a", "r")})
	require.NoError(t, err)
	assert.Equal(t, "acme", c.Subdomain())
	assert.True(t, c.HasTokens())
}

func TestConcurrentUnauthorized_SingleRefresh(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.refreshDelay.Store(int64(50 * time.Millisecond))
	access, refresh := fs.current()
	c, calls := newTestClient(t, srv, seededStore(t, access, refresh))
	fs.expireAccess()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Gins().Stats(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fs.refreshCalls.Load())
	assert.Equal(t, int32(0), calls.Load())
	// 每个请求最多重试一次
	assert.LessOrEqual(t, fs.protectedHits.Load(), int32(2*workers))

	newAccess, _ := fs.current()
	assert.Equal(t, newAccess, c.Tokens().AccessToken)
}

func TestRefreshedTokenIsPersisted(t *testing.T) {
	fs, srv := newFakeServer(t)
	access, refresh := fs.current()
	store := seededStore(t, access, refresh)
	c, _ := newTestClient(t, srv, store)
	fs.expireAccess()

	_, err := c.Gins().Stats(context.Background())
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	newAccess, newRefresh := fs.current()
	assert.Equal(t, newAccess, saved.AccessToken)
	assert.Equal(t, newRefresh, saved.RefreshToken)
}

func TestRefreshFailure_ClearsTokensAndNotifiesOnce(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.refreshFails.Store(true)
	access, refresh := fs.current()
	store := seededStore(t, access, refresh)
	c, calls := newTestClient(t, srv, store)
	fs.expireAccess()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Gins().Stats(context.Background())
			assert.True(t, IsUnauthorized(err), "err = %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, c.HasTokens())
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRetryStillUnauthorized_RefreshesOnceThenExpires(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.alwaysDeny.Store(true)
	access, refresh := fs.current()
	c, calls := newTestClient(t, srv, seededStore(t, access, refresh))

	_, err := c.Gins().Stats(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), fs.refreshCalls.Load())
	assert.Equal(t, int32(2), fs.protectedHits.Load())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, c.HasTokens())
}

func TestUnauthorizedWithoutTokens_DoesNotRefresh(t *testing.T) {
	fs, srv := newFakeServer(t)
	c, calls := newTestClient(t, srv, nil)

	_, err := c.Gins().Stats(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(0), fs.refreshCalls.Load())
	assert.Equal(t, int32(0), calls.Load())
}

func TestLoginFailure_DoesNotRefresh(t *testing.T) {
	fs, srv := newFakeServer(t)
	c, calls := newTestClient(t, srv, nil)

	_, err := c.Auth().Login(context.Background(), "owner@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(0), fs.refreshCalls.Load())
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, c.HasTokens())
}

func TestUpgradeRequired(t *testing.T) {
	fs, srv := newFakeServer(t)
	access, refresh := fs.current()
	c, calls := newTestClient(t, srv, seededStore(t, access, refresh))

	_, err := c.Gins().Create(context.Background(), GinInput{Name: "Roku"})
	require.Error(t, err)
	assert.True(t, IsUpgradeRequired(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "pro", apiErr.RequiredTier)
	assert.Equal(t, "藏品数量已达上限", apiErr.Message)

	// 403 不影响登录状态
	assert.True(t, c.HasTokens())
	assert.Equal(t, int32(0), calls.Load())
}

func TestTenantHeaderAlwaysAttached(t *testing.T) {
	fs, srv := newFakeServer(t)
	c, _ := newTestClient(t, srv, nil)
	ctx := context.Background()

	_, err := c.Auth().Login(ctx, "owner@example.com", "secret")
	require.NoError(t, err)
	fs.expireAccess()
	_, err = c.Gins().Stats(ctx)
	require.NoError(t, err)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	// login、401、refresh、重试
	require.Len(t, fs.tenants, 4)
	for _, tenant := range fs.tenants {
		assert.Equal(t, "acme", tenant)
	}
}

func TestListDecodesPageInfo(t *testing.T) {
	fs, srv := newFakeServer(t)
	access, refresh := fs.current()
	c, _ := newTestClient(t, srv, seededStore(t, access, refresh))

	page, err := c.Gins().List(context.Background(), GinFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Monkey 47", page.Items[0].Name)
	assert.Equal(t, int64(5), page.PageInfo.Total)
	assert.Equal(t, 3, page.PageInfo.TotalPages)
	assert.True(t, page.PageInfo.HasNext)
}

func TestGinFilterValues(t *testing.T) {
	fav := true
	below := 25
	q := GinFilter{Keyword: "sloe", MinRating: 3.5, Favorite: &fav, FillBelow: &below}.values()

	assert.Equal(t, "sloe", q.Get("keyword"))
	assert.Equal(t, "3.5", q.Get("min_rating"))
	assert.Equal(t, "true", q.Get("favorite"))
	assert.Equal(t, "25", q.Get("fill_below"))
	assert.False(t, q.Has("country"))
	assert.False(t, q.Has("page"))
}

func TestUploadBytes_NoCredentials(t *testing.T) {
	var gotAuth, gotTenant, gotMethod, gotType string
	var gotBody []byte
	bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get(TenantHeader)
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer bucket.Close()

	fs, srv := newFakeServer(t)
	access, refresh := fs.current()
	c, _ := newTestClient(t, srv, seededStore(t, access, refresh))

	ticket := &UploadTicket{UploadURL: bucket.URL + "/photos/1.jpg"}
	err := c.Photos().UploadBytes(context.Background(), ticket, "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Empty(t, gotTenant)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, []byte("jpeg"), gotBody)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	store := NewFileTokenStore(path)

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, tokens)

	want := &Tokens{AccessToken: "a", RefreshToken: "r", Subdomain: "acme", ExpiresAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.Equal(t, want.Subdomain, got.Subdomain)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	// 重复清空不报错
	assert.NoError(t, store.Clear())
}

func TestFileTokenStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewFileTokenStore(path).Load()
	assert.Error(t, err)
}
