package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	isTerminal = func(int) bool { return false }
}

func reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" || r.Header.Get("X-Tenant-Subdomain") != "acme" {
			reply(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "邮箱或密码错误"})
			return
		}
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
			"access_token":  "access",
			"refresh_token": "refresh",
			"user":          map[string]interface{}{"id": 1, "email": body["email"], "role": "owner"},
			"tenant":        map[string]interface{}{"id": 7, "name": "Acme", "subdomain": "acme"},
		}})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]interface{}{"success": true})
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access" {
				reply(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "未登录"})
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /api/v1/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
			"user":   map[string]interface{}{"id": 1, "email": "owner@example.com", "role": "owner"},
			"tenant": map[string]interface{}{"id": 7, "name": "Acme", "subdomain": "acme"},
			"limits": map[string]interface{}{"tier": "free", "max_gins": 10},
		}})
	}))
	mux.HandleFunc("GET /api/v1/gins", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("favorite"))
		reply(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"data":      []map[string]interface{}{{"id": 3, "name": "Monkey 47", "country": "Germany", "abv": 47, "fill_level": 80}},
			"page_info": map[string]interface{}{"page": 1, "page_size": 20, "total": 1, "total_pages": 1},
		})
	}))
	mux.HandleFunc("POST /api/v1/gins", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusForbidden, map[string]interface{}{
			"success": false, "error": "藏品数量已达上限", "upgrade_required": true, "required_tier": "basic",
		})
	}))
	mux.HandleFunc("GET /api/v1/gins/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "3" {
			reply(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "藏品不存在"})
			return
		}
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
			"id": 3, "name": "Monkey 47", "distillery": "Black Forest", "botanicals": []string{"juniper", "lingonberry"},
		}})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
	tokens string
}

func newHarness(t *testing.T, server, input string) *harness {
	h := &harness{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		tokens: filepath.Join(t.TempDir(), "tokens.json"),
	}
	app, err := New(Config{Server: server, Tenant: "acme", TokenFile: h.tokens}, strings.NewReader(input), h.out, h.errOut)
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) run(args ...string) error {
	return h.app.Run(context.Background(), args)
}

func login(t *testing.T, server string) string {
	h := newHarness(t, server, "owner@example.com\nsecret\n")
	require.NoError(t, h.run("login"))
	return h.tokens
}

func TestLogin_SavesTokens(t *testing.T) {
	srv := newAPI(t)
	h := newHarness(t, srv.URL, "owner@example.com\nsecret\n")

	require.NoError(t, h.run("login"))
	assert.Contains(t, h.out.String(), "已登录 owner@example.com (acme)")

	data, err := os.ReadFile(h.tokens)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"access_token": "access"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newAPI(t)
	h := newHarness(t, srv.URL, "wrong\n")

	err := h.run("login", "-email", "owner@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "邮箱或密码错误")
	_, statErr := os.Stat(h.tokens)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWhoami(t *testing.T) {
	srv := newAPI(t)
	tokens := login(t, srv.URL)

	out := &bytes.Buffer{}
	app, err := New(Config{Server: srv.URL, TokenFile: tokens}, strings.NewReader(""), out, io.Discard)
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background(), []string{"whoami"}))

	assert.Contains(t, out.String(), "owner@example.com (owner)")
	assert.Contains(t, out.String(), "Acme (acme)")
	assert.Contains(t, out.String(), "藏品上限: 10")
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	srv := newAPI(t)
	h := newHarness(t, srv.URL, "")
	assert.EqualError(t, h.run("whoami"), "未登录")
}

func TestGinsCommands(t *testing.T) {
	srv := newAPI(t)
	tokens := login(t, srv.URL)

	newApp := func(out *bytes.Buffer) *App {
		app, err := New(Config{Server: srv.URL, Tenant: "acme", TokenFile: tokens}, strings.NewReader(""), out, io.Discard)
		require.NoError(t, err)
		return app
	}
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, newApp(out).Run(ctx, []string{"gins", "list", "-favorite"}))
		assert.Contains(t, out.String(), "Monkey 47")
		assert.Contains(t, out.String(), "80%")
		assert.Contains(t, out.String(), "共 1 条")
	})

	t.Run("show", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, newApp(out).Run(ctx, []string{"gins", "show", "3"}))
		assert.Contains(t, out.String(), "Black Forest")
		assert.Contains(t, out.String(), "juniper, lingonberry")
	})

	t.Run("show missing", func(t *testing.T) {
		err := newApp(&bytes.Buffer{}).Run(ctx, []string{"gins", "show", "9"})
		assert.EqualError(t, err, "藏品不存在")
	})

	t.Run("show bad id", func(t *testing.T) {
		err := newApp(&bytes.Buffer{}).Run(ctx, []string{"gins", "show", "abc"})
		assert.EqualError(t, err, "ID格式错误")
	})

	t.Run("add over quota", func(t *testing.T) {
		err := newApp(&bytes.Buffer{}).Run(ctx, []string{"gins", "add", "-name", "Roku", "-botanicals", "yuzu, sakura"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "请升级到 basic 套餐")
	})

	t.Run("add without name", func(t *testing.T) {
		err := newApp(&bytes.Buffer{}).Run(ctx, []string{"gins", "add"})
		assert.ErrorIs(t, err, ErrUsage)
	})
}

func TestLogout_ServerDown(t *testing.T) {
	srv := newAPI(t)
	tokens := login(t, srv.URL)
	srv.Close()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	app, err := New(Config{Server: srv.URL, Tenant: "acme", TokenFile: tokens}, strings.NewReader(""), out, errOut)
	require.NoError(t, err)

	require.NoError(t, app.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.String(), "已注销")
	assert.Contains(t, errOut.String(), "服务端注销失败")
	_, statErr := os.Stat(tokens)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1", "")
	assert.ErrorIs(t, h.run(), ErrUsage)
	assert.ErrorIs(t, h.run("bogus"), ErrUsage)
	assert.ErrorIs(t, h.run("gins"), ErrUsage)
	assert.ErrorIs(t, h.run("gins", "drink"), ErrUsage)
}

func TestParseGlobal(t *testing.T) {
	t.Setenv(envServer, "https://vault.example.com")
	t.Setenv(envTenant, "acme")
	t.Setenv(envTokens, "/tmp/tokens.json")

	cfg, args, err := ParseGlobal([]string{"-tenant", "other", "gins", "list"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https://vault.example.com", cfg.Server)
	assert.Equal(t, "other", cfg.Tenant)
	assert.Equal(t, "/tmp/tokens.json", cfg.TokenFile)
	assert.Equal(t, []string{"gins", "list"}, args)

	_, _, err = ParseGlobal([]string{"-nope"}, io.Discard)
	assert.ErrorIs(t, err, ErrUsage)
}
