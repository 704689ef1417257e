// Package client GinVault API 客户端。
//
// 每个请求依次附加访问令牌和租户头；遇到 401 时刷新令牌并重试一次，
// 并发的 401 共用同一次刷新。刷新失败或重试仍为 401 时清空令牌并回调 OnUnauthorized。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// TenantHeader 租户子域名请求头
const TenantHeader = "X-Tenant-Subdomain"

const defaultTimeout = 30 * time.Second

// ErrNoRefreshToken 没有可用的刷新令牌
var ErrNoRefreshToken = errors.New("no refresh token")

// Options 客户端配置
type Options struct {
	BaseURL   string
	Subdomain string
	// TokenStore 为空时使用内存存储
	TokenStore TokenStore
	// OnUnauthorized 凭证失效时调用，每次失效只调用一次
	OnUnauthorized func()
	HTTPClient     *http.Client
	Timeout        time.Duration
	UserAgent      string
}

// Client API 客户端，可并发使用
type Client struct {
	http   *resty.Client
	upload *resty.Client
	store  TokenStore

	mu        sync.RWMutex
	subdomain string
	tokens    *Tokens
	hooks     []func()

	refreshGroup singleflight.Group
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("BaseURL 不能为空")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	store := opts.TokenStore
	if store == nil {
		store = NewMemoryTokenStore()
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	c := &Client{
		http:      rc,
		upload:    resty.New().SetTimeout(5 * time.Minute),
		store:     store,
		subdomain: strings.ToLower(opts.Subdomain),
	}
	if opts.OnUnauthorized != nil {
		c.hooks = append(c.hooks, opts.OnUnauthorized)
	}

	tokens, err := store.Load()
	if err != nil {
		return nil, err
	}
	if tokens != nil {
		c.tokens = tokens
		if c.subdomain == "" {
			c.subdomain = tokens.Subdomain
		}
	}

	rc.OnBeforeRequest(c.attachTenant)
	return c, nil
}

// attachTenant 每个请求都带租户头
func (c *Client) attachTenant(_ *resty.Client, r *resty.Request) error {
	if sub := c.Subdomain(); sub != "" {
		r.SetHeader(TenantHeader, sub)
	}
	return nil
}

func (c *Client) Subdomain() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subdomain
}

func (c *Client) SetSubdomain(subdomain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subdomain = strings.ToLower(subdomain)
}

// OnUnauthorized 追加凭证失效回调
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Tokens 当前令牌副本
func (c *Client) Tokens() *Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return nil
	}
	cp := *c.tokens
	return &cp
}

func (c *Client) HasTokens() bool {
	return c.Tokens() != nil
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken
}

func (c *Client) setTokens(result *AuthResult) error {
	tokens := &Tokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	}

	c.mu.Lock()
	if result.Tenant != nil && result.Tenant.Subdomain != "" {
		c.subdomain = result.Tenant.Subdomain
	}
	tokens.Subdomain = c.subdomain
	c.tokens = tokens
	c.mu.Unlock()

	return c.store.Save(tokens)
}

// ClearTokens 清空令牌，不触发回调
func (c *Client) ClearTokens() error {
	c.mu.Lock()
	c.tokens = nil
	c.mu.Unlock()
	return c.store.Clear()
}

// expire 清空令牌；只有从有令牌变为无令牌时才回调，保证一次失效只通知一次
func (c *Client) expire() {
	c.mu.Lock()
	had := c.tokens != nil
	c.tokens = nil
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()

	_ = c.store.Clear()
	if !had {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

// request 一次 API 调用
type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	// public 认证接口本身，401 不触发刷新
	public bool
}

// envelope 服务端统一返回格式
type envelope struct {
	Success         bool            `json:"success"`
	Data            json.RawMessage `json:"data"`
	Error           string          `json:"error"`
	UpgradeRequired bool            `json:"upgrade_required"`
	RequiredTier    string          `json:"required_tier"`
	PageInfo        *PageInfo       `json:"page_info"`
}

func (c *Client) send(ctx context.Context, r request, token string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if r.query != nil {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(r.body)
	}

	resp, err := req.Execute(r.method, r.path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	return resp, nil
}

// execute 发送请求，401 时刷新并重试一次；非 2xx 返回 *APIError
func (c *Client) execute(ctx context.Context, r request) (*resty.Response, error) {
	token := c.accessToken()
	resp, err := c.send(ctx, r, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized && !r.public {
		if token == "" {
			c.expire()
			return nil, newAPIError(resp)
		}

		fresh, rerr := c.refreshAfter(ctx, token)
		if rerr != nil {
			return nil, newAPIError(resp)
		}

		resp, err = c.send(ctx, r, fresh)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			c.expire()
		}
	}

	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// do 解析信封并把 data 写入 out
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	_, err := c.doPage(ctx, r, out)
	return err
}

func (c *Client) doPage(ctx context.Context, r request, out interface{}) (*PageInfo, error) {
	resp, err := c.execute(ctx, r)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return env.PageInfo, nil
}

func getPage[T any](ctx context.Context, c *Client, path string, query url.Values) (*Page[T], error) {
	var items []T
	info, err := c.doPage(ctx, request{method: http.MethodGet, path: path, query: query}, &items)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Items: items}
	if info != nil {
		page.PageInfo = *info
	}
	return page, nil
}
