package client

import (
	"context"
	"net/http"
)

// AuthAPI 认证接口
type AuthAPI struct {
	c *Client
}

func (c *Client) Auth() *AuthAPI {
	return &AuthAPI{c: c}
}

// Login 登录到当前租户并保存令牌
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body: map[string]string{
			"subdomain": a.c.Subdomain(),
			"email":     email,
			"password":  password,
		},
		public: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := a.c.setTokens(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register 注册新租户，成功后与登录相同
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/register",
		body:   req,
		public: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := a.c.setTokens(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout 吊销刷新令牌；无论请求是否成功都清空本地令牌
func (a *AuthAPI) Logout(ctx context.Context) error {
	var refreshToken string
	if tokens := a.c.Tokens(); tokens != nil {
		refreshToken = tokens.RefreshToken
	}

	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/logout",
		body:   map[string]string{"refresh_token": refreshToken},
		public: true,
	}, nil)

	if clearErr := a.c.ClearTokens(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// Me 当前用户、租户和套餐限制
func (a *AuthAPI) Me(ctx context.Context) (*MeResult, error) {
	var result MeResult
	if err := a.c.do(ctx, request{method: http.MethodGet, path: "/api/v1/auth/me"}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
