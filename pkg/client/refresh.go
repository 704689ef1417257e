package client

import (
	"context"
	"net/http"
)

// refreshAfter 返回替换 stale 之后的访问令牌。
// 其他调用方已经换过令牌时直接使用新令牌；否则所有等待者共用同一次刷新。
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	if current := c.accessToken(); current != "" && current != stale {
		return current, nil
	}

	v, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		tokens := c.Tokens()
		if tokens == nil || tokens.RefreshToken == "" {
			c.expire()
			return "", ErrNoRefreshToken
		}
		// 排队期间上一轮刷新已完成
		if tokens.AccessToken != stale {
			return tokens.AccessToken, nil
		}

		// 共享的刷新不受单个调用方取消的影响
		result, err := c.refresh(context.WithoutCancel(ctx), tokens.RefreshToken)
		if err != nil {
			c.expire()
			return "", err
		}
		return result.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh 轮换刷新令牌并保存新令牌
func (c *Client) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/refresh",
		body:   map[string]string{"refresh_token": refreshToken},
		public: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := c.setTokens(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
