package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// TastingsAPI 品鉴记录，免费版返回升级提示
type TastingsAPI struct {
	c *Client
}

func (c *Client) Tastings() *TastingsAPI {
	return &TastingsAPI{c: c}
}

// List ginID 为 0 时不过滤
func (a *TastingsAPI) List(ctx context.Context, ginID uint, page, pageSize int) (*Page[TastingSession], error) {
	q := url.Values{}
	if ginID != 0 {
		q.Set("gin_id", strconv.FormatUint(uint64(ginID), 10))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return getPage[TastingSession](ctx, a.c, "/api/v1/tastings", q)
}

func (a *TastingsAPI) Get(ctx context.Context, id uint) (*TastingSession, error) {
	var session TastingSession
	if err := a.c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/api/v1/tastings/%d", id)}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (a *TastingsAPI) Create(ctx context.Context, input TastingInput) (*TastingSession, error) {
	var session TastingSession
	if err := a.c.do(ctx, request{method: http.MethodPost, path: "/api/v1/tastings", body: input}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Update 整体替换，包括条目
func (a *TastingsAPI) Update(ctx context.Context, id uint, input TastingInput) (*TastingSession, error) {
	var session TastingSession
	path := fmt.Sprintf("/api/v1/tastings/%d", id)
	if err := a.c.do(ctx, request{method: http.MethodPut, path: path, body: input}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (a *TastingsAPI) Delete(ctx context.Context, id uint) error {
	return a.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/tastings/%d", id)}, nil)
}
