package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// GinsAPI 藏品接口
type GinsAPI struct {
	c *Client
}

func (c *Client) Gins() *GinsAPI {
	return &GinsAPI{c: c}
}

func (f GinFilter) values() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("keyword", f.Keyword)
	set("country", f.Country)
	set("style", f.Style)
	set("sort_by", f.SortBy)
	set("order", f.Order)
	if f.MinRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if f.Favorite != nil {
		q.Set("favorite", strconv.FormatBool(*f.Favorite))
	}
	if f.FillBelow != nil {
		q.Set("fill_below", strconv.Itoa(*f.FillBelow))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

func (a *GinsAPI) List(ctx context.Context, filter GinFilter) (*Page[Gin], error) {
	return getPage[Gin](ctx, a.c, "/api/v1/gins", filter.values())
}

func (a *GinsAPI) Get(ctx context.Context, id uint) (*Gin, error) {
	var g Gin
	if err := a.c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/api/v1/gins/%d", id)}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Create 超出套餐数量时返回 IsUpgradeRequired 的错误
func (a *GinsAPI) Create(ctx context.Context, input GinInput) (*Gin, error) {
	var g Gin
	if err := a.c.do(ctx, request{method: http.MethodPost, path: "/api/v1/gins", body: input}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *GinsAPI) Update(ctx context.Context, id uint, input GinUpdate) (*Gin, error) {
	var g Gin
	if err := a.c.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/api/v1/gins/%d", id), body: input}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *GinsAPI) Delete(ctx context.Context, id uint) error {
	return a.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/gins/%d", id)}, nil)
}

func (a *GinsAPI) Stats(ctx context.Context) (*GinStats, error) {
	var stats GinStats
	if err := a.c.do(ctx, request{method: http.MethodGet, path: "/api/v1/gins/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Barcode 按条码查找已有藏品
func (a *GinsAPI) Barcode(ctx context.Context, code string) ([]Gin, error) {
	var gins []Gin
	path := "/api/v1/gins/barcode/" + url.PathEscape(code)
	if err := a.c.do(ctx, request{method: http.MethodGet, path: path}, &gins); err != nil {
		return nil, err
	}
	return gins, nil
}

// Export 返回文件内容和服务端给出的 Content-Type
func (a *GinsAPI) Export(ctx context.Context, format string) ([]byte, string, error) {
	resp, err := a.c.execute(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/gins/export",
		query:  url.Values{"format": {format}},
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}
