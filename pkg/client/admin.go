package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AdminAPI 平台管理接口，需要平台管理员
type AdminAPI struct {
	c *Client
}

func (c *Client) Admin() *AdminAPI {
	return &AdminAPI{c: c}
}

// TenantQuery 租户列表条件
type TenantQuery struct {
	Status   string
	Tier     string
	Keyword  string
	Page     int
	PageSize int
}

func pageValues(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}

func (a *AdminAPI) ListTenants(ctx context.Context, query TenantQuery) (*Page[Tenant], error) {
	q := pageValues(query.Page, query.PageSize)
	for key, value := range map[string]string{"status": query.Status, "tier": query.Tier, "keyword": query.Keyword} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return getPage[Tenant](ctx, a.c, "/admin/api/v1/tenants", q)
}

func (a *AdminAPI) GetTenant(ctx context.Context, id uint) (*Tenant, error) {
	var tenant Tenant
	if err := a.c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/admin/api/v1/tenants/%d", id)}, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *AdminAPI) UpdateTenant(ctx context.Context, id uint, update TenantUpdate) (*Tenant, error) {
	var tenant Tenant
	path := fmt.Sprintf("/admin/api/v1/tenants/%d", id)
	if err := a.c.do(ctx, request{method: http.MethodPut, path: path, body: update}, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *AdminAPI) ChangeTier(ctx context.Context, id uint, tier string) (*Tenant, error) {
	var tenant Tenant
	path := fmt.Sprintf("/admin/api/v1/tenants/%d/tier", id)
	if err := a.c.do(ctx, request{method: http.MethodPut, path: path, body: map[string]string{"tier": tier}}, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (a *AdminAPI) DeleteTenant(ctx context.Context, id uint) error {
	return a.c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/admin/api/v1/tenants/%d", id)}, nil)
}

func (a *AdminAPI) TenantStats(ctx context.Context) (*TenantStats, error) {
	var stats TenantStats
	if err := a.c.do(ctx, request{method: http.MethodGet, path: "/admin/api/v1/tenants/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListUsers tenantID 为 0 时跨租户
func (a *AdminAPI) ListUsers(ctx context.Context, tenantID uint, keyword string, page, pageSize int) (*Page[User], error) {
	q := pageValues(page, pageSize)
	if tenantID != 0 {
		q.Set("tenant_id", strconv.FormatUint(uint64(tenantID), 10))
	}
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	return getPage[User](ctx, a.c, "/admin/api/v1/users", q)
}

func (a *AdminAPI) SetUserActive(ctx context.Context, id uint, active bool) (*User, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	var user User
	path := fmt.Sprintf("/admin/api/v1/users/%d/%s", id, action)
	if err := a.c.do(ctx, request{method: http.MethodPost, path: path}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
