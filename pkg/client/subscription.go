package client

import (
	"context"
	"net/http"
)

type SubscriptionAPI struct {
	c *Client
}

func (c *Client) Subscription() *SubscriptionAPI {
	return &SubscriptionAPI{c: c}
}

// Current 订阅、套餐限制和用量
func (a *SubscriptionAPI) Current(ctx context.Context) (*SubscriptionOverview, error) {
	var overview SubscriptionOverview
	if err := a.c.do(ctx, request{method: http.MethodGet, path: "/api/v1/subscription"}, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Cancel 当前周期结束后取消，只有所有者可以操作
func (a *SubscriptionAPI) Cancel(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := a.c.do(ctx, request{method: http.MethodPost, path: "/api/v1/subscription/cancel"}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
