package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// APIError 服务端返回的错误
type APIError struct {
	Status          int
	Message         string
	UpgradeRequired bool
	RequiredTier    string
}

func (e *APIError) Error() string {
	if e.UpgradeRequired {
		return fmt.Sprintf("%d %s (需要升级到 %s)", e.Status, e.Message, e.RequiredTier)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUpgradeRequired 403 且服务端要求升级套餐
func (e *APIError) IsUpgradeRequired() bool {
	return e.Status == http.StatusForbidden && e.UpgradeRequired
}

// IsUnauthorized err 链上是否有 401 APIError
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

func IsUpgradeRequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUpgradeRequired()
}

// newAPIError 从错误响应解析信封，解析失败时使用状态文本
func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode()}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Error != "" {
		apiErr.Message = env.Error
		apiErr.UpgradeRequired = env.UpgradeRequired
		apiErr.RequiredTier = env.RequiredTier
		return apiErr
	}
	apiErr.Message = http.StatusText(resp.StatusCode())
	return apiErr
}
