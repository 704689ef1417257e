package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ========== 错误码常量定义 ==========

const (
	CodeSuccess = http.StatusOK
)

// HTTP层错误码
const (
	CodeInvalidParam    = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeConflict        = http.StatusConflict
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeServerError     = http.StatusInternalServerError
)

// ========== 业务哨兵错误 ==========

var (
	ErrNotFound           = stderrors.New("资源不存在")
	ErrDuplicate          = stderrors.New("资源已存在")
	ErrInvalidCredentials = stderrors.New("邮箱或密码错误")
	ErrTokenInvalid       = stderrors.New("invalid token")
	ErrTokenExpired       = stderrors.New("token expired")
	ErrUserInactive       = stderrors.New("用户已被禁用")
	ErrTenantInactive     = stderrors.New("租户已停用")
	ErrQuotaExceeded      = stderrors.New("已达到当前套餐上限")
)

// AppError 带HTTP状态的业务错误
type AppError struct {
	Status          int
	Message         string
	UpgradeRequired bool
	RequiredTier    string
	Err             error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// Wrap 包装底层错误，Message 用于对外展示
func Wrap(status int, message string, err error) *AppError {
	return &AppError{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeInvalidParam, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NotFound(message string) *AppError {
	return &AppError{Status: CodeNotFound, Message: message, Err: ErrNotFound}
}

func Conflict(message string) *AppError {
	return &AppError{Status: CodeConflict, Message: message, Err: ErrDuplicate}
}

func Internal(message string, err error) *AppError {
	return Wrap(CodeServerError, message, err)
}

// UpgradeRequired 套餐限制，提示升级到 requiredTier
func UpgradeRequired(message, requiredTier string) *AppError {
	return &AppError{
		Status:          CodeForbidden,
		Message:         message,
		UpgradeRequired: true,
		RequiredTier:    requiredTier,
		Err:             ErrQuotaExceeded,
	}
}

// As 提取 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 透传标准库 errors.Is，避免调用方同时导入两个 errors 包
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
