package response

import (
	"net/http"

	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/pagination"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Response 统一返回格式 { success, data } / { success, error }
type Response struct {
	Success         bool        `json:"success"`
	Data            interface{} `json:"data,omitempty"`
	Error           string      `json:"error,omitempty"`
	UpgradeRequired bool        `json:"upgrade_required,omitempty"`
	RequiredTier    string      `json:"required_tier,omitempty"`
}

// PageResponse 分页返回格式
type PageResponse struct {
	Success  bool                 `json:"success"`
	Data     interface{}          `json:"data"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

// ========== 基础返回方法 ==========

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithPage 分页成功返回
func SuccessWithPage(c *gin.Context, data interface{}, pageInfo *pagination.PageInfo) {
	c.JSON(http.StatusOK, PageResponse{
		Success:  true,
		Data:     data,
		PageInfo: pageInfo,
	})
}

// Error 通用错误返回
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}

// FromError 将服务层错误映射为HTTP状态和错误信封
func FromError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			logger.GetLogger().WithError(err).WithField("path", c.FullPath()).Error("请求处理失败")
		}
		c.JSON(appErr.Status, Response{
			Success:         false,
			Error:           appErr.Message,
			UpgradeRequired: appErr.UpgradeRequired,
			RequiredTier:    appErr.RequiredTier,
		})
		return
	}

	switch {
	case apperrors.Is(err, gorm.ErrRecordNotFound), apperrors.Is(err, apperrors.ErrNotFound):
		NotFound(c, "资源不存在")
	case apperrors.Is(err, gorm.ErrDuplicatedKey), apperrors.Is(err, apperrors.ErrDuplicate):
		Error(c, apperrors.CodeConflict, "资源已存在")
	default:
		logger.GetLogger().WithError(err).WithField("path", c.FullPath()).Error("请求处理失败")
		ServerError(c, "服务器内部错误")
	}
}

// UpgradeRequired 套餐不足
func UpgradeRequired(c *gin.Context, message, requiredTier string) {
	c.JSON(http.StatusForbidden, Response{
		Success:         false,
		Error:           message,
		UpgradeRequired: true,
		RequiredTier:    requiredTier,
	})
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string) {
	Error(c, apperrors.CodeInvalidParam, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, apperrors.CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, apperrors.CodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, apperrors.CodeNotFound, message)
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, apperrors.CodeTooManyRequests, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, apperrors.CodeServerError, message)
}
