package handlers

import (
	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service *services.SubscriptionService
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Current 订阅、套餐限制和用量
func (h *SubscriptionHandler) Current(c *gin.Context) {
	overview, err := h.service.Current(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, overview)
}

// Cancel 到期后取消
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.service.Cancel(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, sub)
}
