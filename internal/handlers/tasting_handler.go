package handlers

import (
	"strconv"

	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/pagination"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// TastingHandler 品鉴记录，路由上需要 tasting_sessions 功能
type TastingHandler struct {
	service *services.TastingService
}

func NewTastingHandler(service *services.TastingService) *TastingHandler {
	return &TastingHandler{service: service}
}

// List 分页列表，gin_id 过滤包含某瓶的记录
func (h *TastingHandler) List(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	var ginID uint
	if raw := c.Query("gin_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "gin_id 参数格式错误")
			return
		}
		ginID = uint(id)
	}

	sessions, total, err := h.service.List(c.Request.Context(), middleware.TenantID(c), ginID, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, sessions, pageInfo)
}

func (h *TastingHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *TastingHandler) Create(c *gin.Context) {
	var req services.TastingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.service.Create(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, session)
}

// Update 整体替换，包括全部条目
func (h *TastingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TastingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.service.Update(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *TastingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	deleted(c)
}
