package handlers

import (
	"strconv"

	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/pagination"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler 平台管理：跨租户的租户和用户管理
type AdminHandler struct {
	tenants *services.TenantService
	users   *services.UserService
}

func NewAdminHandler(tenants *services.TenantService, users *services.UserService) *AdminHandler {
	return &AdminHandler{tenants: tenants, users: users}
}

type ChangeTierRequest struct {
	Tier string `json:"tier" binding:"required,tier"`
}

// ListTenants 支持 status/tier/keyword 过滤
func (h *AdminHandler) ListTenants(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	filter := services.TenantFilter{
		Status:  c.Query("status"),
		Tier:    c.Query("tier"),
		Keyword: c.Query("keyword"),
	}

	tenants, total, err := h.tenants.GetWithFiltersAndPage(c.Request.Context(), filter, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, tenants, pageInfo)
}

func (h *AdminHandler) GetTenant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tenant, err := h.tenants.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tenant)
}

// UpdateTenant 更新名称、状态或套餐
func (h *AdminHandler) UpdateTenant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TenantUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tenant, err := h.tenants.Update(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tenant)
}

// ChangeTier 变更套餐
func (h *AdminHandler) ChangeTier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tenant, err := h.tenants.ChangeTier(c.Request.Context(), id, req.Tier)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tenant)
}

// DeleteTenant 删除租户及全部数据
func (h *AdminHandler) DeleteTenant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tenants.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	deleted(c)
}

func (h *AdminHandler) TenantStats(c *gin.Context) {
	stats, err := h.tenants.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers 跨租户用户列表，tenant_id 可选
func (h *AdminHandler) ListUsers(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	active, err := queryBool(c, "active")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter := services.UserFilter{
		Keyword: c.Query("keyword"),
		Role:    c.Query("role"),
		Active:  active,
	}
	if raw := c.Query("tenant_id"); raw != "" {
		tid, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "tenant_id 参数格式错误")
			return
		}
		filter.TenantID = uint(tid)
	}

	users, total, err := h.users.List(c.Request.Context(), filter, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

func (h *AdminHandler) ActivateUser(c *gin.Context) {
	h.setUserActive(c, true)
}

func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	h.setUserActive(c, false)
}

func (h *AdminHandler) setUserActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := h.users.SetActiveAny(c.Request.Context(), actor, id, active)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}
