package handlers

import (
	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/pagination"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 租户内成员管理，路由上限定 owner/admin
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=owner admin member viewer"`
}

// List 成员列表，支持 keyword/role/active
func (h *UserHandler) List(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	active, err := queryBool(c, "active")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter := services.UserFilter{
		TenantID: middleware.TenantID(c),
		Keyword:  c.Query("keyword"),
		Role:     c.Query("role"),
		Active:   active,
	}

	users, total, err := h.service.List(c.Request.Context(), filter, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// Create 添加成员
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := h.service.Create(c.Request.Context(), middleware.TenantID(c), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, user)
}

// UpdateRole 修改角色
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := h.service.UpdateRole(c.Request.Context(), middleware.TenantID(c), actor, id, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := h.service.SetActive(c.Request.Context(), middleware.TenantID(c), actor, id, active)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// Delete 删除成员
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	if err := h.service.Delete(c.Request.Context(), middleware.TenantID(c), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	deleted(c)
}
