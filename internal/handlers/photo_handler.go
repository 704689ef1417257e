package handlers

import (
	"ginvault/internal/middleware"
	"ginvault/internal/services"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

type PhotoHandler struct {
	service *services.PhotoService
}

func NewPhotoHandler(service *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

type UpdateCaptionRequest struct {
	Caption string `json:"caption" binding:"max=255"`
}

// photoParams 解析 :id 和 :photo_id
func photoParams(c *gin.Context) (uint, uint, bool) {
	ginID, ok := parseID(c, "id")
	if !ok {
		return 0, 0, false
	}
	photoID, ok := parseID(c, "photo_id")
	if !ok {
		return 0, 0, false
	}
	return ginID, photoID, true
}

// List 已上传完成的照片
func (h *PhotoHandler) List(c *gin.Context) {
	ginID, ok := parseID(c, "id")
	if !ok {
		return
	}

	photos, err := h.service.List(c.Request.Context(), middleware.TenantID(c), ginID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photos)
}

// RequestUpload 申请上传地址
func (h *PhotoHandler) RequestUpload(c *gin.Context) {
	ginID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ticket, err := h.service.RequestUpload(c.Request.Context(), middleware.TenantID(c), ginID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, ticket)
}

// Confirm 客户端上传完成后确认
func (h *PhotoHandler) Confirm(c *gin.Context) {
	ginID, photoID, ok := photoParams(c)
	if !ok {
		return
	}

	photo, err := h.service.Confirm(c.Request.Context(), middleware.TenantID(c), ginID, photoID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photo)
}

// SetPrimary 设为主图
func (h *PhotoHandler) SetPrimary(c *gin.Context) {
	ginID, photoID, ok := photoParams(c)
	if !ok {
		return
	}

	photo, err := h.service.SetPrimary(c.Request.Context(), middleware.TenantID(c), ginID, photoID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photo)
}

// Update 修改说明
func (h *PhotoHandler) Update(c *gin.Context) {
	ginID, photoID, ok := photoParams(c)
	if !ok {
		return
	}

	var req UpdateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	photo, err := h.service.UpdateCaption(c.Request.Context(), middleware.TenantID(c), ginID, photoID, req.Caption)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photo)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	ginID, photoID, ok := photoParams(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantID(c), ginID, photoID); err != nil {
		response.FromError(c, err)
		return
	}
	deleted(c)
}
