package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"ginvault/internal/middleware"
	"ginvault/internal/models"
	"ginvault/internal/services"
	"ginvault/pkg/pagination"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// GinInventory 藏品服务
type GinInventory interface {
	List(ctx context.Context, tenantID uint, filter services.GinFilter, page, pageSize int) ([]models.Gin, int64, error)
	Get(ctx context.Context, tenantID, id uint) (*models.Gin, error)
	FindByBarcode(ctx context.Context, tenantID uint, barcode string) ([]models.Gin, error)
	Create(ctx context.Context, tenantID, userID uint, input services.GinInput) (*models.Gin, error)
	Update(ctx context.Context, tenantID, userID, id uint, input services.GinUpdate) (*models.Gin, error)
	Delete(ctx context.Context, tenantID, userID, id uint) error
	Stats(ctx context.Context, tenantID uint) (*services.GinStats, error)
}

// GinExporter 藏品导出
type GinExporter interface {
	ExportGins(ctx context.Context, tenantID uint, format string) (*services.ExportFile, error)
}

type GinHandler struct {
	gins     GinInventory
	exporter GinExporter
}

func NewGinHandler(gins GinInventory, exporter GinExporter) *GinHandler {
	return &GinHandler{gins: gins, exporter: exporter}
}

// List 分页列表，支持 keyword/country/style/min_rating/favorite/fill_below/sort_by/order
func (h *GinHandler) List(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	filter := services.GinFilter{
		Keyword: c.Query("keyword"),
		Country: c.Query("country"),
		Style:   c.Query("style"),
		SortBy:  c.Query("sort_by"),
		Order:   c.Query("order"),
	}
	if raw := c.Query("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(c, "min_rating 参数格式错误")
			return
		}
		filter.MinRating = v
	}
	favorite, err := queryBool(c, "favorite")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter.Favorite = favorite
	fillBelow, err := queryInt(c, "fill_below")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter.FillBelow = fillBelow

	gins, total, err := h.gins.List(c.Request.Context(), middleware.TenantID(c), filter, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, gins, pageInfo)
}

// Get 藏品详情
func (h *GinHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	g, err := h.gins.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, g)
}

// Barcode 按条码查询
func (h *GinHandler) Barcode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "条码不能为空")
		return
	}

	gins, err := h.gins.FindByBarcode(c.Request.Context(), middleware.TenantID(c), code)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gins)
}

// Create 新建藏品
func (h *GinHandler) Create(c *gin.Context) {
	var req services.GinInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	g, err := h.gins.Create(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, g)
}

// Update 部分更新
func (h *GinHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.GinUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	g, err := h.gins.Update(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, g)
}

// Delete 删除藏品及其照片
func (h *GinHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.gins.Delete(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	deleted(c)
}

// Stats 收藏统计
func (h *GinHandler) Stats(c *gin.Context) {
	stats, err := h.gins.Stats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

// Export 下载导出文件，format 为 xlsx（默认）或 csv
func (h *GinHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", services.ExportFormatXLSX)

	file, err := h.exporter.ExportGins(c.Request.Context(), middleware.TenantID(c), format)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
