package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

// ExportService 藏品导出，需要套餐包含 export 功能
type ExportService struct {
	db *gorm.DB
}

// ExportFile 导出文件
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GinExportHeader 导出表头
var GinExportHeader = []string{
	"ID", "Name", "Distillery", "Country", "Region", "Style", "ABV", "Bottle (ml)",
	"Barcode", "Botanicals", "Rating", "Fill Level", "Price", "Currency",
	"Purchase Date", "Purchase Location", "Favorite", "Created At",
}

var ginExportWidths = []float64{8, 30, 25, 15, 15, 15, 8, 12, 16, 40, 8, 10, 10, 10, 14, 25, 10, 20}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// ExportGins 导出租户全部藏品
func (s *ExportService) ExportGins(ctx context.Context, tenantID uint, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatXLSX
	}
	if format != ExportFormatXLSX && format != ExportFormatCSV {
		return nil, apperrors.BadRequest("不支持的导出格式，仅支持 xlsx 或 csv")
	}

	tenant, err := loadTenant(s.db.WithContext(ctx), tenantID)
	if err != nil {
		return nil, err
	}
	if err := requireFeature(tenant.Tier, models.FeatureExport); err != nil {
		return nil, err
	}

	var gins []models.Gin
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name ASC, id ASC").Find(&gins).Error; err != nil {
		return nil, err
	}

	stamp := time.Now().Format("20060102")
	file := &ExportFile{Filename: fmt.Sprintf("%s-gins-%s.%s", tenant.Subdomain, stamp, format)}
	if format == ExportFormatCSV {
		file.ContentType = "text/csv; charset=utf-8"
		file.Data, err = RenderGinsCSV(gins)
	} else {
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Data, err = RenderGinsXLSX(gins)
	}
	if err != nil {
		return nil, apperrors.Internal("生成导出文件失败", err)
	}
	return file, nil
}

// ginExportRow 按表头顺序展开一行
func ginExportRow(g *models.Gin) []interface{} {
	purchase := ""
	if g.PurchaseDate != nil {
		purchase = g.PurchaseDate.Format("2006-01-02")
	}
	favorite := "No"
	if g.IsFavorite {
		favorite = "Yes"
	}
	return []interface{}{
		g.ID, g.Name, g.Distillery, g.Country, g.Region, g.Style, g.ABV, g.BottleSizeML,
		g.Barcode, strings.Join(g.BotanicalList(), ", "), g.Rating, g.FillLevel, g.Price, g.Currency,
		purchase, g.PurchaseLocation, favorite, g.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// RenderGinsCSV 生成 CSV
func RenderGinsCSV(gins []models.Gin) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(GinExportHeader); err != nil {
		return nil, err
	}
	for i := range gins {
		row := ginExportRow(&gins[i])
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatExportValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatExportValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// RenderGinsXLSX 生成带表头样式和冻结首行的 Excel
func RenderGinsXLSX(gins []models.Gin) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Gins"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(GinExportHeader))
	for i, h := range GinExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(GinExportHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range ginExportWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range gins {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := ginExportRow(&gins[i])
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
