package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ginvault/internal/models"
	"ginvault/pkg/events"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/metrics"
	"ginvault/pkg/storage"

	"gorm.io/gorm"
)

// GinService 藏品管理
type GinService struct {
	db        *gorm.DB
	store     storage.ObjectStore
	publisher events.Publisher
}

// GinFilter 列表过滤条件
type GinFilter struct {
	Keyword   string
	Country   string
	Style     string
	MinRating float64
	Favorite  *bool
	FillBelow *int
	SortBy    string
	Order     string
}

// GinInput 创建藏品
type GinInput struct {
	Name             string     `json:"name" binding:"required,max=200"`
	Distillery       string     `json:"distillery" binding:"max=200"`
	Country          string     `json:"country" binding:"max=100"`
	Region           string     `json:"region" binding:"max=100"`
	Style            string     `json:"style" binding:"max=50"`
	ABV              float64    `json:"abv"`
	BottleSizeML     int        `json:"bottle_size_ml" binding:"gte=0"`
	Barcode          string     `json:"barcode" binding:"max=64"`
	Botanicals       []string   `json:"botanicals"`
	Description      string     `json:"description"`
	Rating           float64    `json:"rating"`
	FillLevel        *int       `json:"fill_level"`
	Price            float64    `json:"price"`
	Currency         string     `json:"currency" binding:"omitempty,len=3"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	PurchaseLocation string     `json:"purchase_location" binding:"max=200"`
	IsFavorite       bool       `json:"is_favorite"`
}

// GinUpdate 部分更新，nil 字段保持不变
type GinUpdate struct {
	Name             *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Distillery       *string    `json:"distillery"`
	Country          *string    `json:"country"`
	Region           *string    `json:"region"`
	Style            *string    `json:"style"`
	ABV              *float64   `json:"abv"`
	BottleSizeML     *int       `json:"bottle_size_ml"`
	Barcode          *string    `json:"barcode"`
	Botanicals       []string   `json:"botanicals"`
	Description      *string    `json:"description"`
	Rating           *float64   `json:"rating"`
	FillLevel        *int       `json:"fill_level"`
	Price            *float64   `json:"price"`
	Currency         *string    `json:"currency" binding:"omitempty,len=3"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	PurchaseLocation *string    `json:"purchase_location"`
	IsFavorite       *bool      `json:"is_favorite"`
}

// GinStats 收藏统计
type GinStats struct {
	Total           int64              `json:"total"`
	Favorites       int64              `json:"favorites"`
	AverageRating   float64            `json:"average_rating"`
	ValueByCurrency map[string]float64 `json:"value_by_currency"`
	FillLevels      map[string]int64   `json:"fill_levels"`
	TopCountries    []CountryCount     `json:"top_countries"`
}

// CountryCount 按产地统计
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// 允许排序的字段
var ginSortColumns = map[string]string{
	"name":       "name",
	"rating":     "rating",
	"price":      "price",
	"created_at": "created_at",
	"fill_level": "fill_level",
}

func NewGinService(db *gorm.DB, store storage.ObjectStore, publisher events.Publisher) *GinService {
	return &GinService{db: db, store: store, publisher: publisher}
}

// validateGinValues 评分0-5，液位0-100，酒精度0-100，价格不能为负
func validateGinValues(rating *float64, fillLevel *int, abv *float64, price *float64) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return apperrors.BadRequest("评分必须在0到5之间")
	}
	if fillLevel != nil && (*fillLevel < 0 || *fillLevel > 100) {
		return apperrors.BadRequest("液位必须在0到100之间")
	}
	if abv != nil && (*abv < 0 || *abv > 100) {
		return apperrors.BadRequest("酒精度必须在0到100之间")
	}
	if price != nil && *price < 0 {
		return apperrors.BadRequest("价格不能为负数")
	}
	return nil
}

// List 分页查询藏品
func (s *GinService) List(ctx context.Context, tenantID uint, filter GinFilter, page, pageSize int) ([]models.Gin, int64, error) {
	var gins []models.Gin
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Gin{}).Where("tenant_id = ?", tenantID)

	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("name ILIKE ? OR distillery ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.Style != "" {
		query = query.Where("style = ?", filter.Style)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}
	if filter.Favorite != nil {
		query = query.Where("is_favorite = ?", *filter.Favorite)
	}
	if filter.FillBelow != nil {
		query = query.Where("fill_level < ?", *filter.FillBelow)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order(ginOrderClause(filter.SortBy, filter.Order)).
		Offset(offset).Limit(pageSize).
		Find(&gins).Error
	if err != nil {
		return nil, 0, err
	}
	return gins, total, nil
}

// ginOrderClause 非白名单字段按创建时间倒序
func ginOrderClause(sortBy, order string) string {
	column, ok := ginSortColumns[sortBy]
	if !ok {
		return "created_at DESC, id DESC"
	}
	direction := "ASC"
	if strings.EqualFold(order, "desc") {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}

// Get 获取单个藏品
func (s *GinService) Get(ctx context.Context, tenantID, id uint) (*models.Gin, error) {
	var gin models.Gin
	err := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&gin).Error
	if err != nil {
		return nil, notFoundOr(err, "藏品不存在")
	}
	return &gin, nil
}

// FindByBarcode 按条形码查找租户内的藏品
func (s *GinService) FindByBarcode(ctx context.Context, tenantID uint, barcode string) ([]models.Gin, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperrors.BadRequest("条形码不能为空")
	}
	var gins []models.Gin
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND barcode = ?", tenantID, barcode).
		Order("created_at DESC").
		Find(&gins).Error
	return gins, err
}

// Create 创建藏品，受套餐 MaxGins 限制
func (s *GinService) Create(ctx context.Context, tenantID, userID uint, input GinInput) (*models.Gin, error) {
	if err := validateGinValues(&input.Rating, input.FillLevel, &input.ABV, &input.Price); err != nil {
		return nil, err
	}

	gin := &models.Gin{
		Name:             strings.TrimSpace(input.Name),
		Distillery:       input.Distillery,
		Country:          input.Country,
		Region:           input.Region,
		Style:            input.Style,
		ABV:              input.ABV,
		BottleSizeML:     input.BottleSizeML,
		Barcode:          strings.TrimSpace(input.Barcode),
		Description:      input.Description,
		Rating:           input.Rating,
		FillLevel:        100,
		Price:            input.Price,
		Currency:         strings.ToUpper(input.Currency),
		PurchaseDate:     input.PurchaseDate,
		PurchaseLocation: input.PurchaseLocation,
		IsFavorite:       input.IsFavorite,
		CreatedBy:        userID,
	}
	gin.TenantID = tenantID
	if gin.Name == "" {
		return nil, apperrors.BadRequest("名称不能为空")
	}
	if input.FillLevel != nil {
		gin.FillLevel = *input.FillLevel
	}
	if gin.Currency == "" {
		gin.Currency = "EUR"
	}
	if err := gin.SetBotanicals(input.Botanicals); err != nil {
		return nil, apperrors.BadRequest("植物原料格式错误")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := lockTenant(tx, tenantID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Gin{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
			return err
		}
		limits := models.TierLimits(tenant.Tier)
		if err := checkLimit(tenant.Tier, "max_gins", limits.MaxGins, int(count), "藏品"); err != nil {
			return err
		}

		return tx.Create(gin).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordGinOperation("create")
	publish(ctx, s.publisher, events.Event{Type: events.GinCreated, TenantID: tenantID, EntityID: gin.ID, UserID: userID})
	return gin, nil
}

// Update 部分更新藏品
func (s *GinService) Update(ctx context.Context, tenantID, userID, id uint, input GinUpdate) (*models.Gin, error) {
	if err := validateGinValues(input.Rating, input.FillLevel, input.ABV, input.Price); err != nil {
		return nil, err
	}

	gin, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.BadRequest("名称不能为空")
		}
		updates["name"] = name
	}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("distillery", input.Distillery)
	setString("country", input.Country)
	setString("region", input.Region)
	setString("style", input.Style)
	setString("description", input.Description)
	setString("purchase_location", input.PurchaseLocation)
	if input.Barcode != nil {
		updates["barcode"] = strings.TrimSpace(*input.Barcode)
	}
	if input.Currency != nil {
		updates["currency"] = strings.ToUpper(*input.Currency)
	}
	if input.ABV != nil {
		updates["abv"] = *input.ABV
	}
	if input.BottleSizeML != nil {
		updates["bottle_size_ml"] = *input.BottleSizeML
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.FillLevel != nil {
		updates["fill_level"] = *input.FillLevel
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.PurchaseDate != nil {
		updates["purchase_date"] = *input.PurchaseDate
	}
	if input.IsFavorite != nil {
		updates["is_favorite"] = *input.IsFavorite
	}
	if input.Botanicals != nil {
		if err := gin.SetBotanicals(input.Botanicals); err != nil {
			return nil, apperrors.BadRequest("植物原料格式错误")
		}
		updates["botanicals"] = gin.Botanicals
	}

	if len(updates) == 0 {
		return gin, nil
	}

	if err := s.db.WithContext(ctx).Model(gin).Updates(updates).Error; err != nil {
		return nil, err
	}

	metrics.RecordGinOperation("update")
	publish(ctx, s.publisher, events.Event{Type: events.GinUpdated, TenantID: tenantID, EntityID: id, UserID: userID})
	return s.Get(ctx, tenantID, id)
}

// Delete 删除藏品及其照片
func (s *GinService) Delete(ctx context.Context, tenantID, userID, id uint) error {
	gin, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	var keys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GinPhoto{}).
			Where("tenant_id = ? AND gin_id = ?", tenantID, id).
			Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ? AND gin_id = ?", tenantID, id).Delete(&models.GinPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("gin_id = ?", id).Delete(&models.TastingEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(gin).Error
	})
	if err != nil {
		return err
	}

	// 数据库已提交，存储删除失败只记录，由对象存储生命周期策略兜底
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.GetLogger().WithError(err).WithField("key", key).Warn("删除照片对象失败")
		}
	}

	metrics.RecordGinOperation("delete")
	publish(ctx, s.publisher, events.Event{Type: events.GinDeleted, TenantID: tenantID, EntityID: id, UserID: userID})
	return nil
}

// Stats 收藏统计
func (s *GinService) Stats(ctx context.Context, tenantID uint) (*GinStats, error) {
	db := s.db.WithContext(ctx)
	stats := &GinStats{
		ValueByCurrency: map[string]float64{},
		FillLevels: map[string]int64{
			models.FillEmpty: 0,
			models.FillLow:   0,
			models.FillHalf:  0,
			models.FillFull:  0,
		},
		TopCountries: []CountryCount{},
	}

	var summary struct {
		Total         int64
		Favorites     int64
		AverageRating float64
	}
	err := db.Model(&models.Gin{}).
		Select("COUNT(*) AS total, " +
			"COUNT(*) FILTER (WHERE is_favorite) AS favorites, " +
			"COALESCE(AVG(NULLIF(rating, 0)), 0) AS average_rating").
		Where("tenant_id = ?", tenantID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	stats.Total = summary.Total
	stats.Favorites = summary.Favorites
	stats.AverageRating = summary.AverageRating

	var values []struct {
		Currency string
		Total    float64
	}
	err = db.Model(&models.Gin{}).
		Select("currency, COALESCE(SUM(price), 0) AS total").
		Where("tenant_id = ?", tenantID).
		Group("currency").
		Scan(&values).Error
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		stats.ValueByCurrency[v.Currency] = v.Total
	}

	var buckets []struct {
		Bucket string
		Count  int64
	}
	err = db.Model(&models.Gin{}).
		Select("CASE WHEN fill_level <= 0 THEN 'empty' " +
			"WHEN fill_level <= 25 THEN 'low' " +
			"WHEN fill_level <= 75 THEN 'half' " +
			"ELSE 'full' END AS bucket, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("bucket").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	for _, b := range buckets {
		stats.FillLevels[b.Bucket] = b.Count
	}

	err = db.Model(&models.Gin{}).
		Select("country, COUNT(*) AS count").
		Where("tenant_id = ? AND country <> ''", tenantID).
		Group("country").
		Order("count DESC, country ASC").
		Limit(5).
		Scan(&stats.TopCountries).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
