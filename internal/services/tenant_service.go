package services

import (
	"context"
	"strings"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/storage"

	"gorm.io/gorm"
)

// TenantService 租户查询与平台管理
type TenantService struct {
	db            *gorm.DB
	store         storage.ObjectStore
	subscriptions *SubscriptionService
}

// TenantFilter 租户列表过滤
type TenantFilter struct {
	Status  string
	Tier    string
	Keyword string
}

// TenantUpdate 平台管理员更新租户
type TenantUpdate struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Status *string `json:"status" binding:"omitempty,oneof=active suspended cancelled"`
	Tier   *string `json:"tier" binding:"omitempty,tier"`
}

// TenantStats 租户统计信息
type TenantStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByTier   map[string]int64 `json:"by_tier"`
}

// groupCount 分组统计
type groupCount struct {
	Key   string
	Count int64
}

func NewTenantService(db *gorm.DB, store storage.ObjectStore, subscriptions *SubscriptionService) *TenantService {
	return &TenantService{db: db, store: store, subscriptions: subscriptions}
}

// GetBySubdomain 根据子域名获取租户
func (s *TenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Where("subdomain = ?", strings.ToLower(subdomain)).First(&tenant).Error
	if err != nil {
		return nil, notFoundOr(err, "租户不存在")
	}
	return &tenant, nil
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := loadTenant(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	s.fillCounts(ctx, []*models.Tenant{tenant})
	return tenant, nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *TenantService) GetWithFiltersAndPage(ctx context.Context, filter TenantFilter, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Tenant{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("name ILIKE ? OR subdomain ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}

	s.fillCounts(ctx, tenants)
	return tenants, total, nil
}

// fillCounts 统计每个租户的用户数和藏品数
func (s *TenantService) fillCounts(ctx context.Context, tenants []*models.Tenant) {
	if len(tenants) == 0 {
		return
	}
	ids := make([]uint, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}

	var users, gins []struct {
		TenantID uint
		Count    int
	}
	// 计数只用于展示，失败时记录日志并按0返回
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("tenant_id, COUNT(*) AS count").Where("tenant_id IN ?", ids).Group("tenant_id").Scan(&users).Error
	if err != nil {
		logger.GetLogger().WithError(err).Warn("统计租户用户数失败")
	}
	err = s.db.WithContext(ctx).Model(&models.Gin{}).
		Select("tenant_id, COUNT(*) AS count").Where("tenant_id IN ?", ids).Group("tenant_id").Scan(&gins).Error
	if err != nil {
		logger.GetLogger().WithError(err).Warn("统计租户藏品数失败")
	}

	userCount := make(map[uint]int, len(users))
	for _, u := range users {
		userCount[u.TenantID] = u.Count
	}
	ginCount := make(map[uint]int, len(gins))
	for _, g := range gins {
		ginCount[g.TenantID] = g.Count
	}
	for _, t := range tenants {
		t.UserCount = userCount[t.ID]
		t.GinCount = ginCount[t.ID]
	}
}

// Update 更新名称、状态或套餐，停用的租户在刷新令牌和请求鉴权时被拒绝
func (s *TenantService) Update(ctx context.Context, id uint, input TenantUpdate) (*models.Tenant, error) {
	tenant, err := loadTenant(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.BadRequest("租户名称不能为空")
		}
		updates["name"] = name
	}
	if input.Status != nil {
		if !models.IsValidTenantStatus(*input.Status) {
			return nil, apperrors.BadRequest("无效的租户状态")
		}
		updates["status"] = *input.Status
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(tenant).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if input.Tier != nil && *input.Tier != tenant.Tier {
		if _, err := s.subscriptions.ChangeTier(ctx, id, *input.Tier, nil); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// ChangeTier 平台管理员直接变更套餐
func (s *TenantService) ChangeTier(ctx context.Context, id uint, tier string) (*models.Tenant, error) {
	if _, err := s.subscriptions.ChangeTier(ctx, id, tier, nil); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete 删除租户及其全部数据
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	tenant, err := loadTenant(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}

	var keys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GinPhoto{}).Where("tenant_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		sessions := tx.Model(&models.TastingSession{}).Select("id").Where("tenant_id = ?", id)
		steps := []func() error{
			func() error { return tx.Where("session_id IN (?)", sessions).Delete(&models.TastingEntry{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.TastingSession{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.GinPhoto{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.Gin{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.Subscription{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.User{}).Error },
			func() error { return tx.Delete(tenant).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 数据库已提交，对象删除失败只记录日志
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.GetLogger().WithError(err).WithField("tenant_id", id).WithField("key", key).Warn("删除租户照片对象失败")
		}
	}
	logger.GetLogger().Infof("租户已删除: %s (id=%d, 照片=%d)", tenant.Subdomain, id, len(keys))
	return nil
}

// GetStats 按状态和套餐统计租户
func (s *TenantService) GetStats(ctx context.Context) (*TenantStats, error) {
	db := s.db.WithContext(ctx)
	stats := &TenantStats{ByStatus: map[string]int64{}, ByTier: map[string]int64{}}

	if err := db.Model(&models.Tenant{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var byStatus, byTier []groupCount
	if err := db.Model(&models.Tenant{}).Select("status AS key, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Tenant{}).Select("tier AS key, COUNT(*) AS count").Group("tier").Scan(&byTier).Error; err != nil {
		return nil, err
	}
	for _, c := range byStatus {
		stats.ByStatus[c.Key] = c.Count
	}
	for _, c := range byTier {
		stats.ByTier[c.Key] = c.Count
	}
	return stats, nil
}
