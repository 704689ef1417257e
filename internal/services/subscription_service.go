package services

import (
	"context"
	"errors"
	"time"

	"ginvault/internal/models"
	"ginvault/pkg/events"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"

	"gorm.io/gorm"
)

// SubscriptionService 订阅与套餐
type SubscriptionService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

// Usage 当前用量
type Usage struct {
	Gins  int64 `json:"gins"`
	Users int64 `json:"users"`
}

// SubscriptionOverview 订阅详情
type SubscriptionOverview struct {
	Subscription *models.Subscription `json:"subscription"`
	Limits       models.Limits        `json:"limits"`
	Usage        Usage                `json:"usage"`
}

func NewSubscriptionService(db *gorm.DB, publisher events.Publisher) *SubscriptionService {
	return &SubscriptionService{db: db, publisher: publisher, now: time.Now}
}

// getOrInit 读取订阅，旧租户没有订阅记录时按租户当前套餐补建
func (s *SubscriptionService) getOrInit(tx *gorm.DB, tenant *models.Tenant) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.Where("tenant_id = ?", tenant.ID).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub = models.Subscription{
		TenantID: tenant.ID,
		Tier:     tenant.Tier,
		Status:   models.SubscriptionActive,
	}
	if err := tx.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Current 订阅、套餐限制和用量
func (s *SubscriptionService) Current(ctx context.Context, tenantID uint) (*SubscriptionOverview, error) {
	db := s.db.WithContext(ctx)
	tenant, err := loadTenant(db, tenantID)
	if err != nil {
		return nil, err
	}
	sub, err := s.getOrInit(db, tenant)
	if err != nil {
		return nil, err
	}

	overview := &SubscriptionOverview{
		Subscription: sub,
		Limits:       models.TierLimits(tenant.Tier),
	}
	if err := db.Model(&models.Gin{}).Where("tenant_id = ?", tenantID).Count(&overview.Usage.Gins).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("tenant_id = ?", tenantID).Count(&overview.Usage.Users).Error; err != nil {
		return nil, err
	}
	return overview, nil
}

// ChangeTier 变更套餐（平台管理员或支付回调）；降级不删除已有数据，超出部分只阻止新建
func (s *SubscriptionService) ChangeTier(ctx context.Context, tenantID uint, tier string, periodEnd *time.Time) (*models.Subscription, error) {
	if !models.IsValidTier(tier) {
		return nil, apperrors.BadRequest("无效的套餐")
	}

	var sub *models.Subscription
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := lockTenant(tx, tenantID)
		if err != nil {
			return err
		}
		previous = tenant.Tier

		sub, err = s.getOrInit(tx, tenant)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"tier":      tier,
			"status":    models.SubscriptionActive,
			"cancel_at": nil,
		}
		if periodEnd != nil {
			updates["current_period_end"] = *periodEnd
		}
		if err := tx.Model(sub).Updates(updates).Error; err != nil {
			return err
		}
		sub.Tier = tier
		sub.Status = models.SubscriptionActive
		sub.CancelAt = nil
		if periodEnd != nil {
			sub.CurrentPeriodEnd = periodEnd
		}

		return tx.Model(tenant).Update("tier", tier).Error
	})
	if err != nil {
		return nil, err
	}

	if previous != tier {
		logger.GetLogger().Infof("租户 %d 套餐变更: %s -> %s", tenantID, previous, tier)
		publish(ctx, s.publisher, events.Event{Type: events.TierChanged, TenantID: tenantID, EntityID: sub.ID})
	}
	return sub, nil
}

// Cancel 在当前周期结束时取消；没有周期的免费套餐无法取消
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID uint) (*models.Subscription, error) {
	db := s.db.WithContext(ctx)
	tenant, err := loadTenant(db, tenantID)
	if err != nil {
		return nil, err
	}
	sub, err := s.getOrInit(db, tenant)
	if err != nil {
		return nil, err
	}
	if sub.Tier == models.TierFree {
		return nil, apperrors.BadRequest("免费套餐无需取消")
	}
	if sub.Status == models.SubscriptionCancelled || sub.Status == models.SubscriptionExpired {
		return sub, nil
	}

	cancelAt := s.now()
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(cancelAt) {
		cancelAt = *sub.CurrentPeriodEnd
	}
	err = db.Model(sub).Updates(map[string]interface{}{
		"status":    models.SubscriptionCancelled,
		"cancel_at": cancelAt,
	}).Error
	if err != nil {
		return nil, err
	}
	sub.Status = models.SubscriptionCancelled
	sub.CancelAt = &cancelAt
	return sub, nil
}

// ExpireDue 周期已结束的订阅置为过期，租户降为免费套餐，返回处理数量
func (s *SubscriptionService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.Subscription
	err := s.db.WithContext(ctx).
		Where("tier <> ?", models.TierFree).
		Where("(status IN ? AND current_period_end IS NOT NULL AND current_period_end < ?) OR (status = ? AND cancel_at IS NOT NULL AND cancel_at <= ?)",
			[]string{models.SubscriptionActive, models.SubscriptionPastDue}, now,
			models.SubscriptionCancelled, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		sub := &due[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(sub).Updates(map[string]interface{}{
				"status": models.SubscriptionExpired,
				"tier":   models.TierFree,
			}).Error; err != nil {
				return err
			}
			return tx.Model(&models.Tenant{}).Where("id = ?", sub.TenantID).Update("tier", models.TierFree).Error
		})
		if err != nil {
			logger.GetLogger().WithError(err).Errorf("订阅 %d 过期处理失败", sub.ID)
			continue
		}
		expired++
		publish(ctx, s.publisher, events.Event{Type: events.TierChanged, TenantID: sub.TenantID, EntityID: sub.ID})
	}
	return expired, nil
}
