package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ginvault/internal/models"
	"ginvault/pkg/events"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notFoundOr 将 gorm.ErrRecordNotFound 转为 404 业务错误
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(message)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern 关键字转为 ILIKE 子串匹配，转义通配符（PostgreSQL 默认转义符为反斜杠）
func likePattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// publish 发布事件，失败只记录日志
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.GetLogger().WithError(err).WithField("type", event.Type).Warn("发布事件失败")
	}
}

// lockTenant 在事务内锁定租户行，同一租户的配额检查串行执行
func lockTenant(tx *gorm.DB, tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tenant, tenantID).Error
	if err != nil {
		return nil, notFoundOr(err, "租户不存在")
	}
	return &tenant, nil
}

// lockGin 在事务内锁定藏品行，同一藏品的主图变更串行执行
func lockGin(tx *gorm.DB, tenantID, ginID uint) error {
	var gin models.Gin
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").
		Where("tenant_id = ? AND id = ?", tenantID, ginID).First(&gin).Error
	return notFoundOr(err, "藏品不存在")
}

// loadTenant 读取租户
func loadTenant(db *gorm.DB, tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := db.First(&tenant, tenantID).Error; err != nil {
		return nil, notFoundOr(err, "租户不存在")
	}
	return &tenant, nil
}

// checkLimit current 为创建前的数量，达到上限时返回需要升级的错误
func checkLimit(tier, limitName string, limit, current int, what string) error {
	if models.TierLimits(tier).Allows(limit, current) {
		return nil
	}
	metrics.RecordQuotaRejection(tier, limitName)
	return apperrors.UpgradeRequired(
		fmt.Sprintf("当前套餐最多允许%d个%s，请升级套餐", limit, what),
		models.NextTier(tier),
	)
}

// requireFeature 套餐不包含功能时返回需要升级的错误
func requireFeature(tier, feature string) error {
	if models.TierLimits(tier).HasFeature(feature) {
		return nil
	}
	metrics.RecordQuotaRejection(tier, feature)
	return apperrors.UpgradeRequired("当前套餐不支持该功能，请升级套餐", models.MinimumTierFor(feature))
}
