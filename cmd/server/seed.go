package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ginvault/internal/models"
	"ginvault/pkg/config"
	"ginvault/pkg/logger"

	"gorm.io/gorm"
)

// seedData 创建平台管理租户和平台管理员，未配置管理员邮箱时跳过
func seedData(ctx context.Context, db *gorm.DB, cfg config.SeedConfig) error {
	appLogger := logger.GetLogger()
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		appLogger.Info("未配置平台管理员，跳过种子数据初始化")
		return nil
	}

	subdomain := strings.ToLower(strings.TrimSpace(cfg.AdminSubdomain))
	if !models.IsValidSubdomain(subdomain) {
		return fmt.Errorf("无效的管理租户子域名: %s", cfg.AdminSubdomain)
	}

	appLogger.Info("Starting seed data initialization...")
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := ensureAdminTenant(tx, subdomain)
		if err != nil {
			return fmt.Errorf("创建管理租户失败: %v", err)
		}
		if err := ensurePlatformAdmin(tx, tenant, cfg); err != nil {
			return fmt.Errorf("创建平台管理员失败: %v", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// ensureAdminTenant 管理租户使用企业版，不受配额限制
func ensureAdminTenant(tx *gorm.DB, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := tx.Where("subdomain = ?", subdomain).First(&tenant).Error
	if err == nil {
		logger.GetLogger().Info("管理租户已存在，跳过创建")
		return &tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tenant = models.Tenant{
		Name:      "Platform",
		Subdomain: subdomain,
		Tier:      models.TierEnterprise,
		Status:    models.TenantStatusActive,
	}
	if err := tx.Create(&tenant).Error; err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		TenantID: tenant.ID,
		Tier:     models.TierEnterprise,
		Status:   models.SubscriptionActive,
		Provider: "manual",
	}
	if err := tx.Create(sub).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Infof("管理租户创建成功: %s", subdomain)
	return &tenant, nil
}

func ensurePlatformAdmin(tx *gorm.DB, tenant *models.Tenant, cfg config.SeedConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var count int64
	if err := tx.Model(&models.User{}).Where("tenant_id = ? AND email = ?", tenant.ID, email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.GetLogger().Info("平台管理员已存在，跳过创建")
		return nil
	}

	user := &models.User{
		TenantID:        tenant.ID,
		Email:           email,
		Name:            "Platform Admin",
		Role:            models.RoleOwner,
		IsActive:        true,
		IsPlatformAdmin: true,
	}
	if err := user.SetPassword(cfg.AdminPassword); err != nil {
		return err
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	logger.GetLogger().Infof("平台管理员创建成功: %s", email)
	return nil
}
