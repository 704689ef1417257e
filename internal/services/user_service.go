package services

import (
	"context"
	"errors"
	"strings"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/tokenstore"

	"gorm.io/gorm"
)

// UserService 租户内用户管理，平台管理员可跨租户查询和启停
type UserService struct {
	db     *gorm.DB
	tokens tokenstore.Store
}

// CreateUserInput 添加租户成员
type CreateUserInput struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=owner admin member viewer"`
}

// UserFilter 用户列表过滤
type UserFilter struct {
	TenantID uint
	Keyword  string
	Role     string
	Active   *bool
}

func NewUserService(db *gorm.DB, tokens tokenstore.Store) *UserService {
	return &UserService{db: db, tokens: tokens}
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "用户不存在")
	}
	return &user, nil
}

func (s *UserService) getInTenant(ctx context.Context, tenantID, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "用户不存在")
	}
	return &user, nil
}

// List 组合查询（分页），TenantID 为0时跨租户查询
func (s *UserService) List(ctx context.Context, filter UserFilter, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.TenantID != 0 {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("email ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if filter.TenantID == 0 {
		query = query.Preload("Tenant")
	}
	err := query.Order("created_at ASC, id ASC").Offset(offset).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Create 添加租户成员，受套餐 MaxUsers 限制；只有所有者能添加所有者
func (s *UserService) Create(ctx context.Context, tenantID uint, actor *models.User, input CreateUserInput) (*models.User, error) {
	if !models.IsValidRole(input.Role) {
		return nil, apperrors.BadRequest("无效的角色")
	}
	if input.Role == models.RoleOwner && !isOwner(actor) {
		return nil, apperrors.Forbidden("只有所有者可以添加所有者")
	}

	user := &models.User{
		TenantID: tenantID,
		Email:    normalizeEmail(input.Email),
		Name:     strings.TrimSpace(input.Name),
		Role:     input.Role,
		IsActive: true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperrors.Internal("密码加密失败", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := lockTenant(tx, tenantID)
		if err != nil {
			return err
		}

		var exists int64
		if err := tx.Model(&models.User{}).Where("tenant_id = ? AND email = ?", tenantID, user.Email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return apperrors.Conflict("邮箱已存在")
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
			return err
		}
		limits := models.TierLimits(tenant.Tier)
		if err := checkLimit(tenant.Tier, "max_users", limits.MaxUsers, int(count), "用户"); err != nil {
			return err
		}

		return tx.Create(user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发添加同一邮箱，计数检查之后由唯一索引拦截
		return nil, apperrors.Conflict("邮箱已存在")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole 修改角色；至少保留一个所有者
func (s *UserService) UpdateRole(ctx context.Context, tenantID uint, actor *models.User, id uint, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, apperrors.BadRequest("无效的角色")
	}
	user, err := s.getInTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if (role == models.RoleOwner || user.Role == models.RoleOwner) && !isOwner(actor) {
		return nil, apperrors.Forbidden("只有所有者可以变更所有者角色")
	}
	if user.Role == models.RoleOwner {
		if err := s.ensureAnotherOwner(ctx, tenantID, id); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	// 角色写在访问令牌里，吊销刷新令牌使新角色尽快生效
	s.revoke(ctx, user.ID)
	return user, nil
}

// SetActive 启用或禁用租户成员，禁用时吊销其刷新令牌
func (s *UserService) SetActive(ctx context.Context, tenantID uint, actor *models.User, id uint, active bool) (*models.User, error) {
	user, err := s.getInTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleOwner && !isOwner(actor) {
		return nil, apperrors.Forbidden("只有所有者可以启用或禁用所有者")
	}
	if !active {
		if actor != nil && actor.ID == id {
			return nil, apperrors.BadRequest("不能禁用自己")
		}
		if user.Role == models.RoleOwner {
			if err := s.ensureAnotherOwner(ctx, tenantID, id); err != nil {
				return nil, err
			}
		}
	}
	return s.setActive(ctx, user, active)
}

// SetActiveAny 平台管理员启用或禁用任意用户
func (s *UserService) SetActiveAny(ctx context.Context, actor *models.User, id uint, active bool) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active && actor != nil && actor.ID == id {
		return nil, apperrors.BadRequest("不能禁用自己")
	}
	return s.setActive(ctx, user, active)
}

func (s *UserService) setActive(ctx context.Context, user *models.User, active bool) (*models.User, error) {
	if user.IsActive == active {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	user.IsActive = active
	if !active {
		s.revoke(ctx, user.ID)
	}
	return user, nil
}

// Delete 删除租户成员，不能删除自己和最后一个所有者
func (s *UserService) Delete(ctx context.Context, tenantID uint, actor *models.User, id uint) error {
	if actor != nil && actor.ID == id {
		return apperrors.BadRequest("不能删除自己")
	}
	user, err := s.getInTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleOwner {
		if !isOwner(actor) {
			return apperrors.Forbidden("只有所有者可以删除所有者")
		}
		if err := s.ensureAnotherOwner(ctx, tenantID, id); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return err
	}
	s.revoke(ctx, user.ID)
	return nil
}

// ensureAnotherOwner 除 excludeID 外还有可用的所有者
func (s *UserService) ensureAnotherOwner(ctx context.Context, tenantID, excludeID uint) error {
	var owners int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("tenant_id = ? AND role = ? AND is_active = ? AND id <> ?", tenantID, models.RoleOwner, true, excludeID).
		Count(&owners).Error
	if err != nil {
		return err
	}
	if owners == 0 {
		return apperrors.BadRequest("租户至少需要保留一个所有者")
	}
	return nil
}

func (s *UserService) revoke(ctx context.Context, userID uint) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.RevokeUser(ctx, userID); err != nil {
		logger.GetLogger().WithError(err).Warnf("吊销用户 %d 的刷新令牌失败", userID)
	}
}

func isOwner(u *models.User) bool {
	return u != nil && (u.Role == models.RoleOwner || u.IsPlatformAdmin)
}
