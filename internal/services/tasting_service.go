package services

import (
	"context"
	"strings"
	"time"

	"ginvault/internal/models"
	"ginvault/pkg/events"
	apperrors "ginvault/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TastingService 品鉴记录，需要套餐包含 tasting_sessions 功能
type TastingService struct {
	db        *gorm.DB
	publisher events.Publisher
}

// TastingInput 创建或整体更新品鉴记录
type TastingInput struct {
	Title    string              `json:"title" binding:"required,max=200"`
	TastedAt *time.Time          `json:"tasted_at"`
	Location string              `json:"location" binding:"max=200"`
	Notes    string              `json:"notes"`
	Entries  []TastingEntryInput `json:"entries" binding:"dive"`
}

// TastingEntryInput 单瓶评价
type TastingEntryInput struct {
	GinID   uint    `json:"gin_id" binding:"required"`
	Tonic   string  `json:"tonic" binding:"max=100"`
	Garnish string  `json:"garnish" binding:"max=100"`
	Nose    string  `json:"nose"`
	Palate  string  `json:"palate"`
	Finish  string  `json:"finish"`
	Rating  float64 `json:"rating"`
}

func NewTastingService(db *gorm.DB, publisher events.Publisher) *TastingService {
	return &TastingService{db: db, publisher: publisher}
}

// List 分页查询，最新的在前；ginID 非0时只返回包含该藏品的记录
func (s *TastingService) List(ctx context.Context, tenantID, ginID uint, page, pageSize int) ([]models.TastingSession, int64, error) {
	var sessions []models.TastingSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.TastingSession{}).Where("tenant_id = ?", tenantID)
	if ginID != 0 {
		query = query.Where("id IN (?)",
			s.db.Model(&models.TastingEntry{}).Select("session_id").Where("gin_id = ?", ginID))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Entries").
		Order("tasted_at DESC, id DESC").
		Offset(offset).Limit(pageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Get 获取品鉴记录及各条目对应的藏品
func (s *TastingService) Get(ctx context.Context, tenantID, id uint) (*models.TastingSession, error) {
	var session models.TastingSession
	err := s.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Entries.Gin").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&session).Error
	if err != nil {
		return nil, notFoundOr(err, "品鉴记录不存在")
	}
	return &session, nil
}

// buildEntries 校验评分，条目引用的藏品必须属于同一租户
func (s *TastingService) buildEntries(tx *gorm.DB, tenantID uint, inputs []TastingEntryInput) ([]models.TastingEntry, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(inputs))
	seen := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		if in.Rating < 0 || in.Rating > 5 {
			return nil, apperrors.BadRequest("评分必须在0到5之间")
		}
		if !seen[in.GinID] {
			seen[in.GinID] = true
			ids = append(ids, in.GinID)
		}
	}

	var count int64
	if err := tx.Model(&models.Gin{}).Where("tenant_id = ? AND id IN ?", tenantID, ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, apperrors.BadRequest("品鉴条目引用了不存在的藏品")
	}

	entries := make([]models.TastingEntry, 0, len(inputs))
	for _, in := range inputs {
		entries = append(entries, models.TastingEntry{
			GinID:   in.GinID,
			Tonic:   in.Tonic,
			Garnish: in.Garnish,
			Nose:    in.Nose,
			Palate:  in.Palate,
			Finish:  in.Finish,
			Rating:  in.Rating,
		})
	}
	return entries, nil
}

// Create 创建品鉴记录
func (s *TastingService) Create(ctx context.Context, tenantID, userID uint, input TastingInput) (*models.TastingSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("标题不能为空")
	}

	session := &models.TastingSession{
		UserID:   userID,
		Title:    title,
		TastedAt: time.Now(),
		Location: input.Location,
		Notes:    input.Notes,
	}
	session.TenantID = tenantID
	if input.TastedAt != nil {
		session.TastedAt = *input.TastedAt
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := s.buildEntries(tx, tenantID, input.Entries)
		if err != nil {
			return err
		}
		session.Entries = entries
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.Event{Type: events.TastingCreated, TenantID: tenantID, EntityID: session.ID, UserID: userID})
	return session, nil
}

// Update 更新品鉴记录，条目整体替换
func (s *TastingService) Update(ctx context.Context, tenantID, userID, id uint, input TastingInput) (*models.TastingSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("标题不能为空")
	}

	session, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := s.buildEntries(tx, tenantID, input.Entries)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":    title,
			"location": input.Location,
			"notes":    input.Notes,
		}
		if input.TastedAt != nil {
			updates["tasted_at"] = *input.TastedAt
		}
		// session 已预加载旧条目，不能随更新回写
		if err := tx.Model(session).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", id).Delete(&models.TastingEntry{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].SessionID = id
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.Event{Type: events.TastingUpdated, TenantID: tenantID, EntityID: id, UserID: userID})
	return s.Get(ctx, tenantID, id)
}

// Delete 删除品鉴记录
func (s *TastingService) Delete(ctx context.Context, tenantID, userID, id uint) error {
	session, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.TastingEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(session).Error
	})
	if err != nil {
		return err
	}

	publish(ctx, s.publisher, events.Event{Type: events.TastingDeleted, TenantID: tenantID, EntityID: id, UserID: userID})
	return nil
}
