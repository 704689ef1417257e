package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ginvault/internal/models"
	"ginvault/pkg/events"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"
	"ginvault/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhotoService 藏品照片，客户端直传对象存储后再确认
type PhotoService struct {
	db        *gorm.DB
	store     storage.ObjectStore
	publisher events.Publisher
}

// UploadRequest 申请上传
type UploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
	Caption     string `json:"caption" binding:"max=255"`
}

// UploadTicket 上传凭证，客户端用 PUT 和相同的 Content-Type 上传到 UploadURL
type UploadTicket struct {
	Photo     *models.GinPhoto `json:"photo"`
	UploadURL string           `json:"upload_url"`
	Method    string           `json:"method"`
}

func NewPhotoService(db *gorm.DB, store storage.ObjectStore, publisher events.Publisher) *PhotoService {
	return &PhotoService{db: db, store: store, publisher: publisher}
}

// photoKey 对象键 tenants/<tid>/gins/<gid>/<uuid>.<ext>
func photoKey(tenantID, ginID uint, ext string) string {
	return fmt.Sprintf("tenants/%d/gins/%d/%s.%s", tenantID, ginID, uuid.NewString(), ext)
}

// RequestUpload 校验类型、大小和套餐限制，创建待上传记录并返回预签名地址
func (s *PhotoService) RequestUpload(ctx context.Context, tenantID, ginID uint, req UploadRequest) (*UploadTicket, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := models.PhotoContentTypes[contentType]
	if !ok {
		return nil, apperrors.BadRequest("不支持的图片类型，仅支持 jpeg、png、webp、heic")
	}
	if req.SizeBytes <= 0 || req.SizeBytes > models.MaxPhotoSize {
		return nil, apperrors.BadRequest("图片大小不能超过10MB")
	}

	photo := &models.GinPhoto{
		GinID:       ginID,
		StorageKey:  photoKey(tenantID, ginID, ext),
		ContentType: contentType,
		SizeBytes:   req.SizeBytes,
		Caption:     req.Caption,
		Status:      models.PhotoStatusPending,
	}
	photo.TenantID = tenantID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := lockTenant(tx, tenantID)
		if err != nil {
			return err
		}

		var ginCount int64
		if err := tx.Model(&models.Gin{}).Where("tenant_id = ? AND id = ?", tenantID, ginID).Count(&ginCount).Error; err != nil {
			return err
		}
		if ginCount == 0 {
			return apperrors.NotFound("藏品不存在")
		}

		// 待上传的照片也占用名额
		var count int64
		if err := tx.Model(&models.GinPhoto{}).Where("tenant_id = ? AND gin_id = ?", tenantID, ginID).Count(&count).Error; err != nil {
			return err
		}
		limits := models.TierLimits(tenant.Tier)
		if err := checkLimit(tenant.Tier, "max_photos_per_gin", limits.MaxPhotosPerGin, int(count), "照片"); err != nil {
			return err
		}
		photo.SortOrder = int(count)

		return tx.Create(photo).Error
	})
	if err != nil {
		return nil, err
	}

	url, err := s.store.PresignPut(ctx, photo.StorageKey, contentType)
	if err != nil {
		return nil, apperrors.Internal("生成上传地址失败", err)
	}
	return &UploadTicket{Photo: photo, UploadURL: url, Method: "PUT"}, nil
}

func (s *PhotoService) get(ctx context.Context, tenantID, ginID, photoID uint) (*models.GinPhoto, error) {
	var photo models.GinPhoto
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND gin_id = ? AND id = ?", tenantID, ginID, photoID).
		First(&photo).Error
	if err != nil {
		return nil, notFoundOr(err, "照片不存在")
	}
	return &photo, nil
}

// Confirm 上传完成后确认；藏品的第一张可用照片设为主图
func (s *PhotoService) Confirm(ctx context.Context, tenantID, ginID, photoID uint) (*models.GinPhoto, error) {
	photo, err := s.get(ctx, tenantID, ginID, photoID)
	if err != nil {
		return nil, err
	}
	if photo.Status == models.PhotoStatusReady {
		return s.withURL(ctx, photo), nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGin(tx, tenantID, ginID); err != nil {
			return err
		}
		var primaries int64
		if err := tx.Model(&models.GinPhoto{}).
			Where("tenant_id = ? AND gin_id = ? AND status = ? AND is_primary = ?", tenantID, ginID, models.PhotoStatusReady, true).
			Count(&primaries).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"status": models.PhotoStatusReady}
		if primaries == 0 {
			updates["is_primary"] = true
		}
		if err := tx.Model(photo).Updates(updates).Error; err != nil {
			return err
		}
		photo.Status = models.PhotoStatusReady
		photo.IsPrimary = primaries == 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.Event{Type: events.PhotoReady, TenantID: tenantID, EntityID: photo.ID})
	return s.withURL(ctx, photo), nil
}

// List 可用照片，主图在前，其余按排序号
func (s *PhotoService) List(ctx context.Context, tenantID, ginID uint) ([]models.GinPhoto, error) {
	var photos []models.GinPhoto
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND gin_id = ? AND status = ?", tenantID, ginID, models.PhotoStatusReady).
		Order("is_primary DESC, sort_order ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	for i := range photos {
		s.withURL(ctx, &photos[i])
	}
	return photos, nil
}

// SetPrimary 设置主图
func (s *PhotoService) SetPrimary(ctx context.Context, tenantID, ginID, photoID uint) (*models.GinPhoto, error) {
	photo, err := s.get(ctx, tenantID, ginID, photoID)
	if err != nil {
		return nil, err
	}
	if photo.Status != models.PhotoStatusReady {
		return nil, apperrors.BadRequest("照片尚未上传完成")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGin(tx, tenantID, ginID); err != nil {
			return err
		}
		if err := tx.Model(&models.GinPhoto{}).
			Where("tenant_id = ? AND gin_id = ? AND id <> ?", tenantID, ginID, photoID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(photo).Update("is_primary", true).Error
	})
	if err != nil {
		return nil, err
	}
	photo.IsPrimary = true
	return s.withURL(ctx, photo), nil
}

// UpdateCaption 修改说明
func (s *PhotoService) UpdateCaption(ctx context.Context, tenantID, ginID, photoID uint, caption string) (*models.GinPhoto, error) {
	if len(caption) > 255 {
		return nil, apperrors.BadRequest("说明不能超过255个字符")
	}
	photo, err := s.get(ctx, tenantID, ginID, photoID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(photo).Update("caption", caption).Error; err != nil {
		return nil, err
	}
	photo.Caption = caption
	return s.withURL(ctx, photo), nil
}

// Delete 删除照片；删除主图时下一张照片成为主图
func (s *PhotoService) Delete(ctx context.Context, tenantID, ginID, photoID uint) error {
	photo, err := s.get(ctx, tenantID, ginID, photoID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(photo).Error; err != nil {
			return err
		}
		if !photo.IsPrimary {
			return nil
		}
		if err := lockGin(tx, tenantID, ginID); err != nil {
			return err
		}
		var next models.GinPhoto
		err := tx.Where("tenant_id = ? AND gin_id = ? AND status = ?", tenantID, ginID, models.PhotoStatusReady).
			Order("sort_order ASC, id ASC").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_primary", true).Error
	})
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		logger.GetLogger().WithError(err).WithField("key", photo.StorageKey).Warn("删除照片对象失败")
	}
	publish(ctx, s.publisher, events.Event{Type: events.PhotoDeleted, TenantID: tenantID, EntityID: photoID})
	return nil
}

// PurgeStalePending 清理超时未确认的上传记录，返回清理数量
func (s *PhotoService) PurgeStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []models.GinPhoto
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PhotoStatusPending, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range stale {
		if err := s.db.WithContext(ctx).Delete(&stale[i]).Error; err != nil {
			logger.GetLogger().WithError(err).Warnf("清理待上传照片 %d 失败", stale[i].ID)
			continue
		}
		// 客户端可能从未上传，对象不存在属正常情况
		if err := s.store.Delete(ctx, stale[i].StorageKey); err != nil {
			logger.GetLogger().WithError(err).Debugf("删除对象 %s 失败", stale[i].StorageKey)
		}
		purged++
	}
	return purged, nil
}

func (s *PhotoService) withURL(ctx context.Context, photo *models.GinPhoto) *models.GinPhoto {
	url, err := s.store.PresignGet(ctx, photo.StorageKey)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("key", photo.StorageKey).Warn("生成下载地址失败")
		return photo
	}
	photo.URL = url
	return photo
}
