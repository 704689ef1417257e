package client

import (
	"context"
	"fmt"
	"net/http"
)

// PhotosAPI 照片接口，上传分三步：申请、PUT 到预签名地址、确认
type PhotosAPI struct {
	c *Client
}

func (c *Client) Photos() *PhotosAPI {
	return &PhotosAPI{c: c}
}

func photosPath(ginID uint) string {
	return fmt.Sprintf("/api/v1/gins/%d/photos", ginID)
}

func (a *PhotosAPI) List(ctx context.Context, ginID uint) ([]Photo, error) {
	var photos []Photo
	if err := a.c.do(ctx, request{method: http.MethodGet, path: photosPath(ginID)}, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (a *PhotosAPI) RequestUpload(ctx context.Context, ginID uint, contentType string, size int64, caption string) (*UploadTicket, error) {
	var ticket UploadTicket
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   photosPath(ginID),
		body: map[string]interface{}{
			"content_type": contentType,
			"size_bytes":   size,
			"caption":      caption,
		},
	}, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UploadBytes 上传到预签名地址，不带访问令牌和租户头
func (a *PhotosAPI) UploadBytes(ctx context.Context, ticket *UploadTicket, contentType string, data []byte) error {
	method := ticket.Method
	if method == "" {
		method = http.MethodPut
	}
	resp, err := a.c.upload.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Execute(method, ticket.UploadURL)
	if err != nil {
		return fmt.Errorf("上传照片失败: %w", err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: "上传照片失败"}
	}
	return nil
}

func (a *PhotosAPI) Confirm(ctx context.Context, ginID, photoID uint) (*Photo, error) {
	var photo Photo
	path := fmt.Sprintf("%s/%d/confirm", photosPath(ginID), photoID)
	if err := a.c.do(ctx, request{method: http.MethodPost, path: path}, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

// Upload 申请、上传、确认
func (a *PhotosAPI) Upload(ctx context.Context, ginID uint, contentType string, data []byte, caption string) (*Photo, error) {
	ticket, err := a.RequestUpload(ctx, ginID, contentType, int64(len(data)), caption)
	if err != nil {
		return nil, err
	}
	if err := a.UploadBytes(ctx, ticket, contentType, data); err != nil {
		return nil, err
	}
	return a.Confirm(ctx, ginID, ticket.Photo.ID)
}

func (a *PhotosAPI) SetPrimary(ctx context.Context, ginID, photoID uint) (*Photo, error) {
	var photo Photo
	path := fmt.Sprintf("%s/%d/primary", photosPath(ginID), photoID)
	if err := a.c.do(ctx, request{method: http.MethodPost, path: path}, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (a *PhotosAPI) UpdateCaption(ctx context.Context, ginID, photoID uint, caption string) (*Photo, error) {
	var photo Photo
	path := fmt.Sprintf("%s/%d", photosPath(ginID), photoID)
	err := a.c.do(ctx, request{method: http.MethodPut, path: path, body: map[string]string{"caption": caption}}, &photo)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (a *PhotosAPI) Delete(ctx context.Context, ginID, photoID uint) error {
	path := fmt.Sprintf("%s/%d", photosPath(ginID), photoID)
	return a.c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}
