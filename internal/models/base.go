package models

import (
	"time"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantModel 租户隔离数据的基础模型，所有查询都必须带 tenant_id 条件
type TenantModel struct {
	BaseModel
	TenantID uint `json:"tenant_id" gorm:"not null;index"`
}
