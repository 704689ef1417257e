package models

import "time"

// Subscription 租户订阅，每个租户一条
type Subscription struct {
	BaseModel
	TenantID         uint       `json:"tenant_id" gorm:"not null;uniqueIndex"`
	Tier             string     `json:"tier" gorm:"size:20;not null;default:'free'"`
	Status           string     `json:"status" gorm:"size:20;not null;default:'active';index"`
	Provider         string     `json:"provider" gorm:"size:30"`
	ExternalID       string     `json:"external_id" gorm:"size:100"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	CancelAt         *time.Time `json:"cancel_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (s *Subscription) TableName() string {
	return "subscriptions"
}

// 订阅状态
const (
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)
