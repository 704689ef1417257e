package models

import "time"

// TastingSession 品鉴记录
type TastingSession struct {
	TenantModel
	UserID   uint      `json:"user_id" gorm:"not null;index"`
	Title    string    `json:"title" gorm:"not null;size:200"`
	TastedAt time.Time `json:"tasted_at" gorm:"not null;index"`
	Location string    `json:"location" gorm:"size:200"`
	Notes    string    `json:"notes" gorm:"type:text"`

	Entries []TastingEntry `json:"entries" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (t *TastingSession) TableName() string {
	return "tasting_sessions"
}

// TastingEntry 一次品鉴中对单瓶酒的评价
type TastingEntry struct {
	ID        uint    `json:"id" gorm:"primarykey"`
	SessionID uint    `json:"session_id" gorm:"not null;index"`
	GinID     uint    `json:"gin_id" gorm:"not null;index"`
	Tonic     string  `json:"tonic" gorm:"size:100"`
	Garnish   string  `json:"garnish" gorm:"size:100"`
	Nose      string  `json:"nose" gorm:"type:text"`
	Palate    string  `json:"palate" gorm:"type:text"`
	Finish    string  `json:"finish" gorm:"type:text"`
	Rating    float64 `json:"rating"`

	Gin *Gin `json:"gin,omitempty" gorm:"foreignKey:GinID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (e *TastingEntry) TableName() string {
	return "tasting_entries"
}
