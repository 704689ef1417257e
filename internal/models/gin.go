package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Gin 藏品（一瓶金酒）
type Gin struct {
	TenantModel
	Name             string         `json:"name" gorm:"not null;size:200;index"`
	Distillery       string         `json:"distillery" gorm:"size:200"`
	Country          string         `json:"country" gorm:"size:100;index"`
	Region           string         `json:"region" gorm:"size:100"`
	Style            string         `json:"style" gorm:"size:50"`
	ABV              float64        `json:"abv"`
	BottleSizeML     int            `json:"bottle_size_ml"`
	Barcode          string         `json:"barcode" gorm:"size:64;index"`
	Botanicals       datatypes.JSON `json:"botanicals" gorm:"type:jsonb"`
	Description      string         `json:"description" gorm:"type:text"`
	Rating           float64        `json:"rating"`
	FillLevel        int            `json:"fill_level" gorm:"not null"`
	Price            float64        `json:"price"`
	Currency         string         `json:"currency" gorm:"size:3;default:'EUR'"`
	PurchaseDate     *time.Time     `json:"purchase_date"`
	PurchaseLocation string         `json:"purchase_location" gorm:"size:200"`
	IsFavorite       bool           `json:"is_favorite" gorm:"default:false"`
	CreatedBy        uint           `json:"created_by"`

	Photos []GinPhoto `json:"photos,omitempty" gorm:"foreignKey:GinID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (g *Gin) TableName() string {
	return "gins"
}

// 金酒风格
const (
	GinStyleLondonDry = "london_dry"
	GinStylePlymouth  = "plymouth"
	GinStyleOldTom    = "old_tom"
	GinStyleNavy      = "navy_strength"
	GinStyleSloe      = "sloe"
	GinStyleContemp   = "contemporary"
	GinStyleGenever   = "genever"
	GinStyleOther     = "other"
)

// 液位分档
const (
	FillEmpty = "empty" // 0
	FillLow   = "low"   // 1-25
	FillHalf  = "half"  // 26-75
	FillFull  = "full"  // 76-100
)

// FillBucket 返回液位所在分档
func FillBucket(level int) string {
	switch {
	case level <= 0:
		return FillEmpty
	case level <= 25:
		return FillLow
	case level <= 75:
		return FillHalf
	default:
		return FillFull
	}
}

// SetBotanicals 以JSON数组保存植物原料
func (g *Gin) SetBotanicals(botanicals []string) error {
	if botanicals == nil {
		botanicals = []string{}
	}
	data, err := json.Marshal(botanicals)
	if err != nil {
		return err
	}
	g.Botanicals = datatypes.JSON(data)
	return nil
}

// BotanicalList 解析植物原料列表
func (g *Gin) BotanicalList() []string {
	var list []string
	if len(g.Botanicals) == 0 {
		return list
	}
	_ = json.Unmarshal(g.Botanicals, &list)
	return list
}
