package models

// GinPhoto 藏品照片，文件存放在对象存储中
type GinPhoto struct {
	TenantModel
	GinID       uint   `json:"gin_id" gorm:"not null;index"`
	StorageKey  string `json:"-" gorm:"not null;size:255;uniqueIndex"`
	ContentType string `json:"content_type" gorm:"size:50"`
	SizeBytes   int64  `json:"size_bytes"`
	Caption     string `json:"caption" gorm:"size:255"`
	IsPrimary   bool   `json:"is_primary" gorm:"default:false"`
	Status      string `json:"status" gorm:"size:20;not null;default:'pending';index"`
	SortOrder   int    `json:"sort_order" gorm:"default:0"`

	URL string `json:"url,omitempty" gorm:"-"` // 预签名下载地址，不落库
}

// TableName 表名
func (p *GinPhoto) TableName() string {
	return "gin_photos"
}

// 照片状态：上传地址已签发 / 客户端确认上传完成
const (
	PhotoStatusPending = "pending"
	PhotoStatusReady   = "ready"
)

// MaxPhotoSize 单张照片上限 10MB
const MaxPhotoSize = 10 << 20

// 允许的图片类型及扩展名
var PhotoContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}
