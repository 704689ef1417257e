package client

import "time"

// PageInfo 分页信息
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page 一页数据
type Page[T any] struct {
	Items    []T
	PageInfo PageInfo
}

type Tenant struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	Tier      string    `json:"tier"`
	Status    string    `json:"status"`
	UserCount int       `json:"user_count"`
	GinCount  int       `json:"gin_count"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID              uint       `json:"id"`
	TenantID        uint       `json:"tenant_id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsPlatformAdmin bool       `json:"is_platform_admin"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	Tenant          *Tenant    `json:"tenant,omitempty"`
}

// Limits 套餐限制，-1 表示不限
type Limits struct {
	Tier            string `json:"tier"`
	MaxGins         int    `json:"max_gins"`
	MaxPhotosPerGin int    `json:"max_photos_per_gin"`
	MaxUsers        int    `json:"max_users"`
	TastingSessions bool   `json:"tasting_sessions"`
	Export          bool   `json:"export"`
}

// AuthResult 登录、注册、刷新的返回
type AuthResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
	Tenant       *Tenant   `json:"tenant"`
}

type MeResult struct {
	User   *User   `json:"user"`
	Tenant *Tenant `json:"tenant"`
	Limits Limits  `json:"limits"`
}

type RegisterRequest struct {
	TenantName string `json:"tenant_name"`
	Subdomain  string `json:"subdomain"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
}

type Gin struct {
	ID               uint       `json:"id"`
	TenantID         uint       `json:"tenant_id"`
	Name             string     `json:"name"`
	Distillery       string     `json:"distillery"`
	Country          string     `json:"country"`
	Region           string     `json:"region"`
	Style            string     `json:"style"`
	ABV              float64    `json:"abv"`
	BottleSizeML     int        `json:"bottle_size_ml"`
	Barcode          string     `json:"barcode"`
	Botanicals       []string   `json:"botanicals"`
	Description      string     `json:"description"`
	Rating           float64    `json:"rating"`
	FillLevel        int        `json:"fill_level"`
	Price            float64    `json:"price"`
	Currency         string     `json:"currency"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	PurchaseLocation string     `json:"purchase_location"`
	IsFavorite       bool       `json:"is_favorite"`
	CreatedBy        uint       `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// GinInput 新建藏品，FillLevel 为空时服务端按 100 处理
type GinInput struct {
	Name             string     `json:"name"`
	Distillery       string     `json:"distillery,omitempty"`
	Country          string     `json:"country,omitempty"`
	Region           string     `json:"region,omitempty"`
	Style            string     `json:"style,omitempty"`
	ABV              float64    `json:"abv,omitempty"`
	BottleSizeML     int        `json:"bottle_size_ml,omitempty"`
	Barcode          string     `json:"barcode,omitempty"`
	Botanicals       []string   `json:"botanicals,omitempty"`
	Description      string     `json:"description,omitempty"`
	Rating           float64    `json:"rating,omitempty"`
	FillLevel        *int       `json:"fill_level,omitempty"`
	Price            float64    `json:"price,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	PurchaseLocation string     `json:"purchase_location,omitempty"`
	IsFavorite       bool       `json:"is_favorite,omitempty"`
}

// GinUpdate 部分更新，nil 字段不发送
type GinUpdate struct {
	Name             *string    `json:"name,omitempty"`
	Distillery       *string    `json:"distillery,omitempty"`
	Country          *string    `json:"country,omitempty"`
	Region           *string    `json:"region,omitempty"`
	Style            *string    `json:"style,omitempty"`
	ABV              *float64   `json:"abv,omitempty"`
	BottleSizeML     *int       `json:"bottle_size_ml,omitempty"`
	Barcode          *string    `json:"barcode,omitempty"`
	Botanicals       []string   `json:"botanicals,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Rating           *float64   `json:"rating,omitempty"`
	FillLevel        *int       `json:"fill_level,omitempty"`
	Price            *float64   `json:"price,omitempty"`
	Currency         *string    `json:"currency,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	PurchaseLocation *string    `json:"purchase_location,omitempty"`
	IsFavorite       *bool      `json:"is_favorite,omitempty"`
}

// GinFilter 列表查询条件，零值不发送
type GinFilter struct {
	Keyword   string
	Country   string
	Style     string
	MinRating float64
	Favorite  *bool
	FillBelow *int
	SortBy    string
	Order     string
	Page      int
	PageSize  int
}

type GinStats struct {
	Total           int64              `json:"total"`
	Favorites       int64              `json:"favorites"`
	AverageRating   float64            `json:"average_rating"`
	ValueByCurrency map[string]float64 `json:"value_by_currency"`
	FillLevels      map[string]int64   `json:"fill_levels"`
	TopCountries    []struct {
		Country string `json:"country"`
		Count   int64  `json:"count"`
	} `json:"top_countries"`
}

type Photo struct {
	ID          uint      `json:"id"`
	GinID       uint      `json:"gin_id"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Caption     string    `json:"caption"`
	IsPrimary   bool      `json:"is_primary"`
	Status      string    `json:"status"`
	SortOrder   int       `json:"sort_order"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadTicket 预签名上传凭证
type UploadTicket struct {
	Photo     *Photo `json:"photo"`
	UploadURL string `json:"upload_url"`
	Method    string `json:"method"`
}

type TastingEntry struct {
	ID      uint    `json:"id,omitempty"`
	GinID   uint    `json:"gin_id"`
	Tonic   string  `json:"tonic,omitempty"`
	Garnish string  `json:"garnish,omitempty"`
	Nose    string  `json:"nose,omitempty"`
	Palate  string  `json:"palate,omitempty"`
	Finish  string  `json:"finish,omitempty"`
	Rating  float64 `json:"rating"`
	Gin     *Gin    `json:"gin,omitempty"`
}

type TastingSession struct {
	ID        uint           `json:"id"`
	UserID    uint           `json:"user_id"`
	Title     string         `json:"title"`
	TastedAt  time.Time      `json:"tasted_at"`
	Location  string         `json:"location"`
	Notes     string         `json:"notes"`
	Entries   []TastingEntry `json:"entries"`
	CreatedAt time.Time      `json:"created_at"`
}

type TastingInput struct {
	Title    string         `json:"title"`
	TastedAt *time.Time     `json:"tasted_at,omitempty"`
	Location string         `json:"location,omitempty"`
	Notes    string         `json:"notes,omitempty"`
	Entries  []TastingEntry `json:"entries"`
}

type Subscription struct {
	ID               uint       `json:"id"`
	TenantID         uint       `json:"tenant_id"`
	Tier             string     `json:"tier"`
	Status           string     `json:"status"`
	Provider         string     `json:"provider"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	CancelAt         *time.Time `json:"cancel_at"`
}

type SubscriptionOverview struct {
	Subscription *Subscription `json:"subscription"`
	Limits       Limits        `json:"limits"`
	Usage        struct {
		Gins  int64 `json:"gins"`
		Users int64 `json:"users"`
	} `json:"usage"`
}

type TenantStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByTier   map[string]int64 `json:"by_tier"`
}

type TenantUpdate struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
	Tier   *string `json:"tier,omitempty"`
}
