package models

// 订阅套餐
const (
	TierFree       = "free"
	TierBasic      = "basic"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// 套餐功能
const (
	FeatureTastingSessions = "tasting_sessions"
	FeatureExport          = "export"
)

// Unlimited 表示不限数量
const Unlimited = -1

// Limits 套餐限制
type Limits struct {
	Tier            string `json:"tier"`
	MaxGins         int    `json:"max_gins"`
	MaxPhotosPerGin int    `json:"max_photos_per_gin"`
	MaxUsers        int    `json:"max_users"`
	TastingSessions bool   `json:"tasting_sessions"`
	Export          bool   `json:"export"`
}

var tierLimits = map[string]Limits{
	TierFree:       {Tier: TierFree, MaxGins: 10, MaxPhotosPerGin: 1, MaxUsers: 1},
	TierBasic:      {Tier: TierBasic, MaxGins: 100, MaxPhotosPerGin: 3, MaxUsers: 3, TastingSessions: true},
	TierPro:        {Tier: TierPro, MaxGins: 1000, MaxPhotosPerGin: 10, MaxUsers: 10, TastingSessions: true, Export: true},
	TierEnterprise: {Tier: TierEnterprise, MaxGins: Unlimited, MaxPhotosPerGin: 50, MaxUsers: Unlimited, TastingSessions: true, Export: true},
}

var tierOrder = []string{TierFree, TierBasic, TierPro, TierEnterprise}

// TierLimits 返回套餐限制，未知套餐按 free 处理
func TierLimits(tier string) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// IsValidTier 检查套餐名是否有效
func IsValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// TierRank 套餐等级，越大越高，未知为 -1
func TierRank(tier string) int {
	for i, t := range tierOrder {
		if t == tier {
			return i
		}
	}
	return -1
}

// Allows 数量是否仍在限制内，current 为创建前的数量
func (l Limits) Allows(limit, current int) bool {
	return limit == Unlimited || current < limit
}

// HasFeature 套餐是否包含功能
func (l Limits) HasFeature(feature string) bool {
	switch feature {
	case FeatureTastingSessions:
		return l.TastingSessions
	case FeatureExport:
		return l.Export
	default:
		return false
	}
}

// MinimumTierFor 包含某功能的最低套餐
func MinimumTierFor(feature string) string {
	for _, t := range tierOrder {
		if tierLimits[t].HasFeature(feature) {
			return t
		}
	}
	return TierEnterprise
}

// NextTier 上一档套餐，已是最高档时返回自身
func NextTier(tier string) string {
	r := TierRank(tier)
	if r < 0 {
		return TierBasic
	}
	if r+1 < len(tierOrder) {
		return tierOrder[r+1]
	}
	return tier
}
