package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierLimits(t *testing.T) {
	free := TierLimits(TierFree)
	assert.Equal(t, 10, free.MaxGins)
	assert.Equal(t, 1, free.MaxPhotosPerGin)
	assert.False(t, free.TastingSessions)

	ent := TierLimits(TierEnterprise)
	assert.Equal(t, Unlimited, ent.MaxGins)
	assert.True(t, ent.Allows(ent.MaxGins, 1_000_000))

	assert.Equal(t, free, TierLimits("gold"))
}

func TestLimitsAllows(t *testing.T) {
	l := TierLimits(TierFree)
	assert.True(t, l.Allows(l.MaxGins, 9))
	assert.False(t, l.Allows(l.MaxGins, 10))
}

func TestTierRankAndFeatures(t *testing.T) {
	assert.Less(t, TierRank(TierFree), TierRank(TierBasic))
	assert.Less(t, TierRank(TierPro), TierRank(TierEnterprise))
	assert.Equal(t, -1, TierRank("gold"))

	assert.Equal(t, TierBasic, MinimumTierFor(FeatureTastingSessions))
	assert.Equal(t, TierPro, MinimumTierFor(FeatureExport))
	assert.Equal(t, TierBasic, NextTier(TierFree))
	assert.Equal(t, TierEnterprise, NextTier(TierEnterprise))
}

func TestIsValidSubdomain(t *testing.T) {
	assert.True(t, IsValidSubdomain("juniper-club"))
	assert.True(t, IsValidSubdomain("abc"))
	assert.False(t, IsValidSubdomain("ab"))
	assert.False(t, IsValidSubdomain("-abc"))
	assert.False(t, IsValidSubdomain("Abc"))
	assert.False(t, IsValidSubdomain("www"))
}

func TestFillBucketAndBotanicals(t *testing.T) {
	assert.Equal(t, FillEmpty, FillBucket(0))
	assert.Equal(t, FillLow, FillBucket(25))
	assert.Equal(t, FillHalf, FillBucket(26))
	assert.Equal(t, FillFull, FillBucket(100))

	g := &Gin{}
	assert.Empty(t, g.BotanicalList())
	assert.NoError(t, g.SetBotanicals([]string{"juniper", "coriander"}))
	assert.Equal(t, []string{"juniper", "coriander"}, g.BotanicalList())
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	assert.NoError(t, u.SetPassword("s3cret-pass"))
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))
}
