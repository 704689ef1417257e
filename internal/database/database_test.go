package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormConfig_TranslatesErrors(t *testing.T) {
	l := gormlogger.Default.LogMode(gormlogger.Silent)
	cfg := GormConfig(l)
	assert.True(t, cfg.TranslateError)
	assert.Equal(t, l, cfg.Logger)
	assert.False(t, cfg.SkipDefaultTransaction)
}
