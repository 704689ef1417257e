package services

import (
	"io"
	"testing"

	"ginvault/internal/database"
	"ginvault/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	l := logrus.New()
	l.SetOutput(io.Discard)
	logger.SetLogger(l)
}

// newMockDB gorm 连接 sqlmock，与生产配置一致，另外关闭默认事务
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := database.GormConfig(gormlogger.Default.LogMode(gormlogger.Silent))
	cfg.SkipDefaultTransaction = true
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)
	return db, mock
}

func tenantRows(id uint, subdomain, tier, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "subdomain", "tier", "status"}).
		AddRow(id, subdomain, subdomain, tier, status)
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}
