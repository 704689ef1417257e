package main

import (
	"context"
	"io"
	"testing"

	"ginvault/internal/database"
	"ginvault/pkg/config"
	"ginvault/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
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

func TestSeedData_SkipWithoutAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	require.NoError(t, seedData(context.Background(), db, config.SeedConfig{AdminSubdomain: "admin"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedData_InvalidSubdomain(t *testing.T) {
	db, _ := newMockDB(t)
	err := seedData(context.Background(), db, config.SeedConfig{
		AdminSubdomain: "www",
		AdminEmail:     "root@example.com",
		AdminPassword:  "password123",
	})
	assert.Error(t, err)
}

func TestSeedData_Idempotent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subdomain", "tier", "status"}).AddRow(1, "admin", "enterprise", "active"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	err := seedData(context.Background(), db, config.SeedConfig{
		AdminSubdomain: "Admin",
		AdminEmail:     "Root@Example.com",
		AdminPassword:  "password123",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedData_CreatesTenantAndAdmin(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "tenants"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "subscriptions"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := seedData(context.Background(), db, config.SeedConfig{
		AdminSubdomain: "admin",
		AdminEmail:     "root@example.com",
		AdminPassword:  "password123",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
