package database

import (
	"fmt"
	"time"

	"ginvault/pkg/config"
	"ginvault/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 全局数据库连接
var DB *gorm.DB

// Initialize 连接数据库并配置连接池
func Initialize(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password,
		cfg.Database.DBName, cfg.Database.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig(newGormLogger(cfg.Server.Mode)))
	if err != nil {
		return fmt.Errorf("连接数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.GetLogger().Infof("Database connected: %s:%s/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	return nil
}

// GormConfig gorm 公共配置
// 打开 TranslateError 后唯一约束冲突(23505)返回 gorm.ErrDuplicatedKey，外键冲突返回 gorm.ErrForeignKeyViolated
func GormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         l,
		TranslateError: true,
	}
}

// SQL日志写入 logrus，debug 模式输出全部语句，其余只记录慢查询和错误
func newGormLogger(mode string) gormlogger.Interface {
	level := gormlogger.Warn
	if mode == "debug" {
		level = gormlogger.Info
	}
	return gormlogger.New(logger.GetLogger(), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

// Close 关闭数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
