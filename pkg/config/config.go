package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Jobs      JobsConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	SecretKey       string        // JWT密钥
	Issuer          string        // 签发者
	TokenDuration   time.Duration // 访问令牌有效期
	RefreshDuration time.Duration // 刷新令牌有效期，支持 "7d"
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int    // MB
	MaxBackups int    // 保留的备份文件数
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩
	Format     string // json 或 text
}

type RedisConfig struct {
	Host     string // Redis主机地址
	Port     int    // Redis端口
	Password string // Redis密码
	DB       int    // Redis数据库编号
	Prefix   string // 键前缀
}

type CORSConfig struct {
	AllowOrigins     []string // 允许的源
	AllowMethods     []string // 允许的HTTP方法
	AllowHeaders     []string // 允许的请求头
	ExposeHeaders    []string // 暴露的响应头
	AllowCredentials bool     // 是否允许携带凭证
	MaxAge           int      // 预检请求缓存时间（小时）
}

// StorageConfig 照片对象存储（S3 / MinIO）
type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	PresignExpiry time.Duration
}

type RateLimitConfig struct {
	AuthRPS   float64 // 认证接口每秒请求数（按IP）
	AuthBurst int
}

type MetricsConfig struct {
	Enabled bool
	Prefix  string
}

// JobsConfig 定时任务的cron表达式
type JobsConfig struct {
	SubscriptionExpiryCron string
	PhotoPurgeCron         string
	PendingPhotoMaxAge     time.Duration
}

// SeedConfig 平台管理员种子数据，邮箱为空时跳过
type SeedConfig struct {
	AdminSubdomain string
	AdminEmail     string
	AdminPassword  string
}

// 全局配置实例和同步锁
var (
	globalConfig *Config
	once         sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		var err error
		globalConfig, err = LoadConfig()
		if err != nil {
			panic("Failed to load config: " + err.Error())
		}
	})
	return globalConfig
}

// 获取环境变量，如果不存在则使用默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// 获取环境变量转换为int
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// 获取环境变量转换为bool
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

// 获取环境变量转换为时长，解析失败使用默认值
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// 获取环境变量转换为字符串数组（逗号分隔）
func getEnvAsStringArray(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

// ParseDuration 在 time.ParseDuration 基础上支持 "d"（天）后缀，如 "7d"、"1d12h"
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "d"); idx > 0 {
		days, err := strconv.Atoi(value[:idx])
		if err != nil {
			return 0, err
		}
		total := time.Duration(days) * 24 * time.Hour
		rest := value[idx+1:]
		if rest == "" {
			return total, nil
		}
		extra, err := time.ParseDuration(rest)
		if err != nil {
			return 0, err
		}
		return total + extra, nil
	}
	return time.ParseDuration(value)
}

func LoadConfig() (*Config, error) {
	// .env 文件不存在时直接使用环境变量
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Mode:            getEnv("SERVER_MODE", "debug"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			DBName:       getEnv("DB_NAME", "ginvault"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", "default-secret-change-me"),
			Issuer:          getEnv("JWT_ISSUER", "GinVault"),
			TokenDuration:   getEnvAsDuration("JWT_TOKEN_DURATION", 15*time.Minute),
			RefreshDuration: getEnvAsDuration("JWT_REFRESH_DURATION", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/ginvault.log"),
			MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
			Format:     getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "ginvault"),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsStringArray("CORS_ALLOW_ORIGINS", []string{"*"}),
			AllowMethods:     getEnvAsStringArray("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			AllowHeaders:     getEnvAsStringArray("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Tenant-Subdomain"}),
			ExposeHeaders:    getEnvAsStringArray("CORS_EXPOSE_HEADERS", []string{"Content-Length", "Content-Type", "Content-Disposition"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 12),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("S3_ENDPOINT", "http://localhost:9000"),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Bucket:        getEnv("S3_BUCKET", "ginvault-photos"),
			AccessKey:     getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretKey:     getEnv("S3_SECRET_KEY", "minioadmin"),
			UsePathStyle:  getEnvAsBool("S3_USE_PATH_STYLE", true),
			PresignExpiry: getEnvAsDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   getEnvAsFloat("RATE_LIMIT_AUTH_RPS", 5),
			AuthBurst: getEnvAsInt("RATE_LIMIT_AUTH_BURST", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Prefix:  getEnv("METRICS_PREFIX", "ginvault"),
		},
		Jobs: JobsConfig{
			SubscriptionExpiryCron: getEnv("JOB_SUBSCRIPTION_EXPIRY_CRON", "@hourly"),
			PhotoPurgeCron:         getEnv("JOB_PHOTO_PURGE_CRON", "30 3 * * *"),
			PendingPhotoMaxAge:     getEnvAsDuration("JOB_PENDING_PHOTO_MAX_AGE", 24*time.Hour),
		},
		Seed: SeedConfig{
			AdminSubdomain: getEnv("SEED_ADMIN_SUBDOMAIN", "admin"),
			AdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	return config, nil
}
