package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ginvault/internal/database"
	"ginvault/internal/handlers"
	"ginvault/internal/middleware"
	"ginvault/internal/router"
	"ginvault/internal/services"
	"ginvault/pkg/config"
	"ginvault/pkg/events"
	"ginvault/pkg/jwt"
	"ginvault/pkg/logger"
	"ginvault/pkg/metrics"
	"ginvault/pkg/storage"
	"ginvault/pkg/tokenstore"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting GinVault...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRedis(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := seedData(context.Background(), database.GetDB(), cfg.Seed); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	// Redis 承载刷新令牌和事件推送，启动时必须可用
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = database.PingRedis(pingCtx)
	cancelPing()
	if err != nil {
		appLogger.Fatalf("Failed to connect Redis: %v", err)
	}
	redisClient := database.GetRedis()

	store, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		appLogger.Fatalf("Failed to initialize object storage: %v", err)
	}

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Prefix)
	}
	if err := handlers.RegisterValidators(); err != nil {
		appLogger.Fatalf("Failed to register validators: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	db := database.GetDB()
	jwtManager := jwt.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.TokenDuration)
	tokens := tokenstore.NewRedisStore(redisClient, cfg.Redis.Prefix)
	publisher := events.NewRedisPublisher(redisClient, cfg.Redis.Prefix)

	subscriptionService := services.NewSubscriptionService(db, publisher)
	photoService := services.NewPhotoService(db, store, publisher)
	userService := services.NewUserService(db, tokens)

	// 维护任务调度器
	scheduler := services.NewMaintenanceScheduler(cfg.Jobs, subscriptionService, photoService)
	if err := scheduler.Start(); err != nil {
		appLogger.Errorf("Failed to start maintenance scheduler: %v", err)
		// 不影响主服务启动
	}
	defer scheduler.Stop()

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	authLimiter.StartCleanup(10*time.Minute, stopCleanup)

	r := router.SetupRouter(cfg, &router.Dependencies{
		JWT:           jwtManager,
		Auth:          services.NewAuthService(db, jwtManager, tokens, cfg.JWT.RefreshDuration),
		Users:         userService,
		Tenants:       services.NewTenantService(db, store, subscriptionService),
		Gins:          services.NewGinService(db, store, publisher),
		Photos:        photoService,
		Tastings:      services.NewTastingService(db, publisher),
		Subscriptions: subscriptionService,
		Export:        services.NewExportService(db),
		Events:        publisher,
		AuthLimiter:   authLimiter,
		Health: map[string]handlers.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": database.PingRedis,
		},
	})

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
