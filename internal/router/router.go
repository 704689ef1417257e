package router

import (
	"ginvault/internal/handlers"
	"ginvault/internal/middleware"
	"ginvault/internal/models"
	"ginvault/internal/services"
	"ginvault/pkg/config"
	"ginvault/pkg/jwt"
	"ginvault/pkg/metrics"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
)

// Dependencies 路由依赖的服务，由 main 组装
type Dependencies struct {
	JWT           *jwt.JWTManager
	Auth          *services.AuthService
	Users         *services.UserService
	Tenants       *services.TenantService
	Gins          *services.GinService
	Photos        *services.PhotoService
	Tastings      *services.TastingService
	Subscriptions *services.SubscriptionService
	Export        *services.ExportService
	// Events 为空时不注册 WebSocket 路由
	Events      handlers.EventSubscriber
	AuthLimiter *middleware.RateLimiter
	Health      map[string]handlers.Pinger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	registerRoutes(router, cfg, deps)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, cfg *config.Config, deps *Dependencies) {
	auth := middleware.NewAuthMiddleware(deps.Users, deps.JWT)
	tenant := middleware.ResolveTenant(deps.Tenants)

	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	}

	api := router.Group("/api/v1")
	{
		healthHandler := handlers.NewHealthHandler(deps.Health)
		api.GET("/health", healthHandler.Health)

		// 认证，按IP限流
		authHandler := handlers.NewAuthHandler(deps.Auth)
		authGroup := api.Group("/auth", middleware.RateLimit(limiter))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}
		// 平台管理员没有租户上下文，/me 不解析租户
		api.GET("/auth/me", auth.RequireLogin(), authHandler.Me)

		// 以下路由都需要租户和登录
		scoped := api.Group("", tenant, auth.RequireLogin())

		ginHandler := handlers.NewGinHandler(deps.Gins, deps.Export)
		photoHandler := handlers.NewPhotoHandler(deps.Photos)
		gins := scoped.Group("/gins")
		{
			gins.GET("", ginHandler.List)
			gins.POST("", auth.RequireWrite(), ginHandler.Create)
			gins.GET("/stats", ginHandler.Stats)
			gins.GET("/export", middleware.RequireFeature(models.FeatureExport), ginHandler.Export)
			gins.GET("/barcode/:code", ginHandler.Barcode)
			gins.GET("/:id", ginHandler.Get)
			gins.PUT("/:id", auth.RequireWrite(), ginHandler.Update)
			gins.DELETE("/:id", auth.RequireWrite(), ginHandler.Delete)

			gins.GET("/:id/photos", photoHandler.List)
			gins.POST("/:id/photos", auth.RequireWrite(), photoHandler.RequestUpload)
			gins.POST("/:id/photos/:photo_id/confirm", auth.RequireWrite(), photoHandler.Confirm)
			gins.POST("/:id/photos/:photo_id/primary", auth.RequireWrite(), photoHandler.SetPrimary)
			gins.PUT("/:id/photos/:photo_id", auth.RequireWrite(), photoHandler.Update)
			gins.DELETE("/:id/photos/:photo_id", auth.RequireWrite(), photoHandler.Delete)
		}

		tastingHandler := handlers.NewTastingHandler(deps.Tastings)
		tastings := scoped.Group("/tastings", middleware.RequireFeature(models.FeatureTastingSessions))
		{
			tastings.GET("", tastingHandler.List)
			tastings.POST("", auth.RequireWrite(), tastingHandler.Create)
			tastings.GET("/:id", tastingHandler.Get)
			tastings.PUT("/:id", auth.RequireWrite(), tastingHandler.Update)
			tastings.DELETE("/:id", auth.RequireWrite(), tastingHandler.Delete)
		}

		subscriptionHandler := handlers.NewSubscriptionHandler(deps.Subscriptions)
		scoped.GET("/subscription", subscriptionHandler.Current)
		scoped.POST("/subscription/cancel", auth.RequireRole(models.RoleOwner), subscriptionHandler.Cancel)

		userHandler := handlers.NewUserHandler(deps.Users)
		users := scoped.Group("/users", auth.RequireRole(models.RoleOwner, models.RoleAdmin))
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.PUT("/:id/role", userHandler.UpdateRole)
			users.POST("/:id/activate", userHandler.Activate)
			users.POST("/:id/deactivate", userHandler.Deactivate)
			users.DELETE("/:id", userHandler.Delete)
		}

		if deps.Events != nil {
			eventsHandler := handlers.NewEventsHandler(deps.Events, cfg.CORS.AllowOrigins)
			scoped.GET("/events/ws", eventsHandler.Stream)
		}
	}

	// 平台管理
	adminHandler := handlers.NewAdminHandler(deps.Tenants, deps.Users)
	admin := router.Group("/admin/api/v1", auth.RequireLogin(), auth.RequirePlatformAdmin())
	{
		admin.GET("/tenants", adminHandler.ListTenants)
		admin.GET("/tenants/stats", adminHandler.TenantStats)
		admin.GET("/tenants/:id", adminHandler.GetTenant)
		admin.PUT("/tenants/:id", adminHandler.UpdateTenant)
		admin.PUT("/tenants/:id/tier", adminHandler.ChangeTier)
		admin.DELETE("/tenants/:id", adminHandler.DeleteTenant)

		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/activate", adminHandler.ActivateUser)
		admin.POST("/users/:id/deactivate", adminHandler.DeactivateUser)
	}
}
