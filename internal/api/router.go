package api

import (
	"context"
	"time"

	"recipify/internal/api/handlers"
	"recipify/internal/api/handlers/health"
	recipeHandler "recipify/internal/api/handlers/recipe"
	"recipify/internal/api/middleware"
	"recipify/internal/core/ai/chat"
	"recipify/internal/core/ai/service"
	"recipify/internal/core/batch"
	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (10MB)
	maxBodySize = 10 << 20
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Store    *storage.Store
	Parser   batch.Parser
	Batch    *batch.Runner
	AI       *service.Service
	Settings chat.SettingsSource
}

// SetupRouter 設置路由，ctx 結束時停止去重清理
func SetupRouter(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Timeout(timeoutDuration))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 注入服務供健康檢查使用
	router.Use(func(c *gin.Context) {
		c.Set(health.KeyConfig, cfg)
		c.Set(health.KeyAIService, deps.AI)
		c.Set(health.KeyStorage, deps.Store)
		c.Set(health.KeyBatch, deps.Batch)
		c.Next()
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	go func() {
		<-ctx.Done()
		dedup.Close()
	}()

	recipes := recipeHandler.NewHandler(deps.Parser, deps.Batch, deps.Store, cfg.App.Debug)
	settings := handlers.NewSettingsHandler(deps.Store, deps.Settings, cfg.App.Debug)

	// API 路由組
	api := router.Group("/api/v1")
	{
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/parse", dedup.Handler(), recipes.HandleParse)
			recipeGroup.POST("/parse/batch", dedup.Handler(), recipes.HandleParseBatch)
			recipeGroup.POST("", recipes.HandleCreate)
			recipeGroup.GET("", recipes.HandleList)
			recipeGroup.GET("/export", recipes.HandleExport)
			recipeGroup.GET("/:id", recipes.HandleGet)
			recipeGroup.DELETE("/:id", recipes.HandleDelete)
		}

		api.POST("/units/format", handlers.HandleFormatUnits)

		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("/llm", settings.Get)
			settingsGroup.PUT("/llm", settings.Update)
			settingsGroup.DELETE("/llm", settings.Clear)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int("batch_workers", cfg.Queue.Workers),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}
