package api

import (
	"time"

	"ulam-ai/internal/api/handlers/health"
	recipeHandler "ulam-ai/internal/api/handlers/recipe"
	"ulam-ai/internal/api/middleware"
	"ulam-ai/internal/core/account"
	"ulam-ai/internal/core/orchestrator"
	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Sessions *orchestrator.Manager
	Scanner  recipeHandler.Scanner
	Accounts *account.Service
	Stats    health.StatsSource
	Checks   map[string]health.Checker
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Metrics())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Stats, deps.Sessions.Len, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	// 會觸發 AI 呼叫的路由才去重
	dedup := middleware.Deduplication(cfg.DedupWindow)

	h := recipeHandler.NewHandler(deps.Sessions, deps.Scanner, deps.Accounts, cfg.App.Debug)
	{
		api.GET("/featured", h.Featured)

		sessionGroup := api.Group("/sessions")
		{
			sessionGroup.POST("", h.CreateSession)
			sessionGroup.GET("/:id", h.GetSession)
			sessionGroup.POST("/:id/reset", h.Reset)
			sessionGroup.GET("/:id/recent", h.Recent)

			// 食材櫃
			sessionGroup.GET("/:id/pantry", h.ListPantry)
			sessionGroup.POST("/:id/pantry", h.AddIngredients)
			sessionGroup.DELETE("/:id/pantry", h.ClearPantry)
			sessionGroup.DELETE("/:id/pantry/:index", h.RemoveIngredient)
			sessionGroup.POST("/:id/pantry/scan", dedup, h.ScanIngredients)

			// 推薦與選取
			sessionGroup.POST("/:id/suggestions", dedup, h.Suggest)
			sessionGroup.POST("/:id/selection", h.Select)
			sessionGroup.POST("/:id/save", h.ToggleSave)
		}

		savedGroup := api.Group("/saved")
		{
			savedGroup.GET("", h.ListSaved)
			savedGroup.DELETE("/:id", h.DeleteSaved)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return router
}
