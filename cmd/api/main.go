package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ulam-ai/internal/api"
	"ulam-ai/internal/api/handlers/health"
	"ulam-ai/internal/core/account"
	"ulam-ai/internal/core/ai/cache"
	aiImage "ulam-ai/internal/core/ai/image"
	"ulam-ai/internal/core/ai/openrouter"
	"ulam-ai/internal/core/ai/queue"
	"ulam-ai/internal/core/ai/service"
	"ulam-ai/internal/core/image"
	"ulam-ai/internal/core/orchestrator"
	"ulam-ai/internal/core/recipe"
	"ulam-ai/internal/core/resultcache"
	"ulam-ai/internal/core/store"
	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("image_search", cfg.ImageSearch.Configured()),
	)

	// 文件儲存與本機結果快取
	docs, err := store.New(&cfg.Store)
	if err != nil {
		common.LogFatal("Failed to initialize document store", zap.Error(err))
	}
	defer docs.Close()

	results, err := resultcache.New(docs, cfg.Cache.DocumentKey, cfg.Cache.MaxEntries)
	if err != nil {
		common.LogFatal("Failed to initialize result cache", zap.Error(err))
	}

	// AI 服務
	aiService := service.NewService(
		openrouter.NewClient(&cfg.OpenRouter),
		cache.NewManager(&cfg.AICache),
		queue.NewManager(&cfg.Queue),
	)
	defer aiService.Close()

	images := image.NewService(&cfg.ImageSearch, &cfg.StockPhoto, cfg.Oracle.Cuisine)
	base := recipe.NewService(aiService, &cfg.Oracle)
	suggestions := recipe.NewSuggestionService(base, images)
	details := recipe.NewDetailService(base)
	ingredients := recipe.NewIngredientService(base, aiImage.NewProcessor(cfg.Oracle.ScanMaxBytes))

	// 收藏資料庫
	db, err := account.OpenDatabase(&cfg.Database)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	accountStore, err := account.NewStore(db)
	if err != nil {
		common.LogFatal("Failed to initialize account store", zap.Error(err))
	}
	defer accountStore.Close()

	verifier := account.NewVerifier(&cfg.Auth)
	if verifier == nil {
		common.LogWarn("未設定 AUTH_JWT_SECRET，收藏功能將拒絕所有權杖")
	}
	accounts := account.NewService(accountStore, verifier)

	// 會話
	sessions := orchestrator.NewManager(&orchestrator.Deps{
		Suggester:     suggestions,
		Details:       details,
		Images:        images,
		Cache:         results,
		DetailTimeout: cfg.Oracle.DetailTimeout,
		ImageTimeout:  imageBudget(cfg),
	}, docs, cfg.Session.TTL)
	sessions.StartCleanup(cfg.Session.CleanupInterval)
	defer sessions.Close()

	// 設置路由
	router := api.SetupRouter(cfg, &api.Dependencies{
		Sessions: sessions,
		Scanner:  ingredients,
		Accounts: accounts,
		Stats:    aiService,
		Checks: map[string]health.Checker{
			"database": accounts.Ping,
		},
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// imageBudget 圖片解析整體時間上限：每個搜尋查詢加上驗證，再加上圖庫備援
func imageBudget(cfg *config.Config) time.Duration {
	search := cfg.ImageSearch
	perQuery := search.QueryTimeout + time.Duration(search.ResultsPerQuery)*search.VerifyTimeout
	return time.Duration(search.MaxQueries)*perQuery + cfg.StockPhoto.Timeout + search.VerifyTimeout
}
