package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipify/internal/api"
	"recipify/internal/core/ai/cache"
	"recipify/internal/core/ai/chat"
	"recipify/internal/core/ai/service"
	"recipify/internal/core/batch"
	"recipify/internal/core/recipe"
	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("llm_key", common.MaskSecret(cfg.LLM.APIKey)),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		common.LogFatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		common.LogFatal("Failed to initialize storage", zap.Error(err))
	}

	// 只在快取開啟但初始化失敗時才 Fatal
	cacheStore, err := cache.New(cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if cacheStore != nil {
		defer cacheStore.Close()
	}

	settings := storage.NewSettingsSource(store, chat.FromConfig(cfg.LLM))
	client := chat.NewClient(settings, cfg.LLM.Timeout)
	defer client.Close()

	aiService := service.NewService(client, cacheStore)
	parser := recipe.NewParser(aiService, recipe.ParserOptions{
		BalancedFallback: cfg.Parser.BalancedFallback,
		RepairJSON:       cfg.Parser.RepairJSON,
	})
	runner := batch.NewRunner(parser, cfg.Queue.Workers, cfg.Queue.MaxSize)

	router := api.SetupRouter(ctx, cfg, api.Dependencies{
		Store:    store,
		Parser:   parser,
		Batch:    runner,
		AI:       aiService,
		Settings: settings,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
