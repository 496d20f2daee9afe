package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipify/internal/core/ai/cache"
	"recipify/internal/core/ai/service"
	"recipify/internal/core/batch"
	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 注入到 gin context 的鍵
const (
	KeyConfig    = "config"
	KeyAIService = "ai_service"
	KeyStorage   = "storage"
	KeyBatch     = "batch"
)

const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime"`
	Cache     *cache.Stats   `json:"cache,omitempty"`
	Batch     *batch.Status  `json:"batch,omitempty"`
	Storage   *StorageStatus `json:"storage,omitempty"`
}

// StorageStatus 資料庫狀態
type StorageStatus struct {
	Driver string `json:"driver"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, ok := c.Value(KeyConfig).(*config.Config)
	if !ok {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.Response(false))
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if svc, ok := c.Value(KeyAIService).(*service.Service); ok && svc != nil {
		if stats, enabled := svc.CacheStats(); enabled {
			response.Cache = &stats
		}
	}
	if runner, ok := c.Value(KeyBatch).(*batch.Runner); ok && runner != nil {
		st := runner.Status()
		response.Batch = &st
	}
	if store, ok := c.Value(KeyStorage).(*storage.Store); ok && store != nil {
		response.Storage = pingStorage(c.Request.Context(), store)
		if !response.Storage.OK {
			response.Status = "degraded"
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，資料庫無法連線時回傳 503
func ReadinessCheck(c *gin.Context) {
	store, ok := c.Value(KeyStorage).(*storage.Store)
	if !ok || store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": "storage not configured"})
		return
	}
	if st := pingStorage(c.Request.Context(), store); !st.OK {
		common.LogWarn("資料庫無法連線", zap.String("error", st.Error))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "storage": st})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "alive",
		"goroutines": runtime.NumGoroutine(),
	})
}

func pingStorage(ctx context.Context, store *storage.Store) *StorageStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	st := &StorageStatus{Driver: store.Driver(), OK: true}
	if err := store.Ping(ctx); err != nil {
		st.OK = false
		st.Error = err.Error()
	}
	return st
}
