package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"recipify/internal/infrastructure/config"
)

// ErrMiss 快取中沒有這個鍵
var ErrMiss = errors.New("cache miss")

// Stats 快取統計
type Stats struct {
	Backend   string  `json:"backend"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size,omitempty"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Errors    int64   `json:"errors"`
	HitRatio  float64 `json:"hit_ratio"`
}

// Store 模型回應的快取後端
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Stats() Stats
	Close() error
}

// Key 以供應商、模型與提示計算快取鍵
func Key(provider, model, prompt string) string {
	hash := sha256.Sum256([]byte(provider + "|" + model + "|" + prompt))
	return hex.EncodeToString(hash[:])
}

// New 依設定建立快取，停用時回傳 nil
func New(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "", "memory":
		return NewManager(cfg.MaxSize, cfg.TTL, cfg.CleanupInterval), nil
	case "redis":
		return NewRedisStore(cfg.Redis, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
