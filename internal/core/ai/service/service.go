package service

import (
	"context"
	"errors"

	"recipify/internal/core/ai/cache"
	"recipify/internal/core/ai/chat"
	"recipify/internal/pkg/common"

	"go.uber.org/zap"
)

// ChatClient 解析設定並送出提示的模型客戶端
type ChatClient interface {
	Resolve(ctx context.Context) (chat.Settings, error)
	Send(ctx context.Context, s chat.Settings, prompt string) (string, error)
}

// Service 在模型客戶端前加上回應快取，實作 recipe.ChatSender
type Service struct {
	client ChatClient
	cache  cache.Store
}

// NewService 創建 AI 服務，store 為 nil 時不使用快取
func NewService(client ChatClient, store cache.Store) *Service {
	return &Service{client: client, cache: store}
}

// SendChat 先查快取，未命中時呼叫模型，只保存成功的回應
func (s *Service) SendChat(ctx context.Context, prompt string) (string, error) {
	settings, err := s.client.Resolve(ctx)
	if err != nil {
		return "", err
	}

	if s.cache == nil {
		return s.client.Send(ctx, settings, prompt)
	}

	key := cache.Key(settings.Provider, settings.Model, prompt)
	if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
		return val, nil
	} else if err != nil && !errors.Is(err, cache.ErrMiss) {
		common.LogWarn("快取讀取失敗", zap.Error(err))
	}

	content, err := s.client.Send(ctx, settings, prompt)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key, content); err != nil {
		common.LogWarn("快取寫入失敗", zap.Error(err))
	}
	return content, nil
}

// CacheStats 回傳快取統計，未啟用時 ok 為 false
func (s *Service) CacheStats() (cache.Stats, bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}
