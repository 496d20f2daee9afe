package chat

import (
	"context"
	"strings"

	"recipify/internal/infrastructure/config"
)

// 支援的模型供應商
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

const (
	defaultAppURL    = "http://localhost"
	defaultAppTitle  = "Recipify"
	defaultMaxTokens = 2048
)

var providerDefaults = map[string]struct {
	label   string
	baseURL string
	model   string
}{
	ProviderOpenRouter: {"OpenRouter", "https://openrouter.ai/api/v1/chat/completions", "meta-llama/llama-3.3-8b-instruct:free"},
	ProviderOpenAI:     {"OpenAI", "https://api.openai.com/v1/chat/completions", "gpt-4o-mini"},
}

// Settings 單次呼叫使用的供應商設定，空值代表使用預設
type Settings struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey,omitempty"`
	Model     string `json:"model,omitempty"`
	BaseURL   string `json:"baseUrl,omitempty"`
	AppURL    string `json:"appUrl,omitempty"`
	AppTitle  string `json:"appTitle,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// SettingsSource 每次呼叫前讀取設定
type SettingsSource interface {
	LLMSettings(ctx context.Context) (Settings, error)
}

// StaticSettings 固定不變的設定
type StaticSettings Settings

// LLMSettings 實作 SettingsSource
func (s StaticSettings) LLMSettings(context.Context) (Settings, error) {
	return Settings(s), nil
}

// FromConfig 由應用配置建立設定
func FromConfig(cfg config.LLMConfig) Settings {
	return Settings{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		AppURL:    cfg.AppURL,
		AppTitle:  cfg.AppTitle,
		MaxTokens: cfg.MaxTokens,
	}
}

// IsSupportedProvider 檢查供應商名稱
func IsSupportedProvider(p string) bool {
	_, ok := providerDefaults[strings.ToLower(strings.TrimSpace(p))]
	return ok
}

// WithDefaults 補上供應商預設的 model、endpoint 與標頭資訊
func (s Settings) WithDefaults() Settings {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = ProviderOpenRouter
	}
	s.APIKey = strings.TrimSpace(s.APIKey)
	if d, ok := providerDefaults[s.Provider]; ok {
		if s.Model == "" {
			s.Model = d.model
		}
		if s.BaseURL == "" {
			s.BaseURL = d.baseURL
		}
	}
	if s.AppURL == "" {
		s.AppURL = defaultAppURL
	}
	if s.AppTitle == "" {
		s.AppTitle = defaultAppTitle
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultMaxTokens
	}
	return s
}

// Label 錯誤訊息用的供應商名稱
func (s Settings) Label() string {
	if d, ok := providerDefaults[s.Provider]; ok {
		return d.label
	}
	return s.Provider
}
