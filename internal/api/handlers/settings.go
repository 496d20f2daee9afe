package handlers

import (
	"encoding/json"
	"net/http"

	"recipify/internal/core/ai/chat"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LLMSettingsResponse 目前生效的模型設定，金鑰已遮罩
type LLMSettingsResponse struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	BaseURL   string `json:"baseUrl"`
	APIKey    string `json:"apiKey"`
	HasAPIKey bool   `json:"hasApiKey"`
}

// SettingsHandler 模型設定的讀取、部分更新與清除
type SettingsHandler struct {
	store  *storage.Store
	source chat.SettingsSource
	debug  bool
}

// NewSettingsHandler 創建設定處理器，source 用來計算生效的設定
func NewSettingsHandler(store *storage.Store, source chat.SettingsSource, debug bool) *SettingsHandler {
	return &SettingsHandler{store: store, source: source, debug: debug}
}

// Get 讀取設定
func (h *SettingsHandler) Get(c *gin.Context) {
	resp, err := h.effective(c)
	if err != nil {
		RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update 部分更新；欄位缺席代表不變，apiKey 為 null 代表刪除已保存的金鑰
func (h *SettingsHandler) Update(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		BadRequest(c, err, h.debug)
		return
	}

	var upd storage.LLMSettingsUpdate
	fields := []struct {
		name string
		dst  **string
	}{
		{"provider", &upd.Provider},
		{"model", &upd.Model},
		{"baseUrl", &upd.BaseURL},
		{"apiKey", &upd.APIKey},
	}
	for _, f := range fields {
		msg, ok := raw[f.name]
		if !ok {
			continue
		}
		if string(msg) == "null" {
			if f.name == "apiKey" {
				upd.ClearAPIKey = true
			} else {
				empty := ""
				*f.dst = &empty
			}
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			RespondError(c, common.NewValidationError("%s must be a string", f.name), h.debug)
			return
		}
		*f.dst = &s
	}

	if err := h.store.SaveLLMSettings(c.Request.Context(), upd); err != nil {
		RespondError(c, err, h.debug)
		return
	}
	common.LogInfo("模型設定已更新",
		zap.Bool("provider_changed", upd.Provider != nil),
		zap.Bool("model_changed", upd.Model != nil),
		zap.Bool("key_changed", upd.APIKey != nil || upd.ClearAPIKey),
	)
	h.Get(c)
}

// Clear 刪除所有已保存的設定，回到配置檔的值
func (h *SettingsHandler) Clear(c *gin.Context) {
	if err := h.store.ClearLLMSettings(c.Request.Context()); err != nil {
		RespondError(c, err, h.debug)
		return
	}
	common.LogInfo("模型設定已清除")
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) effective(c *gin.Context) (LLMSettingsResponse, error) {
	s, err := h.source.LLMSettings(c.Request.Context())
	if err != nil {
		return LLMSettingsResponse{}, err
	}
	s = s.WithDefaults()
	return LLMSettingsResponse{
		Provider:  s.Provider,
		Model:     s.Model,
		BaseURL:   s.BaseURL,
		APIKey:    common.MaskSecret(s.APIKey),
		HasAPIKey: s.APIKey != "",
	}, nil
}
