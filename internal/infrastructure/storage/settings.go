package storage

import (
	"context"
	"fmt"
	"strings"

	"recipify/internal/core/ai/chat"
	"recipify/internal/pkg/common"
)

const (
	keyProvider = "llm_provider"
	keyModel    = "llm_model"
	keyBaseURL  = "llm_baseurl"
	keyAPIKey   = "llm_apikey"
)

// LLMSettingsUpdate 部分更新，nil 代表不變；ClearAPIKey 會刪除已保存的金鑰
type LLMSettingsUpdate struct {
	Provider    *string
	Model       *string
	BaseURL     *string
	APIKey      *string
	ClearAPIKey bool
}

// LoadLLMSettings 讀取已保存的設定，未保存的欄位為空字串
func (s *Store) LoadLLMSettings(ctx context.Context) (chat.Settings, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT key, value FROM settings WHERE key IN (?,?,?,?)`),
		keyProvider, keyModel, keyBaseURL, keyAPIKey)
	if err != nil {
		return chat.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	var out chat.Settings
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return chat.Settings{}, fmt.Errorf("scan setting: %w", err)
		}
		switch k {
		case keyProvider:
			out.Provider = v
		case keyModel:
			out.Model = v
		case keyBaseURL:
			out.BaseURL = v
		case keyAPIKey:
			out.APIKey = v
		}
	}
	return out, rows.Err()
}

// SaveLLMSettings 保存部分設定，空的 provider 會被忽略
func (s *Store) SaveLLMSettings(ctx context.Context, upd LLMSettingsUpdate) error {
	if upd.Provider != nil && *upd.Provider != "" && !chat.IsSupportedProvider(*upd.Provider) {
		return common.NewValidationError("unsupported provider %q", *upd.Provider)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	set := func(key, value string) error {
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
		if err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
		return nil
	}

	if upd.Provider != nil && *upd.Provider != "" {
		if err := set(keyProvider, strings.ToLower(strings.TrimSpace(*upd.Provider))); err != nil {
			return err
		}
	}
	if upd.Model != nil {
		if err := set(keyModel, *upd.Model); err != nil {
			return err
		}
	}
	if upd.BaseURL != nil {
		if err := set(keyBaseURL, *upd.BaseURL); err != nil {
			return err
		}
	}
	switch {
	case upd.ClearAPIKey:
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM settings WHERE key = ?`), keyAPIKey); err != nil {
			return fmt.Errorf("clear api key: %w", err)
		}
	case upd.APIKey != nil:
		if err := set(keyAPIKey, *upd.APIKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearLLMSettings 刪除所有已保存的模型設定
func (s *Store) ClearLLMSettings(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM settings WHERE key IN (?,?,?,?)`),
		keyProvider, keyModel, keyBaseURL, keyAPIKey)
	if err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

// SettingsSource 以資料庫中的設定覆蓋配置檔的設定
type SettingsSource struct {
	store *Store
	base  chat.Settings
}

// NewSettingsSource 創建設定來源
func NewSettingsSource(store *Store, base chat.Settings) *SettingsSource {
	return &SettingsSource{store: store, base: base}
}

// LLMSettings 實作 chat.SettingsSource
func (s *SettingsSource) LLMSettings(ctx context.Context) (chat.Settings, error) {
	stored, err := s.store.LoadLLMSettings(ctx)
	if err != nil {
		return chat.Settings{}, err
	}
	out := s.base
	if stored.Provider != "" {
		out.Provider = stored.Provider
	}
	if stored.Model != "" {
		out.Model = stored.Model
	}
	if stored.BaseURL != "" {
		out.BaseURL = stored.BaseURL
	}
	if stored.APIKey != "" {
		out.APIKey = stored.APIKey
	}
	return out, nil
}
