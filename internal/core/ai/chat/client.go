package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipify/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request chat completion 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Client OpenAI 相容的 chat completion 客戶端，每次呼叫只送出一個請求
type Client struct {
	http     *resty.Client
	settings SettingsSource
}

// NewClient 創建新的客戶端，timeout 為 0 代表不限制
func NewClient(settings SettingsSource, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{http: httpClient, settings: settings}
}

// Resolve 讀取設定並補上預設值，缺少 API key 時回傳 ConfigurationError
func (c *Client) Resolve(ctx context.Context) (Settings, error) {
	raw, err := c.settings.LLMSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load llm settings: %w", err)
	}
	s := raw.WithDefaults()
	if _, ok := providerDefaults[s.Provider]; !ok {
		return s, &common.ConfigurationError{Message: fmt.Sprintf("Unsupported LLM provider %q", s.Provider)}
	}
	if s.APIKey == "" {
		return s, &common.ConfigurationError{Message: fmt.Sprintf("Missing %s API key", strings.ToUpper(s.Provider))}
	}
	return s, nil
}

// SendChat 送出提示並回傳第一個 choice 的文字內容
func (c *Client) SendChat(ctx context.Context, prompt string) (string, error) {
	s, err := c.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return c.Send(ctx, s, prompt)
}

// Send 使用已解析的設定送出提示
func (c *Client) Send(ctx context.Context, s Settings, prompt string) (string, error) {
	start := time.Now()
	content, err := c.send(ctx, s, prompt)
	common.LogModelCall(s.Provider, s.Model, time.Since(start), err)
	return content, err
}

func (c *Client) send(ctx context.Context, s Settings, prompt string) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(s.APIKey).
		SetBody(buildRequest(s, prompt))

	if s.Provider == ProviderOpenRouter {
		req.SetHeader("HTTP-Referer", s.AppURL).
			SetHeader("X-Title", s.AppTitle)
	}

	resp, err := req.Post(s.BaseURL)
	if err != nil {
		return "", &common.TransportError{
			Message: fmt.Sprintf("%s request failed: %v", s.Label(), err),
			Err:     err,
		}
	}

	bodyText := string(resp.Body())
	var payload any
	if err := common.ParseJSONBytes(resp.Body(), &payload); err != nil {
		return "", &common.MalformedResponseError{
			Message: fmt.Sprintf("%s returned non-JSON", s.Label()),
			Preview: common.Preview(bodyText, common.PreviewLength),
		}
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		common.LogWarn("模型服務回傳錯誤狀態",
			zap.String("provider", s.Provider),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", &common.TransportError{
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("%s %d: %s", s.Label(), resp.StatusCode(), errorMessage(payload, bodyText)),
		}
	}

	content, ok := firstContent(payload)
	if !ok || strings.TrimSpace(content) == "" {
		return "", &common.MalformedResponseError{
			Message: fmt.Sprintf("No content in %s response", s.Label()),
			Preview: common.Preview(bodyText, common.PreviewLength),
		}
	}
	return content, nil
}

// buildRequest OpenRouter 只送最小欄位，其他供應商加上 max_tokens 與 temperature 0
func buildRequest(s Settings, prompt string) Request {
	req := Request{
		Model:    s.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
	if s.Provider != ProviderOpenRouter {
		zero := 0.0
		req.MaxTokens = s.MaxTokens
		req.Temperature = &zero
	}
	return req
}

// errorMessage 依序取 error.message、message，最後使用原始內容
func errorMessage(payload any, bodyText string) string {
	obj, _ := payload.(map[string]any)
	if e, ok := obj["error"].(map[string]any); ok {
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	return bodyText
}

func firstContent(payload any) (string, bool) {
	obj, _ := payload.(map[string]any)
	choices, _ := obj["choices"].([]any)
	if len(choices) == 0 {
		return "", false
	}
	choice, _ := choices[0].(map[string]any)
	msg, _ := choice["message"].(map[string]any)
	content, ok := msg["content"].(string)
	return content, ok
}

// Close 關閉閒置連線
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}
