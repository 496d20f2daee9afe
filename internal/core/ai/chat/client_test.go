package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipify/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	header http.Header
	body   map[string]any
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newClient(s Settings) *Client {
	return NewClient(StaticSettings(s), 5*time.Second)
}

const okReply = `{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"Tea\"}"}}]}`

func TestSendChatOpenRouter(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, okReply)
	c := newClient(Settings{APIKey: "sk-or-test", BaseURL: srv.URL, AppURL: "https://recipify.app"})

	content, err := c.SendChat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Tea"}`, content)

	assert.Equal(t, "Bearer sk-or-test", got.header.Get("Authorization"))
	assert.Equal(t, "https://recipify.app", got.header.Get("HTTP-Referer"))
	assert.Equal(t, "Recipify", got.header.Get("X-Title"))
	assert.Equal(t, map[string]any{
		"model":    "meta-llama/llama-3.3-8b-instruct:free",
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	}, got.body)
}

func TestSendChatOpenAIShape(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, okReply)
	c := newClient(Settings{Provider: "OpenAI", APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 512})

	_, err := c.SendChat(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.body["model"])
	assert.Equal(t, 512.0, got.body["max_tokens"])
	assert.Equal(t, 0.0, got.body["temperature"])
	assert.Empty(t, got.header.Get("X-Title"))
}

func TestSendChatMissingKey(t *testing.T) {
	c := newClient(Settings{Provider: "openrouter", APIKey: "  "})

	_, err := c.SendChat(context.Background(), "hello")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Equal(t, "Missing OPENROUTER API key", err.Error())
}

func TestSendChatUnsupportedProvider(t *testing.T) {
	c := newClient(Settings{Provider: "gemini", APIKey: "k"})

	_, err := c.SendChat(context.Background(), "hello")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestSendChatErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		reply    string
		sentinel error
		contains string
	}{
		{"non json body", http.StatusOK, "<html>oops</html>", common.ErrMalformedResponse, "OpenRouter returned non-JSON: <html>oops</html>"},
		{"error message field", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, common.ErrTransport, "OpenRouter 401: No auth credentials found"},
		{"top level message", http.StatusBadRequest, `{"message":"model not found"}`, common.ErrTransport, "OpenRouter 400: model not found"},
		{"raw body fallback", http.StatusInternalServerError, `{"detail":"boom"}`, common.ErrTransport, `OpenRouter 500: {"detail":"boom"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`, common.ErrMalformedResponse, "No content in OpenRouter response"},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, common.ErrMalformedResponse, "No content in OpenRouter response"},
		{"content not a string", http.StatusOK, `{"choices":[{"message":{"content":null}}]}`, common.ErrMalformedResponse, "No content in OpenRouter response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.reply)
			c := newClient(Settings{APIKey: "k", BaseURL: srv.URL})

			content, err := c.SendChat(context.Background(), "hello")
			assert.Empty(t, content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSendChatStatusCode(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`)
	c := newClient(Settings{APIKey: "k", BaseURL: srv.URL})

	_, err := c.SendChat(context.Background(), "hello")
	var te *common.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
}

func TestSendChatPreviewTruncated(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, strings.Repeat("é", 500))
	c := newClient(Settings{APIKey: "k", BaseURL: srv.URL})

	_, err := c.SendChat(context.Background(), "hello")
	var me *common.MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, common.PreviewLength, len([]rune(me.Preview)))
}

func TestSendChatNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(Settings{APIKey: "k", BaseURL: url})
	_, err := c.SendChat(context.Background(), "hello")
	assert.True(t, errors.Is(err, common.ErrTransport))

	var te *common.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}

func TestSendChatCanceled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, okReply)
	c := newClient(Settings{APIKey: "k", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendChat(ctx, "hello")
	assert.True(t, errors.Is(err, common.ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWithDefaults(t *testing.T) {
	s := Settings{}.WithDefaults()
	assert.Equal(t, ProviderOpenRouter, s.Provider)
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", s.BaseURL)
	assert.Equal(t, "http://localhost", s.AppURL)
	assert.Equal(t, 2048, s.MaxTokens)

	s = Settings{Provider: " OPENAI ", Model: "gpt-4.1"}.WithDefaults()
	assert.Equal(t, ProviderOpenAI, s.Provider)
	assert.Equal(t, "gpt-4.1", s.Model)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", s.BaseURL)
	assert.Equal(t, "OpenAI", s.Label())

	assert.True(t, IsSupportedProvider("OpenRouter"))
	assert.False(t, IsSupportedProvider("gemini"))
}
