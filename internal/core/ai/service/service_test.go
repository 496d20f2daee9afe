package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipify/internal/core/ai/cache"
	"recipify/internal/core/ai/chat"
	"recipify/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	settings   chat.Settings
	resolveErr error
	replies    []string
	errs       []error
	calls      int
}

func (f *fakeClient) Resolve(context.Context) (chat.Settings, error) {
	return f.settings, f.resolveErr
}

func (f *fakeClient) Send(_ context.Context, _ chat.Settings, _ string) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	return f.replies[i], nil
}

var settings = chat.Settings{Provider: "openrouter", Model: "m", APIKey: "k"}

func TestSendChatWithoutCache(t *testing.T) {
	client := &fakeClient{settings: settings, replies: []string{"one", "two"}}
	svc := NewService(client, nil)

	got, err := svc.SendChat(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = svc.SendChat(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
	assert.Equal(t, 2, client.calls)

	_, ok := svc.CacheStats()
	assert.False(t, ok)
}

func TestSendChatCachesSuccess(t *testing.T) {
	store := cache.NewManager(10, time.Hour, 0)
	defer store.Close()

	client := &fakeClient{settings: settings, replies: []string{"one", "two"}}
	svc := NewService(client, store)

	for i := 0; i < 3; i++ {
		got, err := svc.SendChat(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "one", got)
	}
	assert.Equal(t, 1, client.calls)

	st, ok := svc.CacheStats()
	require.True(t, ok)
	assert.Equal(t, int64(2), st.Hits)
}

func TestSendChatDoesNotCacheFailure(t *testing.T) {
	store := cache.NewManager(10, time.Hour, 0)
	defer store.Close()

	sendErr := &common.TransportError{StatusCode: 502, Message: "OpenRouter 502: bad gateway"}
	client := &fakeClient{settings: settings, replies: []string{"", "ok"}, errs: []error{sendErr}}
	svc := NewService(client, store)

	_, err := svc.SendChat(context.Background(), "p")
	assert.True(t, errors.Is(err, common.ErrTransport))

	got, err := svc.SendChat(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, client.calls)
}

func TestSendChatConfigurationError(t *testing.T) {
	client := &fakeClient{resolveErr: &common.ConfigurationError{Message: "Missing OPENROUTER API key"}}
	svc := NewService(client, cache.NewManager(10, time.Hour, 0))

	_, err := svc.SendChat(context.Background(), "p")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Zero(t, client.calls)
}
