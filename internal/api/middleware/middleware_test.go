package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	defer d.Close()
	r := newEngine(d.Handler())

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", `{"text":"a"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/echo", `{"text":"a"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", `{"text":"b"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
}

func TestDeduplicatorCleanup(t *testing.T) {
	d := NewDeduplicator(time.Second)
	defer d.Close()

	now := time.Now()
	assert.False(t, d.seen("k", now))
	assert.True(t, d.seen("k", now.Add(500*time.Millisecond)))
	assert.False(t, d.seen("k", now.Add(2*time.Second)))

	d.cleanup(now.Add(time.Hour))
	assert.Empty(t, d.requests)
	d.Close()
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()
	rl.lastTime = now
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimit(1, time.Minute))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/echo", "").Code)
	w := do(r, http.MethodGet, "/echo", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/echo", "short").Code)
	w := do(r, http.MethodPost, "/echo", strings.Repeat("x", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeBodyTooLarge)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())

	w := do(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestTimeout(t *testing.T) {
	r := newEngine(Timeout(20 * time.Millisecond))

	w := do(r, http.MethodGet, "/slow", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TIMEOUT")
}
