package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/vidinfo/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextKeyRequestID)) })
	r.POST("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newTestRouter(Auth([]string{"k1", "k2"}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"x-api-key", "X-API-Key", "k1", http.StatusOK},
		{"bearer", "Authorization", "Bearer k2", http.StatusOK},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"bare authorization", "Authorization", "k1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newTestRouter(Auth(nil))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := serve(r, req)
		codes[i] = w.Code
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "198.51.100.1:5555"
	assert.Equal(t, http.StatusOK, serve(r, other).Code, "limits are per identity")
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newTestRouter(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0}))
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestLimiterSet_Sweep(t *testing.T) {
	s := newLimiterSet(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	base := time.Unix(1_700_000_000, 0)
	s.get("old", base)
	s.get("fresh", base.Add(2*time.Hour))

	s.sweep(base.Add(time.Hour))

	assert.Len(t, s.entries, 1)
	assert.Contains(t, s.entries, "fresh")
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		r := newTestRouter(CORS("*"))
		w := serve(r, httptest.NewRequest(http.MethodPost, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("single origin", func(t *testing.T) {
		r := newTestRouter(CORS("https://app.example.com"))
		w := serve(r, httptest.NewRequest(http.MethodPost, "/ping", nil))
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := newTestRouter(CORS("*"))
		r.OPTIONS("/ping", func(c *gin.Context) { c.String(http.StatusOK, "handler reached") })
		w := serve(r, httptest.NewRequest(http.MethodOptions, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Empty(t, w.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(RequestID())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, given)
	assert.Equal(t, given, serve(r, req).Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Header().Get(RequestIDHeader))
}
