package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/vidinfo/api/handler"
	"github.com/use-agent/vidinfo/config"
	"github.com/use-agent/vidinfo/engine"
	"github.com/use-agent/vidinfo/models"
	"github.com/use-agent/vidinfo/webhook"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string) (*engine.Result, error) {
	return &engine.Result{Payload: json.RawMessage(`{"title":"ok"}`), Strategy: "web", Attempts: 1}, nil
}

func (stubExtractor) Probe(context.Context) engine.ProbeResult {
	return engine.ProbeResult{Available: true, Version: "2024.12.23"}
}

func newBackground(t *testing.T) *handler.Background {
	bg := handler.NewBackground(webhook.NewSender(""))
	t.Cleanup(func() { _ = bg.Shutdown(context.Background()) })
	return bg
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		CORS:      config.CORSConfig{Origin: "*"},
		Health:    config.HealthConfig{ProbeCacheTTL: time.Minute},
	}
}

func do(r http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(stubExtractor{}, newBackground(t), testConfig(), time.Now())

	for _, prefix := range []string{"", "/api/v1"} {
		w := do(r, http.MethodGet, prefix+"/health", "")
		assert.Equal(t, http.StatusOK, w.Code, prefix)
		assert.Contains(t, w.Body.String(), `"ytdlp_available":true`)

		w = do(r, http.MethodPost, prefix+"/extract", `{"url":"https://youtu.be/x"}`)
		assert.Equal(t, http.StatusOK, w.Code, prefix)
		assert.Equal(t, `{"title":"ok"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var info models.ServiceInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "vidinfo", info.Service)
}

func TestRouter_NotFound(t *testing.T) {
	r := NewRouter(stubExtractor{}, newBackground(t), testConfig(), time.Now())
	w := do(r, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestRouter_Preflight(t *testing.T) {
	r := NewRouter(stubExtractor{}, newBackground(t), testConfig(), time.Now())
	w := do(r, http.MethodOptions, "/extract", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_AuthProtectsExtractOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}}
	r := NewRouter(stubExtractor{}, newBackground(t), cfg, time.Now())

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/extract", `{"url":"https://youtu.be/x"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/extract", `{"url":"https://youtu.be/x"}`, "X-API-Key", "secret").Code)
}
