package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "CORS_ORIGIN", "YTDLP_COOKIES_FILE", "VIDINFO_PORT", "VIDINFO_COOKIES_FILE", "VIDINFO_CORS_ORIGIN"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "yt-dlp", cfg.Extractor.Binary)
	assert.Empty(t, cfg.Extractor.CookiesFile)
	assert.Equal(t, 60*time.Second, cfg.Extractor.AttemptTimeout)
	assert.Equal(t, 5*time.Second, cfg.Extractor.ProbeTimeout)
	assert.Zero(t, cfg.Extractor.RequestTimeout)
	assert.Zero(t, cfg.Extractor.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Extractor.QueueTimeout)
	assert.Equal(t, "*", cfg.CORS.Origin)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_LegacyVariables(t *testing.T) {
	t.Setenv("VIDINFO_PORT", "")
	t.Setenv("VIDINFO_COOKIES_FILE", "")
	t.Setenv("VIDINFO_CORS_ORIGIN", "")
	t.Setenv("PORT", "9100")
	t.Setenv("YTDLP_COOKIES_FILE", "/etc/cookies.txt")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")

	cfg := Load()

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/etc/cookies.txt", cfg.Extractor.CookiesFile)
	assert.Equal(t, "https://app.example.com", cfg.CORS.Origin)
}

func TestLoad_PrefixedWinsOverLegacy(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("VIDINFO_PORT", "9200")
	t.Setenv("YTDLP_COOKIES_FILE", "/legacy.txt")
	t.Setenv("VIDINFO_COOKIES_FILE", "/new.txt")

	cfg := Load()

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "/new.txt", cfg.Extractor.CookiesFile)
}

func TestLoad_Extractor(t *testing.T) {
	t.Setenv("VIDINFO_YTDLP_BIN", "python3")
	t.Setenv("VIDINFO_YTDLP_ARGS", "-m, yt_dlp")
	t.Setenv("VIDINFO_ATTEMPT_TIMEOUT", "45s")
	t.Setenv("VIDINFO_REQUEST_TIMEOUT", "2m")
	t.Setenv("VIDINFO_STRATEGIES", "web,ios")

	cfg := Load()

	assert.Equal(t, "python3", cfg.Extractor.Binary)
	assert.Equal(t, []string{"-m", "yt_dlp"}, cfg.Extractor.BinaryArgs)
	assert.Equal(t, 45*time.Second, cfg.Extractor.AttemptTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Extractor.RequestTimeout)
	assert.Equal(t, "web,ios", cfg.Extractor.Strategies)
}

func TestEnvHelpers_IgnoreMalformed(t *testing.T) {
	t.Setenv("VIDINFO_TEST_INT", "abc")
	t.Setenv("VIDINFO_TEST_BOOL", "maybe")
	t.Setenv("VIDINFO_TEST_DUR", "10")
	t.Setenv("VIDINFO_TEST_FLOAT", "x")

	assert.Equal(t, 7, envIntOr("VIDINFO_TEST_INT", 7))
	assert.True(t, envBoolOr("VIDINFO_TEST_BOOL", true))
	assert.Equal(t, time.Second, envDurationOr("VIDINFO_TEST_DUR", time.Second))
	assert.Equal(t, 2.5, envFloatOr("VIDINFO_TEST_FLOAT", 2.5))
}

func TestEngineOptions(t *testing.T) {
	c := ExtractorConfig{
		Binary:         "yt-dlp",
		Extractor:      "youtube",
		CookiesFile:    "/data/cookies.txt",
		AttemptTimeout: 30 * time.Second,
		Strategies:     "ios,web:webpage",
	}

	opts, err := c.EngineOptions()

	assert.NoError(t, err)
	assert.Equal(t, "/data/cookies.txt", opts.CookiesFile)
	assert.Equal(t, 30*time.Second, opts.AttemptTimeout)
	if assert.Len(t, opts.Catalog, 2) {
		assert.Equal(t, "ios", opts.Catalog[0].Client)
		assert.Equal(t, "webpage", opts.Catalog[1].Skip)
	}
}

func TestEngineOptions_DefaultCatalog(t *testing.T) {
	opts, err := ExtractorConfig{}.EngineOptions()
	assert.NoError(t, err)
	assert.Nil(t, opts.Catalog)
}

func TestEngineOptions_BadStrategies(t *testing.T) {
	_, err := ExtractorConfig{Strategies: ",,"}.EngineOptions()
	assert.ErrorContains(t, err, "VIDINFO_STRATEGIES")
}
