package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/vidinfo/engine"
)

func TestLoadSettings_ViperOverridesEnv(t *testing.T) {
	t.Setenv("VIDINFO_YTDLP_BIN", "from-env")
	t.Setenv("VIDINFO_ATTEMPT_TIMEOUT", "30s")

	v := viper.New()
	v.Set("ytdlp-bin", "/opt/yt-dlp")
	v.Set("request-timeout", "2m")

	cfg := loadSettings(v)

	assert.Equal(t, "/opt/yt-dlp", cfg.Extractor.Binary)
	assert.Equal(t, 30*time.Second, cfg.Extractor.AttemptTimeout, "unset keys keep config.Load values")
	assert.Equal(t, 2*time.Minute, cfg.Extractor.RequestTimeout)
}

func TestLoadSettings_EnvThroughViper(t *testing.T) {
	t.Setenv("VIDINFO_COOKIES_FILE", "/data/cookies.txt")

	v := viper.New()
	v.SetEnvPrefix("VIDINFO")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	assert.Equal(t, "/data/cookies.txt", loadSettings(v).Extractor.CookiesFile)
}

func TestShellLine(t *testing.T) {
	inv := engine.Invocation{
		Binary: "yt-dlp",
		Args:   []string{"--user-agent", "Mozilla/5.0 (X11)", "--add-header", "Referer:https://www.youtube.com/", "https://youtu.be/x?t=1&a=b"},
	}
	assert.Equal(t,
		`yt-dlp --user-agent 'Mozilla/5.0 (X11)' --add-header Referer:https://www.youtube.com/ 'https://youtu.be/x?t=1&a=b'`,
		shellLine(inv),
	)
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, `''`, shellQuote(""))
}

func TestStrategiesCommand(t *testing.T) {
	t.Setenv("VIDINFO_STRATEGIES", "")
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	strategiesCmd.SetOut(&out)
	require.NoError(t, runStrategies(strategiesCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"1. web (skip: webpage)",
		"2. web",
		"3. ios",
		"4. android",
		"5. mweb",
	}, lines)
}

func TestExtractDryRun(t *testing.T) {
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		dryRun = false
	})
	viper.Set("strategies", "ios")
	viper.Set("ytdlp-bin", "yt-dlp")
	dryRun = true

	var out bytes.Buffer
	extractCmd.SetOut(&out)
	require.NoError(t, runExtract(extractCmd, []string{"https://youtu.be/x"}))

	assert.Contains(t, out.String(), "# 1\nyt-dlp --dump-json")
	assert.Contains(t, out.String(), "youtube:player_client=ios")
	assert.NotContains(t, out.String(), "# 2")
}
