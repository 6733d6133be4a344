package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/use-agent/vidinfo/config"
	"github.com/use-agent/vidinfo/engine"
)

// envKeyReplacer maps flag names to VIDINFO_* variables
// (attempt-timeout → VIDINFO_ATTEMPT_TIMEOUT).
var envKeyReplacer = strings.NewReplacer("-", "_")

// loadSettings layers viper values (flags, env, config file) over
// config.Load defaults.
func loadSettings(v *viper.Viper) *config.Config {
	cfg := config.Load()
	x := &cfg.Extractor

	if s := v.GetString("ytdlp-bin"); s != "" {
		x.Binary = s
	}
	if s := v.GetString("cookies-file"); s != "" {
		x.CookiesFile = s
	}
	if s := v.GetString("strategies"); s != "" {
		x.Strategies = s
	}
	if d := v.GetDuration("attempt-timeout"); d > 0 {
		x.AttemptTimeout = d
	}
	if d := v.GetDuration("request-timeout"); d > 0 {
		x.RequestTimeout = d
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Log.Level = s
	}
	return cfg
}

// newEngine builds the engine and CLI logger from the layered settings.
func newEngine() (*engine.Engine, error) {
	cfg := loadSettings(viper.GetViper())
	initLogger(cfg.Log.Level)

	opts, err := cfg.Extractor.EngineOptions()
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	return engine.New(opts), nil
}

// initLogger sends engine logs to stderr as text so stdout stays clean JSON.
func initLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
