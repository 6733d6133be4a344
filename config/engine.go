package config

import (
	"fmt"

	"github.com/use-agent/vidinfo/engine"
)

// EngineOptions maps the extractor settings onto engine.Options. A custom
// strategy list is parsed here so a bad value fails at startup.
func (c ExtractorConfig) EngineOptions() (engine.Options, error) {
	opts := engine.Options{
		Binary:         c.Binary,
		BinaryArgs:     c.BinaryArgs,
		UserAgent:      c.UserAgent,
		Referer:        c.Referer,
		Extractor:      c.Extractor,
		AttemptTimeout: c.AttemptTimeout,
		ProbeTimeout:   c.ProbeTimeout,
		RequestTimeout: c.RequestTimeout,
		CookiesFile:    c.CookiesFile,
	}
	if c.Strategies != "" {
		catalog, err := engine.ParseCatalog(c.Strategies)
		if err != nil {
			return engine.Options{}, fmt.Errorf("config: VIDINFO_STRATEGIES: %w", err)
		}
		opts.Catalog = catalog
	}
	return opts, nil
}
