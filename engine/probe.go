package engine

import (
	"bytes"
	"context"
	"log/slog"
)

// ProbeResult reports whether the extraction tool can be invoked.
type ProbeResult struct {
	Available bool
	Version   string
}

// NotAvailable is the Version reported when the probe fails.
const NotAvailable = "Not available"

// Probe runs the tool with --version under the short probe timeout. It is
// used for liveness reporting only and never affects Extract.
func (e *Engine) Probe(ctx context.Context) ProbeResult {
	inv := e.builder.VersionInvocation(e.probeTimeout)
	res, err := e.runner.Run(ctx, inv)
	if err != nil {
		slog.Warn("extractor probe failed", "binary", inv.Binary, "error", err)
		return ProbeResult{Version: NotAvailable}
	}
	if !res.OK() {
		slog.Warn("extractor probe failed",
			"binary", inv.Binary,
			"exit_code", res.ExitCode,
			"stderr", truncate(string(bytes.TrimSpace(res.Stderr)), 200),
		)
		return ProbeResult{Version: NotAvailable}
	}
	return ProbeResult{
		Available: true,
		Version:   string(bytes.TrimSpace(res.Stdout)),
	}
}
