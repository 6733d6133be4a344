package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	tests := []struct {
		name string
		step step
		want ProbeResult
	}{
		{"available", ok("2024.12.23\n"), ProbeResult{Available: true, Version: "2024.12.23"}},
		{"non-zero exit", fail("No module named yt_dlp"), ProbeResult{Version: NotAvailable}},
		{"missing binary", step{err: &RunError{Category: CategoryOther, Err: errors.New("not found")}}, ProbeResult{Version: NotAvailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{steps: []step{tt.step}}
			got := newTestEngine(r, Options{}).Probe(context.Background())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbe_UsesVersionFlagAndShortTimeout(t *testing.T) {
	r := &scriptedRunner{steps: []step{ok("2024.12.23")}}
	e := newTestEngine(r, Options{Binary: "python3", BinaryArgs: []string{"-m", "yt_dlp"}})

	e.Probe(context.Background())

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"-m", "yt_dlp", "--version"}, r.calls[0].Args)
	assert.Equal(t, 5*time.Second, r.calls[0].Timeout)
}
