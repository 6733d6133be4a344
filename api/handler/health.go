package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidinfo/cache"
	"github.com/use-agent/vidinfo/engine"
	"github.com/use-agent/vidinfo/models"
)

const probeKey = "ytdlp"

// Health returns a handler for GET /health.
//
// The status is 200 even when the tool is missing; availability is reported
// as a field. Probe results are reused from probes until they expire.
func Health(ex Extractor, probes *cache.Cache[engine.ProbeResult], slots *Slots, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithoutCancel(c.Request.Context())
		probe := probes.GetOrLoad(probeKey, func() engine.ProbeResult {
			return ex.Probe(ctx)
		})

		active, capacity := slots.Stats()
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "ok",
			YtdlpAvailable: probe.Available,
			YtdlpVersion:   probe.Version,
			GoVersion:      runtime.Version(),
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			Version:        Version,

			ExtractionsActive: active,
			ExtractionsMax:    capacity,
		})
	}
}
