package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/vidinfo/api/middleware"
	"github.com/use-agent/vidinfo/engine"
	"github.com/use-agent/vidinfo/models"
	"github.com/use-agent/vidinfo/webhook"
)

// statusClientClosed is the non-standard status logged when the caller goes
// away before extraction finishes.
const statusClientClosed = 499

// Extractor is the part of the engine the HTTP layer drives.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*engine.Result, error)
	Probe(ctx context.Context) engine.ProbeResult
}

// Extract returns a handler for POST /extract.
//
// Flow:
//  1. Bind & validate ExtractRequest.
//  2. With webhook_url: answer 202 and extract on bg.
//  3. Otherwise take an extraction slot, run Extractor.Extract, then write
//     the payload verbatim.
func Extract(ex Extractor, slots *Slots, bg *Background) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewAPIError(models.ErrCodeInvalidInput, bindMessage(err), err))
			return
		}

		if req.WebhookURL != "" {
			jobID := uuid.NewString()
			err := bg.Go(func(ctx context.Context) {
				extractAsync(ctx, ex, slots, bg.sender, jobID, req)
			})
			if err != nil {
				respondError(c, models.NewAPIError(models.ErrCodeBusy, err.Error(), err))
				return
			}
			c.JSON(http.StatusAccepted, models.AcceptedResponse{
				ID:     jobID,
				Status: "processing",
				URL:    req.URL,
			})
			return
		}

		start := time.Now()
		release, err := slots.acquire(c.Request.Context())
		if err != nil {
			respondError(c, toAPIError(err))
			return
		}
		defer release()

		result, err := ex.Extract(c.Request.Context(), req.URL)
		if err != nil {
			apiErr := toAPIError(err)
			slog.Warn("extraction request failed",
				"request_id", c.GetString(middleware.ContextKeyRequestID),
				"url", req.URL,
				"code", apiErr.Code,
				"total_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			respondError(c, apiErr)
			return
		}

		slog.Info("extraction succeeded",
			"request_id", c.GetString(middleware.ContextKeyRequestID),
			"url", req.URL,
			"title", result.Title(),
			"strategy", result.Strategy,
			"attempts", result.Attempts,
			"total_ms", time.Since(start).Milliseconds(),
		)
		c.Data(http.StatusOK, "application/json; charset=utf-8", result.Payload)
	}
}

// extractAsync runs one extraction detached from the HTTP request and
// reports the outcome to the caller's webhook. Cancelling ctx aborts the
// extraction; the failure event is still delivered.
func extractAsync(ctx context.Context, ex Extractor, slots *Slots, sender *webhook.Sender, jobID string, req models.ExtractRequest) {
	start := time.Now()
	result, err := runWithSlot(ctx, ex, slots, req.URL)

	event := &webhook.Event{
		Type:      webhook.EventExtractCompleted,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data: webhook.ExtractData{
			URL:     req.URL,
			TotalMs: time.Since(start).Milliseconds(),
		},
	}

	if err != nil {
		apiErr := toAPIError(err)
		event.Type = webhook.EventExtractFailed
		event.Data.Error = &webhook.Failure{Code: apiErr.Code, Message: apiErr.Message}
		var exhausted *engine.ExhaustedError
		if errors.As(err, &exhausted) {
			event.Data.Attempts = exhausted.Attempts
		}
		slog.Warn("async extraction failed", "job_id", jobID, "url", req.URL, "error", err)
	} else {
		event.Data.Strategy = result.Strategy
		event.Data.Attempts = result.Attempts
		event.Data.Result = result.Payload
		slog.Info("async extraction succeeded",
			"job_id", jobID,
			"url", req.URL,
			"strategy", result.Strategy,
			"attempts", result.Attempts,
		)
	}

	// Delivery outlives cancellation; Background.Shutdown bounds the wait.
	_ = sender.Deliver(context.WithoutCancel(ctx), req.WebhookURL, event)
}

func runWithSlot(ctx context.Context, ex Extractor, slots *Slots, rawURL string) (*engine.Result, error) {
	release, err := slots.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return ex.Extract(ctx, rawURL)
}

// toAPIError maps engine errors onto API error codes.
func toAPIError(err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var exhausted *engine.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return models.NewAPIError(models.ErrCodeExtraction, exhausted.Message, err)
	case errors.Is(err, engine.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.NewAPIError(models.ErrCodeTimeout, "video extraction timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewAPIError(models.ErrCodeCancelled, "request cancelled by client", err)
	default:
		return models.NewAPIError(models.ErrCodeInternal, err.Error(), err)
	}
}

// respondError writes the structured error body with the status for its code.
func respondError(c *gin.Context, e *models.APIError) {
	if e.Code == models.ErrCodeBusy {
		c.Header("Retry-After", "5")
	}
	c.AbortWithStatusJSON(mapErrorToStatus(e), models.ErrorResponse{
		Success: false,
		Error:   e.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeCancelled:
		return statusClientClosed // 499
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeBusy:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
