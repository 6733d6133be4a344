package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrRequestTimeout is returned when Options.RequestTimeout elapses before
// any strategy succeeds.
var ErrRequestTimeout = errors.New("engine: request budget exhausted")

// remediation replaces the final message when the last failure looks like
// bot detection or a sign-in wall.
const remediation = "bot detection: all client types were blocked.\n\n" +
	"Cookies are required: the platform now asks for browser cookies for most extractions.\n\n" +
	"To fix this:\n" +
	"1. Install a cookies.txt exporter extension in Chrome/Edge/Firefox\n" +
	"2. Visit the site and sign in\n" +
	"3. Export cookies for the site as cookies.txt (Netscape format)\n" +
	"4. Upload cookies.txt to the server\n" +
	"5. Set VIDINFO_COOKIES_FILE to the file path and restart"

// ExhaustedError is returned when every strategy failed.
type ExhaustedError struct {
	// Message is the synthesized, user-facing text.
	Message string

	// Last is the final attempt's diagnostic. Earlier ones are discarded.
	Last Diagnostic

	// Attempts is the number of invocations made.
	Attempts int
}

func (e *ExhaustedError) Error() string { return e.Message }

// Extract runs the strategy catalog against rawURL, strictly one attempt at a
// time, and returns the first successful payload.
//
// Every per-attempt failure is logged and retained as the last diagnostic;
// only an *ExhaustedError surfaces when all strategies fail. Cancelling ctx
// kills the running attempt and returns ctx's error.
func (e *Engine) Extract(ctx context.Context, rawURL string) (*Result, error) {
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, e.requestTimeout, ErrRequestTimeout)
		defer cancel()
	}

	slog.Info("extracting video", "url", rawURL, "strategies", len(e.catalog))

	cookies := e.credentials()
	if cookies != "" {
		slog.Info("using cookies file for authentication")
	}

	var (
		last     *Diagnostic
		attempts int
	)
	for _, s := range e.catalog {
		if err := ctx.Err(); err != nil {
			return nil, e.aborted(ctx, attempts)
		}

		label := s.Label()
		inv := e.builder.Build(s, rawURL, cookies)
		attempts++

		slog.Info("trying strategy", "strategy", label, "attempt", attempts)
		res, err := e.runner.Run(ctx, inv)
		if err != nil {
			var runErr *RunError
			switch {
			case errors.As(err, &runErr):
				last = runDiagnostic(label, runErr)
			case ctx.Err() != nil:
				return nil, e.aborted(ctx, attempts)
			default:
				last = &Diagnostic{Strategy: label, Category: CategoryOther, Message: err.Error()}
			}
		} else {
			payload, diag := e.judge(label, res)
			if diag == nil {
				result := &Result{Payload: payload, Strategy: label, Attempts: attempts}
				slog.Info("extraction succeeded",
					"title", result.Title(),
					"strategy", label,
					"attempts", attempts,
				)
				return result, nil
			}
			last = diag
		}

		slog.Warn("strategy failed",
			"strategy", label,
			"category", last.Category,
			"error", truncate(last.Message, 200),
		)
	}

	return nil, e.exhausted(last, attempts)
}

// judge turns a finished attempt into a payload or a Diagnostic.
func (e *Engine) judge(label string, res *AttemptResult) (json.RawMessage, *Diagnostic) {
	if res.OK() {
		payload, err := decodePayload(res.Stdout)
		if err == nil {
			return payload, nil
		}
		slog.Error("failed to parse extractor output",
			"strategy", label,
			"error", err,
			"output", truncate(string(res.Stdout), 500),
		)
		return nil, &Diagnostic{
			Strategy: label,
			Category: CategoryParseError,
			Message:  fmt.Sprintf("failed to parse extractor output: %v", err),
		}
	}

	category := e.classify(res.ExitCode, res.Stdout, res.Stderr)
	text := failureText(res)

	d := &Diagnostic{Strategy: label, Category: category}
	switch category {
	case CategoryBotDetected:
		d.Message = fmt.Sprintf("bot detection (tried %s)", label)
	case CategoryUnsupported:
		d.Message = fmt.Sprintf("content not available for %s: %s", label, truncate(text, 200))
	default:
		d.Message = truncate(text, 500)
	}
	return nil, d
}

// decodePayload confirms stdout is a single JSON object and returns it as-is.
func decodePayload(stdout []byte) (json.RawMessage, error) {
	raw := json.RawMessage(stripBOM(stdout))
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("output is null, expected a JSON object")
	}
	return raw, nil
}

func stripBOM(b []byte) []byte {
	const bom = "\xef\xbb\xbf"
	if len(b) >= len(bom) && string(b[:len(bom)]) == bom {
		return b[len(bom):]
	}
	return b
}

func runDiagnostic(label string, err *RunError) *Diagnostic {
	d := &Diagnostic{Strategy: label, Category: err.Category}
	if err.Category == CategoryTimeout {
		d.Message = "video extraction timed out"
	} else {
		d.Message = err.Err.Error()
	}
	return d
}

// exhausted synthesizes the terminal error from the last diagnostic only.
func (e *Engine) exhausted(last *Diagnostic, attempts int) *ExhaustedError {
	detail := "all strategies failed"
	var kept Diagnostic
	if last != nil {
		kept = *last
		detail = last.Message
	}
	slog.Error("all extraction attempts failed", "error", detail, "attempts", attempts)

	if needsCookies(detail) {
		detail = remediation
	}
	return &ExhaustedError{
		Message:  "extraction failed: " + detail,
		Last:     kept,
		Attempts: attempts,
	}
}

// aborted reports why the loop stopped before exhausting the catalog.
func (e *Engine) aborted(ctx context.Context, attempts int) error {
	if errors.Is(context.Cause(ctx), ErrRequestTimeout) {
		slog.Warn("extraction budget exhausted", "attempts", attempts, "budget", e.requestTimeout)
		return fmt.Errorf("%w after %d attempts", ErrRequestTimeout, attempts)
	}
	slog.Info("extraction cancelled", "attempts", attempts, "error", ctx.Err())
	return fmt.Errorf("engine: extraction cancelled: %w", ctx.Err())
}

func needsCookies(detail string) bool {
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "bot") || strings.Contains(lower, "sign in")
}
