package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventExtractCompleted = "extract.completed"
	EventExtractFailed    = "extract.failed"
)

// SignatureHeader carries "sha256=<hex hmac>" of the body when a secret is
// configured.
const SignatureHeader = "X-Vidinfo-Signature"

// Event is the envelope POSTed to a caller's webhook.
type Event struct {
	Type      string      `json:"type"`
	JobID     string      `json:"job_id"`
	Timestamp int64       `json:"timestamp"`
	Data      ExtractData `json:"data"`
}

// ExtractData describes the outcome of one async extraction.
type ExtractData struct {
	URL      string          `json:"url"`
	Strategy string          `json:"strategy,omitempty"`
	Attempts int             `json:"attempts"`
	TotalMs  int64           `json:"total_ms"`
	Result   json.RawMessage `json:"result,omitempty"` // tool JSON, verbatim
	Error    *Failure        `json:"error,omitempty"`
}

// Failure mirrors the API error body for failed extractions.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Sign returns the SignatureHeader value for body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// DefaultDelays are the waits before each delivery attempt: one immediate
// try and three retries.
var DefaultDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Sender posts events, signing them when Secret is set.
type Sender struct {
	Secret string
	Client *http.Client
	Delays []time.Duration
}

// NewSender returns a Sender with a 10s per-attempt client and
// DefaultDelays.
func NewSender(secret string) *Sender {
	return &Sender{
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
		Delays: DefaultDelays,
	}
}

// Send makes a single delivery attempt. Any 4xx/5xx answer is an error.
func (s *Sender) Send(ctx context.Context, url string, ev *Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Vidinfo-Webhook/1.0")
	if s.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(s.Secret, body))
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Deliver sends ev, waiting Delays[i] before attempt i, until one attempt
// succeeds, the delays run out, or ctx is done.
func (s *Sender) Deliver(ctx context.Context, url string, ev *Event) error {
	log := slog.With("url", url, "event", ev.Type, "job_id", ev.JobID)

	var lastErr error
	for attempt, delay := range s.Delays {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				log.Error("webhook delivery abandoned", "attempt", attempt+1, "error", ctx.Err())
				return fmt.Errorf("webhook: %w (last error: %v)", ctx.Err(), lastErr)
			case <-t.C:
			}
		}

		lastErr = s.Send(ctx, url, ev)
		if lastErr == nil {
			log.Info("webhook delivered", "attempt", attempt+1)
			return nil
		}
		log.Warn("webhook delivery failed", "attempt", attempt+1, "error", lastErr)
	}

	log.Error("webhook delivery exhausted all retries", "error", lastErr)
	return lastErr
}
