package handler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/use-agent/vidinfo/models"
	"golang.org/x/sync/semaphore"
)

// Slots bounds how many extractions run at once across the process. Each
// extraction holds a slot for its whole strategy loop. A nil *Slots means
// unlimited.
type Slots struct {
	sem      *semaphore.Weighted
	capacity int64
	active   atomic.Int64
	wait     time.Duration
}

// NewSlots returns a limiter admitting capacity extractions, each caller
// queueing up to wait for a free slot. capacity <= 0 returns nil.
func NewSlots(capacity int, wait time.Duration) *Slots {
	if capacity <= 0 {
		return nil
	}
	return &Slots{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		wait:     wait,
	}
}

// acquire takes a slot, returning the release func. It fails with a
// SERVER_BUSY APIError when no slot frees up in time.
func (s *Slots) acquire(ctx context.Context) (func(), error) {
	if s == nil {
		return func() {}, nil
	}

	waitCtx := ctx
	if s.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.wait)
		defer cancel()
	}
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.NewAPIError(models.ErrCodeBusy, "too many extractions in progress, retry later", err)
	}

	s.active.Add(1)
	return func() {
		s.active.Add(-1)
		s.sem.Release(1)
	}, nil
}

// Stats returns the slots in use and the capacity; both are zero when
// unlimited.
func (s *Slots) Stats() (active, capacity int) {
	if s == nil {
		return 0, 0
	}
	return int(s.active.Load()), int(s.capacity)
}
