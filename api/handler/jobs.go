package handler

import (
	"context"
	"errors"
	"sync"

	"github.com/use-agent/vidinfo/webhook"
)

// errShuttingDown rejects async work submitted after Shutdown began.
var errShuttingDown = errors.New("server is shutting down")

// Background runs async extractions on a server-lifetime context so
// shutdown can cancel them and wait for their webhooks to go out.
type Background struct {
	ctx    context.Context
	cancel context.CancelFunc
	sender *webhook.Sender

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBackground returns a Background delivering results through sender.
func NewBackground(sender *webhook.Sender) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{ctx: ctx, cancel: cancel, sender: sender}
}

// Go runs fn with the server-lifetime context.
func (b *Background) Go(fn func(ctx context.Context)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errShuttingDown
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
	return nil
}

// Shutdown cancels running jobs and waits until they have finished
// (including their failure webhooks) or ctx is done.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
