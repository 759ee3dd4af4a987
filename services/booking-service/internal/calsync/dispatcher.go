package calsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher starts the calendar sync of a freshly booked appointment.
type Dispatcher interface {
	Dispatch(ctx context.Context, appointmentID string)
}

// InlineDispatcher syncs in a background goroutine detached from the request, so a slow or
// failing Google call never affects the booking response.
type InlineDispatcher struct {
	syncer  *Syncer
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineDispatcher(syncer *Syncer, logger *slog.Logger, timeout time.Duration) *InlineDispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &InlineDispatcher{syncer: syncer, logger: logger, timeout: timeout}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, appointmentID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if _, err := d.syncer.Sync(syncCtx, appointmentID); err != nil {
			d.logger.Error("google calendar sync failed", "err", err, "appointment_id", appointmentID)
		}
	}()
}

// Wait blocks until in-flight syncs finish or ctx ends.
func (d *InlineDispatcher) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// NoopDispatcher is used when syncing is driven by the Kafka consumer instead.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, string) {}
