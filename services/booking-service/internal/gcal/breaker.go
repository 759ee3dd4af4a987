package gcal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

// Inserter is the calendar write used by the syncer; both Client and Breaker satisfy it.
type Inserter interface {
	InsertEvent(ctx context.Context, grant Grant, ev Event) (string, *oauth2.Token, error)
}

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Default 5.
	ConsecutiveFailures uint32
	// OpenFor is how long calls fail fast before a probe is let through. Default 1m.
	OpenFor time.Duration
	// OnStateChange is called with true when the breaker opens and false when it closes.
	OnStateChange func(open bool)
}

type inserted struct {
	eventID string
	token   *oauth2.Token
}

// Breaker stops calling Google after repeated failures. Appointments skipped while it is open
// stay unsynced and are picked up by the sweeper.
type Breaker struct {
	next Inserter
	cb   *gobreaker.CircuitBreaker[inserted]
}

func NewBreaker(next Inserter, logger *slog.Logger, cfg BreakerConfig) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = time.Minute
	}
	threshold := cfg.ConsecutiveFailures
	notify := cfg.OnStateChange

	cb := gobreaker.NewCircuitBreaker[inserted](gobreaker.Settings{
		Name:        "google-calendar",
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Missing grants and cancelled requests say nothing about Google's health.
			return err == nil ||
				errors.Is(err, ErrNoRefreshToken) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if notify != nil {
				notify(to == gobreaker.StateOpen)
			}
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) InsertEvent(ctx context.Context, grant Grant, ev Event) (string, *oauth2.Token, error) {
	res, err := b.cb.Execute(func() (inserted, error) {
		id, tok, err := b.next.InsertEvent(ctx, grant, ev)
		return inserted{eventID: id, token: tok}, err
	})
	return res.eventID, res.token, err
}

// Open reports whether calls are currently failing fast.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
