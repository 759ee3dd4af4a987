package gcal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

type flakyInserter struct {
	calls int
	err   error
}

func (f *flakyInserter) InsertEvent(context.Context, Grant, Event) (string, *oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return "evt-1", &oauth2.Token{AccessToken: "tok"}, nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyInserter{err: errors.New("google is down")}
	var opened bool
	b := NewBreaker(inner, slog.New(slog.NewTextHandler(io.Discard, nil)), BreakerConfig{
		ConsecutiveFailures: 2,
		OpenFor:             time.Hour,
		OnStateChange:       func(open bool) { opened = open },
	})

	for i := 0; i < 2; i++ {
		if _, _, err := b.InsertEvent(context.Background(), Grant{}, Event{}); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}
	if !b.Open() || !opened {
		t.Fatalf("expected breaker to be open")
	}

	_, _, err := b.InsertEvent(context.Background(), Grant{}, Event{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected open breaker to skip the call, got %d calls", inner.calls)
	}
}

func TestBreakerIgnoresMissingRefreshToken(t *testing.T) {
	inner := &flakyInserter{err: ErrNoRefreshToken}
	b := NewBreaker(inner, slog.New(slog.NewTextHandler(io.Discard, nil)), BreakerConfig{ConsecutiveFailures: 1})

	for i := 0; i < 3; i++ {
		_, _, err := b.InsertEvent(context.Background(), Grant{}, Event{})
		if !errors.Is(err, ErrNoRefreshToken) {
			t.Fatalf("expected ErrNoRefreshToken, got %v", err)
		}
	}
	if b.Open() {
		t.Fatalf("missing grants must not trip the breaker")
	}
}

func TestBreakerPassesResultThrough(t *testing.T) {
	b := NewBreaker(&flakyInserter{}, slog.New(slog.NewTextHandler(io.Discard, nil)), BreakerConfig{})
	id, tok, err := b.InsertEvent(context.Background(), Grant{}, Event{})
	if err != nil || id != "evt-1" || tok == nil || tok.AccessToken != "tok" {
		t.Fatalf("unexpected result %q %+v %v", id, tok, err)
	}
}
