// Package oauthstate maps opaque OAuth state values to the shop that started the consent flow.
package oauthstate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 10 * time.Minute

// ErrUnknownState means the state was never issued, already used, or expired.
var ErrUnknownState = errors.New("unknown or expired oauth state")

// Store issues single-use states.
type Store interface {
	Put(ctx context.Context, shopID string) (string, error)
	Take(ctx context.Context, state string) (string, error)
}

func newState() string {
	return uuid.NewString()
}
