package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

var ErrNotFound = errors.New("store: not found")

// TokenStore persists the single cached provider token. Drivers (file,
// sqlite, redis) implement this.
type TokenStore interface {
	// Read returns the stored token, or ErrNotFound when nothing was ever
	// written. Any other error means the slot exists but couldn't be read.
	Read(ctx context.Context) (domain.CachedToken, error)

	// Write replaces the stored token in full.
	Write(ctx context.Context, t domain.CachedToken) error

	// Close releases any underlying resources.
	Close() error
}
