package cache

import (
	"context"
	"errors"

	"github.com/pittas-dairy/storefront/internal/domain"
)

// CartCache is a read-through copy of each user's cart. Readers take the
// version before reading the store and hand it back to Fill; a write that
// lands in between bumps the version and the fill is refused.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Fill(ctx context.Context, userID string, cart *domain.Cart, version int64) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
