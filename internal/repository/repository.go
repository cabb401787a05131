package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
)

var (
	ErrDuplicateItem = errors.New("item already in cart")
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// UserRepository reads and writes the per-user document: the cart field and
// the delivery details saved at checkout.
type UserRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	RemoveItems(ctx context.Context, userID string, itemIDs []string) error
	SetFrequency(ctx context.Context, userID, itemID string, freq domain.DeliveryFrequency) error
	ClearCart(ctx context.Context, userID string) error
	CountItems(ctx context.Context, userID string) (int, error)
	SaveDeliveryDetails(ctx context.Context, userID string, details domain.DeliveryDetails) error
	LoadDeliveryDetails(ctx context.Context, userID string) (domain.DeliveryDetails, error)
}

// LedgerRepository is the append-only store of completed checkouts.
type LedgerRepository interface {
	// Append inserts entry unless an entry with the same payment id exists,
	// in which case the stored entry is returned and created is false.
	Append(ctx context.Context, entry *domain.LedgerEntry) (stored *domain.LedgerEntry, created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
	MarkCartCleared(ctx context.Context, entryID string) error
	FindUncleared(ctx context.Context, olderThan time.Time, limit int64) ([]domain.LedgerEntry, error)
	FindUnpublished(ctx context.Context, limit int64) ([]domain.LedgerEntry, error)
	MarkPublished(ctx context.Context, entryID string) error
}
