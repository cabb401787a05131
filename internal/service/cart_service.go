package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

const loadTimeout = 5 * time.Second

var (
	ErrDuplicateItem    = repository.ErrDuplicateItem
	ErrCustomPlan       = errors.New("custom plans are booked through our team")
	ErrInvalidItem      = errors.New("cart item needs an id")
	ErrInvalidFrequency = errors.New("delivery frequency must be once or twice")
)

// PlanCatalog resolves plan ids to catalog plans.
type PlanCatalog interface {
	GetPlan(ctx context.Context, id string) (domain.Plan, error)
}

// CartStore keeps the remote user document as the only source of truth for
// a cart. The cache is filled on read and invalidated after every write
// attempt; a fill that races a write is discarded.
type CartStore struct {
	repo    repository.UserRepository
	cache   cache.CartCache
	catalog PlanCatalog
	logger  *slog.Logger
	sfg     singleflight.Group
}

func NewCartStore(repo repository.UserRepository, cache cache.CartCache, catalog PlanCatalog, logger *slog.Logger) *CartStore {
	return &CartStore{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		logger:  logger,
	}
}

func (s *CartStore) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	ch := s.sfg.DoChan(userID, func() (any, error) {
		// every waiter shares this read; it outlives the first caller
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.readThrough(loadCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneCart(res.Val.(*domain.Cart)), nil
	}
}

// LoadFresh reads the cart from the store, skipping the cache.
func (s *CartStore) LoadFresh(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetCart(ctx, userID)
}

func (s *CartStore) readThrough(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cart cache get failed", "user_id", userID, "error", err)
	}

	version, verr := s.cache.Version(ctx, userID)
	if verr != nil {
		s.logger.Warn("cart cache version failed", "user_id", userID, "error", verr)
	}

	cart, err = s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		return cart, nil
	}

	stored, err := s.cache.Fill(ctx, userID, cart, version)
	if err != nil {
		s.logger.Warn("cart cache fill failed", "user_id", userID, "error", err)
	} else if !stored {
		s.logger.Debug("cart changed during read, not cached", "user_id", userID)
	}
	return cart, nil
}

// Add appends item unless a line with the same id is already in the cart,
// in which case ErrDuplicateItem is returned and the cart is unchanged.
func (s *CartStore) Add(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ID == "" {
		return nil, ErrInvalidItem
	}
	if item.DeliveryFrequency == "" {
		item.DeliveryFrequency = domain.DeliveryOnce
	}
	if !item.DeliveryFrequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	err := s.repo.AddItem(ctx, userID, item)
	return s.afterWrite(ctx, userID, "add item", err)
}

func (s *CartStore) AddPlan(ctx context.Context, userID, planID string) (*domain.Cart, error) {
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.PlanType == domain.PlanTypeCustom {
		return nil, ErrCustomPlan
	}

	return s.Add(ctx, userID, plan.CartItem())
}

func (s *CartStore) Remove(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	err := s.repo.RemoveItem(ctx, userID, itemID)
	return s.afterWrite(ctx, userID, "remove item", err)
}

func (s *CartStore) SetFrequency(ctx context.Context, userID, itemID string, freq domain.DeliveryFrequency) (*domain.Cart, error) {
	if !freq.Valid() {
		return nil, ErrInvalidFrequency
	}

	err := s.repo.SetFrequency(ctx, userID, itemID, freq)
	return s.afterWrite(ctx, userID, "set delivery frequency", err)
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	err := s.repo.ClearCart(ctx, userID)
	_, err = s.afterWrite(ctx, userID, "clear cart", err)
	return err
}

// RemoveItems drops exactly the given item ids, leaving anything else the
// user added in the meantime.
func (s *CartStore) RemoveItems(ctx context.Context, userID string, itemIDs []string) error {
	err := s.repo.RemoveItems(ctx, userID, itemIDs)
	s.invalidate(userID)
	if err != nil {
		s.logger.Error("cart write failed", "op", "remove items", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// Count reads the badge count straight from the store.
func (s *CartStore) Count(ctx context.Context, userID string) (int, error) {
	return s.repo.CountItems(ctx, userID)
}

func (s *CartStore) afterWrite(ctx context.Context, userID, op string, writeErr error) (*domain.Cart, error) {
	s.invalidate(userID)

	if writeErr != nil {
		if errors.Is(writeErr, ErrDuplicateItem) {
			s.logger.Info("cart write rejected", "op", op, "user_id", userID, "error", writeErr)
		} else {
			s.logger.Error("cart write failed", "op", op, "user_id", userID, "error", writeErr)
		}
		return nil, writeErr
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload cart after %s: %w", op, err)
	}
	return cart, nil
}

func (s *CartStore) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", "user_id", userID, "error", err)
	}
}

// cloneCart keeps singleflight callers from sharing one slice.
func cloneCart(c *domain.Cart) *domain.Cart {
	out := &domain.Cart{UserID: c.UserID, Items: make([]domain.CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}
