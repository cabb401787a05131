package service

import (
	"context"
	"sync"
	"time"

	"github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/catalog"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/repository"
)

// mockRepository keeps one cart per user in memory with the same
// no-op semantics as the document store.
type mockRepository struct {
	m        sync.RWMutex
	carts    map[string][]domain.CartItem
	details  map[string]domain.DeliveryDetails
	err      error
	getErr   error
	getCalls int
	// afterGet runs once, after the next GetCart has read the cart.
	afterGet func()
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		carts:   make(map[string][]domain.CartItem),
		details: make(map[string]domain.DeliveryDetails),
	}
}

func (m *mockRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.m.Lock()
	m.getCalls++
	if m.getErr != nil {
		m.m.Unlock()
		return nil, m.getErr
	}
	items := make([]domain.CartItem, len(m.carts[userID]))
	copy(items, m.carts[userID])
	hook := m.afterGet
	m.afterGet = nil
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	return &domain.Cart{UserID: userID, Items: items}, nil
}

func (m *mockRepository) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.carts[userID] {
		if existing.ID == item.ID {
			return repository.ErrDuplicateItem
		}
	}
	m.carts[userID] = append(m.carts[userID], item)
	return nil
}

func (m *mockRepository) RemoveItem(_ context.Context, userID, itemID string) error {
	return m.RemoveItems(context.Background(), userID, []string{itemID})
}

func (m *mockRepository) RemoveItems(_ context.Context, userID string, itemIDs []string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	drop := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	kept := []domain.CartItem{}
	for _, item := range m.carts[userID] {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	m.carts[userID] = kept
	return nil
}

func (m *mockRepository) SetFrequency(_ context.Context, userID, itemID string, freq domain.DeliveryFrequency) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.carts[userID] {
		if m.carts[userID][i].ID == itemID {
			m.carts[userID][i].DeliveryFrequency = freq
		}
	}
	return nil
}

func (m *mockRepository) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[userID] = []domain.CartItem{}
	return nil
}

func (m *mockRepository) CountItems(_ context.Context, userID string) (int, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return len(m.carts[userID]), nil
}

func (m *mockRepository) SaveDeliveryDetails(_ context.Context, userID string, d domain.DeliveryDetails) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.details[userID] = d
	return nil
}

func (m *mockRepository) LoadDeliveryDetails(_ context.Context, userID string) (domain.DeliveryDetails, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.details[userID], nil
}

func (m *mockRepository) setCart(userID string, items ...domain.CartItem) {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = items
}

// mockCache follows the versioned fill rules of the Redis cache.
type mockCache struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	versions map[string]int64
	err      error
	delay    time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{
		carts:    make(map[string]*domain.Cart),
		versions: make(map[string]int64),
	}
}

func (m *mockCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *mockCache) Version(_ context.Context, userID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.versions[userID], nil
}

func (m *mockCache) Fill(_ context.Context, userID string, cart *domain.Cart, version int64) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.versions[userID] != version {
		return false, nil
	}
	m.carts[userID] = cart
	return true, nil
}

func (m *mockCache) Invalidate(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.versions[userID]++
	delete(m.carts, userID)
	return m.err
}

func (m *mockCache) has(userID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[userID]
	return ok
}

type mockCatalog struct {
	plans map[string]domain.Plan
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{plans: map[string]domain.Plan{
		"daily-plan":     {ID: "daily-plan", Name: "Daily Plan", Price: 1, PlanType: domain.PlanTypeDaily},
		"weekly-plan":    {ID: "weekly-plan", Name: "Weekly Plan", Price: 400, PlanType: domain.PlanTypeWeekly},
		"monthly-plan":   {ID: "monthly-plan", Name: "Monthly Plan", Price: 1, PlanType: domain.PlanTypeMonthly},
		"customise-plan": {ID: "customise-plan", Name: "Customise Plan", Price: 0, PlanType: domain.PlanTypeCustom},
	}}
}

func (m *mockCatalog) GetPlan(_ context.Context, id string) (domain.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return domain.Plan{}, catalog.ErrPlanNotFound
	}
	return p, nil
}

type mockLedger struct {
	entries []domain.LedgerEntry
	err     error
}

func (m *mockLedger) ListByUser(_ context.Context, userID string) ([]domain.LedgerEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
