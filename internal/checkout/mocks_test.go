package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type MockCart struct {
	mu        sync.Mutex
	items     map[string][]domain.CartItem
	LoadErr   error
	RemoveErr error
}

func NewMockCart() *MockCart {
	return &MockCart{items: make(map[string][]domain.CartItem)}
}

func (m *MockCart) Set(userID string, items ...domain.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = items
}

func (m *MockCart) Items(userID string) []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CartItem, len(m.items[userID]))
	copy(out, m.items[userID])
	return out
}

func (m *MockCart) LoadFresh(_ context.Context, userID string) (*domain.Cart, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return &domain.Cart{UserID: userID, Items: m.Items(userID)}, nil
}

func (m *MockCart) RemoveItems(_ context.Context, userID string, itemIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	drop := make(map[string]bool)
	for _, id := range itemIDs {
		drop[id] = true
	}
	kept := []domain.CartItem{}
	for _, item := range m.items[userID] {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	m.items[userID] = kept
	return nil
}

type MockAddressBook struct {
	mu    sync.Mutex
	Err   error
	Saved map[string]domain.DeliveryDetails
}

func (m *MockAddressBook) SaveDeliveryDetails(_ context.Context, userID string, d domain.DeliveryDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Saved == nil {
		m.Saved = make(map[string]domain.DeliveryDetails)
	}
	m.Saved[userID] = d
	return nil
}

type MockLedger struct {
	mu        sync.Mutex
	Entries   []*domain.LedgerEntry
	AppendErr error
	MarkErr   error
}

func (m *MockLedger) Append(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, false, m.AppendErr
	}
	for _, e := range m.Entries {
		if e.Transaction.PaymentID == entry.Transaction.PaymentID {
			return e, false, nil
		}
	}
	stored := *entry
	stored.ID = uuid.NewString()
	m.Entries = append(m.Entries, &stored)
	return &stored, true, nil
}

func (m *MockLedger) Seed(entries ...*domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entries...)
}

func (m *MockLedger) MarkCartCleared(_ context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for _, e := range m.Entries {
		if e.ID == entryID {
			e.CartCleared = true
		}
	}
	return nil
}

func (m *MockLedger) All() []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LedgerEntry, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = *e
	}
	return out
}

// MockBackend stands in for the payment API.
type MockBackend struct {
	mu          sync.Mutex
	KeyID       string
	CreateErr   error
	Verified    bool
	VerifyErr   error
	Created     []decimal.Decimal
	VerifyCalls int
}

func (m *MockBackend) CreateOrder(_ context.Context, amount decimal.Decimal, cur currency.Unit) (*payment.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = append(m.Created, amount)
	return &payment.Order{
		ID:       "order_" + uuid.NewString()[:8],
		Amount:   amount.Round(0).IntPart() * 100,
		Currency: cur.String(),
		KeyID:    m.KeyID,
	}, nil
}

func (m *MockBackend) VerifyPayment(context.Context, payment.Verification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls++
	return m.Verified, m.VerifyErr
}

func (m *MockBackend) createCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

func (m *MockBackend) verifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.VerifyCalls
}

type MockLoader struct {
	Err error
}

func (m MockLoader) Load(context.Context) ([]byte, error) {
	return []byte("window.Razorpay = function() {}"), m.Err
}

// LosingLocker grants leases that are gone by the first extension, as when
// another instance took the lock over.
type LosingLocker struct {
	TTL time.Duration
}

func (l LosingLocker) Acquire(context.Context, string) (cache.Lease, error) {
	return lostLease{ttl: l.TTL}, nil
}

type lostLease struct {
	ttl time.Duration
}

func (l lostLease) TTL() time.Duration { return l.ttl }

func (lostLease) Extend(context.Context) error { return cache.ErrLockLost }

func (lostLease) Release(context.Context) error { return nil }
