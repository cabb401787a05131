package http

import (
	"context"
	"sync"

	"github.com/pittas-dairy/storefront/internal/checkout"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/pittas-dairy/storefront/internal/service"
)

type MockCartService struct {
	cart    *domain.Cart
	count   int
	err     error
	added   string
	freq    domain.DeliveryFrequency
	removed string
	cleared bool
}

func (m *MockCartService) Load(context.Context, string) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m *MockCartService) AddPlan(_ context.Context, _ string, planID string) (*domain.Cart, error) {
	m.added = planID
	return m.cart, m.err
}

func (m *MockCartService) SetFrequency(_ context.Context, _ string, itemID string, freq domain.DeliveryFrequency) (*domain.Cart, error) {
	m.freq = freq
	return m.cart, m.err
}

func (m *MockCartService) Remove(_ context.Context, _ string, itemID string) (*domain.Cart, error) {
	m.removed = itemID
	return m.cart, m.err
}

func (m *MockCartService) Clear(context.Context, string) error {
	m.cleared = m.err == nil
	return m.err
}

func (m *MockCartService) Count(context.Context, string) (int, error) {
	return m.count, m.err
}

type MockPlans struct {
	plans []domain.Plan
	err   error
}

func (m MockPlans) ListPlans(context.Context) ([]domain.Plan, error) {
	return m.plans, m.err
}

type MockDeliveryBook struct {
	details domain.DeliveryDetails
	err     error
}

func (m MockDeliveryBook) LoadDeliveryDetails(context.Context, string) (domain.DeliveryDetails, error) {
	return m.details, m.err
}

type MockDashboard struct {
	view *service.DashboardView
	err  error
}

func (m MockDashboard) Load(context.Context, string) (*service.DashboardView, error) {
	return m.view, m.err
}

// MockCheckouts replays a fixed event sequence for every started checkout.
type MockCheckouts struct {
	mu       sync.Mutex
	events   []checkout.Event
	started  []checkout.Request
	runCtx   context.Context
	statuses map[string]checkout.Event
	final    checkout.Event
	waitErr  error
}

func (m *MockCheckouts) Start(ctx context.Context, req checkout.Request) <-chan checkout.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, req)
	m.runCtx = ctx

	ch := make(chan checkout.Event, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (m *MockCheckouts) Status(userID, orderID string) (checkout.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.statuses[userID+"/"+orderID]
	return ev, ok
}

func (m *MockCheckouts) Wait(context.Context, string, string) (checkout.Event, error) {
	return m.final, m.waitErr
}

type MockWidget struct {
	completed map[string]payment.Verification
	dismissed []string
	err       error
}

func (m *MockWidget) Complete(orderID string, resp payment.Verification) error {
	if m.err != nil {
		return m.err
	}
	if m.completed == nil {
		m.completed = make(map[string]payment.Verification)
	}
	m.completed[orderID] = resp
	return nil
}

func (m *MockWidget) Dismiss(orderID string) error {
	if m.err != nil {
		return m.err
	}
	m.dismissed = append(m.dismissed, orderID)
	return nil
}

type MockScript struct {
	script []byte
	err    error
}

func (m MockScript) Load(context.Context) ([]byte, error) {
	return m.script, m.err
}
