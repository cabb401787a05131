package checkout

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/logging"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/pittas-dairy/storefront/internal/paymentapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const userID = "user-1"

var checkoutAt = time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

var (
	dailyOnce = domain.CartItem{
		ID: "daily-plan", Name: "Daily Fresh Milk", BasePrice: 1,
		PlanType: domain.PlanTypeDaily, DeliveryFrequency: domain.DeliveryOnce,
	}
	weeklyTwice = domain.CartItem{
		ID: "weekly-plan", Name: "Weekly Family Pack", BasePrice: 400,
		PlanType: domain.PlanTypeWeekly, DeliveryFrequency: domain.DeliveryTwice,
	}
)

type harness struct {
	cart    *MockCart
	address *MockAddressBook
	ledger  *MockLedger
	backend *MockBackend
	widget  *payment.HostedWidget
	locker  *cache.MemoryLocker
	orch    *Orchestrator
}

func newHarness(t *testing.T, loader MockLoader) *harness {
	t.Helper()

	h := &harness{
		cart:    NewMockCart(),
		address: &MockAddressBook{},
		ledger:  &MockLedger{},
		backend: &MockBackend{KeyID: "rzp_test_key", Verified: true},
		widget:  payment.NewHostedWidget(),
		locker:  cache.NewMemoryLocker(time.Minute),
	}
	h.cart.Set(userID, dailyOnce, weeklyTwice)

	gateway := payment.NewGateway(h.backend, loader, h.widget, logging.Discard())
	h.orch = NewOrchestrator(h.cart, h.address, gateway, h.ledger, h.locker, logging.Discard())
	h.orch.now = func() time.Time { return checkoutAt }
	return h
}

func request() Request {
	return Request{
		Identity: domain.Identity{UserID: userID, Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"},
		Delivery: domain.DeliveryDetails{
			CompleteAddress: "12 MG Road, Bengaluru",
			City:            "Bengaluru",
			Street:          "MG Road",
			Pincode:         "560001",
			PreferredTiming: "morning",
		},
	}
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for checkout event")
	}
	return Event{}
}

// untilWidget reads events up to and including the one announcing the open widget.
func untilWidget(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var seen []Event
	for {
		ev := next(t, events)
		seen = append(seen, ev)
		require.False(t, ev.Terminal(), "checkout ended before the widget opened: %+v", ev.Result)
		if ev.Status == domain.CheckoutStatusAwaitingGatewayUI {
			return seen
		}
	}
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var seen []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return seen
			}
			seen = append(seen, ev)
		case <-timeout:
			t.Fatal("timed out waiting for checkout to finish")
		}
	}
}

func statuses(events []Event) []domain.CheckoutStatus {
	out := make([]domain.CheckoutStatus, len(events))
	for i, ev := range events {
		out[i] = ev.Status
	}
	return out
}

func paid(orderID string) payment.Verification {
	return payment.Verification{OrderID: orderID, PaymentID: "pay_123", Signature: "sig_abc"}
}

// pay runs a checkout through the widget, answering it with respond.
func (h *harness) pay(t *testing.T, respond func(orderID string) error) ([]Event, *Result) {
	t.Helper()
	events := h.orch.Start(context.Background(), request())

	seen := untilWidget(t, events)
	orderID := seen[len(seen)-1].Order.ID
	require.NoError(t, respond(orderID))

	seen = append(seen, drain(t, events)...)
	last := seen[len(seen)-1]
	require.True(t, last.Terminal())
	require.NotNil(t, last.Result)
	return seen, last.Result
}

func TestCheckout_Success(t *testing.T) {
	h := newHarness(t, MockLoader{})

	events, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid(orderID))
	})

	assert.Equal(t, []domain.CheckoutStatus{
		domain.CheckoutStatusSavingAddress,
		domain.CheckoutStatusCreatingOrder,
		domain.CheckoutStatusAwaitingGatewayUI,
		domain.CheckoutStatusVerifyingPayment,
		domain.CheckoutStatusPersistingLedger,
		domain.CheckoutStatusClearingCart,
		domain.CheckoutStatusDone,
	}, statuses(events))

	require.True(t, result.Succeeded(), result.Reason)
	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Equal(t, int64(841), result.Amount)

	require.Len(t, h.backend.Created, 1)
	assert.True(t, h.backend.Created[0].Equal(decimal.NewFromInt(841)))

	assert.Equal(t, request().Delivery, h.address.Saved[userID])
	assert.Empty(t, h.cart.Items(userID))

	entries := h.ledger.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, result.EntryID, entry.ID)
	assert.Equal(t, userID, entry.UserID)
	assert.Equal(t, "Asha Rao", entry.UserName)
	assert.Equal(t, "asha@example.com", entry.UserEmail)
	assert.Equal(t, request().Delivery, entry.DeliveryDetails)
	assert.Equal(t, domain.Transaction{
		PaymentID: "pay_123",
		OrderID:   result.OrderID,
		Amount:    841,
		Date:      checkoutAt,
	}, entry.Transaction)
	assert.True(t, entry.CartCleared)

	require.Len(t, entry.CartItemsSnapshot, 2)
	assert.Equal(t, checkoutAt.AddDate(0, 1, 0), *entry.CartItemsSnapshot[0].EndDate)
	assert.Equal(t, checkoutAt.AddDate(0, 0, 7), *entry.CartItemsSnapshot[1].EndDate)

	_, err := h.locker.Acquire(context.Background(), userID)
	assert.NoError(t, err, "lock must be released after the run")
}

func TestCheckout_WidgetOptions(t *testing.T) {
	h := newHarness(t, MockLoader{})
	events := h.orch.Start(context.Background(), request())

	seen := untilWidget(t, events)
	ev := seen[len(seen)-1]
	require.NotNil(t, ev.Options)
	assert.Equal(t, payment.CheckoutOptions{
		Key:         "rzp_test_key",
		Amount:      84100,
		Currency:    "INR",
		Name:        "Pitta's Organic Dairy",
		Description: "Fresh Organic Milk Subscription",
		OrderID:     ev.Order.ID,
		Prefill:     payment.Prefill{Name: "Asha Rao", Email: "asha@example.com", Contact: "9876543210"},
		Theme:       payment.Theme{Color: "#3B82F6"},
	}, *ev.Options)

	require.NoError(t, h.widget.Dismiss(ev.Order.ID))
	drain(t, events)
}

func TestCheckout_Cancelled(t *testing.T) {
	h := newHarness(t, MockLoader{})

	_, result := h.pay(t, h.widget.Dismiss)

	assert.Equal(t, domain.CheckoutStatusFailed, result.Status)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, result.FailedAt)
	assert.Equal(t, "payment cancelled", result.Reason)
	assert.True(t, result.Cancelled())
	assert.True(t, result.Unsuccessful())

	assert.Empty(t, h.ledger.All())
	assert.Len(t, h.cart.Items(userID), 2)
	assert.Zero(t, h.backend.verifyCalls())
}

func TestCheckout_VerificationFailed(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.backend.Verified = false

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid(orderID))
	})

	assert.Equal(t, domain.CheckoutStatusVerifyingPayment, result.FailedAt)
	assert.Equal(t, "verification failed", result.Reason)
	assert.ErrorIs(t, result.Err, payment.ErrVerificationFailed)
	assert.True(t, result.Unsuccessful())
	assert.False(t, result.Cancelled())

	assert.Empty(t, h.ledger.All())
	assert.Len(t, h.cart.Items(userID), 2)
}

func TestCheckout_MalformedCallback(t *testing.T) {
	h := newHarness(t, MockLoader{})

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, payment.Verification{OrderID: orderID, PaymentID: "pay_123"})
	})

	assert.Equal(t, domain.CheckoutStatusVerifyingPayment, result.FailedAt)
	assert.Equal(t, "invalid payment response", result.Reason)
	assert.Zero(t, h.backend.verifyCalls(), "malformed callbacks are not sent for verification")
	assert.Empty(t, h.ledger.All())
}

func TestCheckout_VerifyNetworkError(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.backend.VerifyErr = &payment.NetworkError{Op: "verify-payment", Err: errors.New("connection refused")}

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid(orderID))
	})

	assert.Equal(t, domain.CheckoutStatusVerifyingPayment, result.FailedAt)
	assert.True(t, payment.IsNetworkError(result.Err))
	assert.False(t, result.Unsuccessful())
	assert.Empty(t, h.ledger.All())
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.cart.Set(userID)

	result := h.orch.Checkout(context.Background(), request())

	assert.Equal(t, domain.CheckoutStatusIdle, result.FailedAt)
	assert.ErrorIs(t, result.Err, ErrEmptyCart)
	assert.Empty(t, h.address.Saved)
	assert.Zero(t, h.backend.createCalls())
}

func TestCheckout_MissingIdentity(t *testing.T) {
	h := newHarness(t, MockLoader{})

	result := h.orch.Checkout(context.Background(), Request{})

	assert.ErrorIs(t, result.Err, ErrMissingIdentity)
	assert.Equal(t, domain.CheckoutStatusIdle, result.FailedAt)
}

func TestCheckout_CartLoadError(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.cart.LoadErr = errors.New("mongo down")

	result := h.orch.Checkout(context.Background(), request())

	assert.EqualError(t, result.Err, "mongo down")
	assert.Equal(t, domain.CheckoutStatusIdle, result.FailedAt)
}

func TestCheckout_AddressSaveFails(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.address.Err = errors.New("write conflict")

	events := h.orch.Start(context.Background(), request())
	seen := drain(t, events)

	assert.Equal(t, []domain.CheckoutStatus{
		domain.CheckoutStatusSavingAddress,
		domain.CheckoutStatusFailed,
	}, statuses(seen))

	result := seen[len(seen)-1].Result
	var ape *AddressPersistError
	require.ErrorAs(t, result.Err, &ape)
	assert.Equal(t, domain.CheckoutStatusSavingAddress, result.FailedAt)
	assert.Zero(t, h.backend.createCalls(), "no order may be created without a saved address")
}

func TestCheckout_OrderCreationFails(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.backend.CreateErr = &payment.OrderCreationError{StatusCode: 500, Message: "gateway unavailable"}

	result := h.orch.Checkout(context.Background(), request())

	var oce *payment.OrderCreationError
	require.ErrorAs(t, result.Err, &oce)
	assert.Equal(t, domain.CheckoutStatusCreatingOrder, result.FailedAt)
	assert.Empty(t, result.OrderID)
	assert.Equal(t, int64(841), result.Amount)
}

func TestCheckout_GatewayScriptFails(t *testing.T) {
	h := newHarness(t, MockLoader{Err: payment.ErrGatewayLoad})

	result := h.orch.Checkout(context.Background(), request())

	assert.ErrorIs(t, result.Err, payment.ErrGatewayLoad)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, result.FailedAt)
	assert.NotEmpty(t, result.OrderID)
	assert.Empty(t, h.ledger.All())
}

func TestCheckout_GatewayKeyMissing(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.backend.KeyID = ""

	result := h.orch.Checkout(context.Background(), request())

	assert.ErrorIs(t, result.Err, payment.ErrGatewayKeyMissing)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, result.FailedAt)
}

func TestCheckout_LedgerWriteFails(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.ledger.AppendErr = errors.New("not primary")

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid(orderID))
	})

	var lwe *LedgerWriteError
	require.ErrorAs(t, result.Err, &lwe)
	assert.Equal(t, "pay_123", lwe.PaymentID)
	assert.Equal(t, domain.CheckoutStatusPersistingLedger, result.FailedAt)
	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Len(t, h.cart.Items(userID), 2, "cart stays intact when the ledger write fails")
}

func TestCheckout_CartClearFailsStillDone(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.cart.RemoveErr = errors.New("timeout")

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid(orderID))
	})

	require.True(t, result.Succeeded())
	entries := h.ledger.All()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].CartCleared, "entry is left for the recovery pass")
	assert.Len(t, h.cart.Items(userID), 2)
}

func TestCheckout_PaymentAlreadyRecordedForThisOrder(t *testing.T) {
	h := newHarness(t, MockLoader{})

	_, result := h.pay(t, func(orderID string) error {
		h.ledger.Seed(&domain.LedgerEntry{
			ID:                "entry-existing",
			UserID:            userID,
			CartItemsSnapshot: domain.Snapshot([]domain.CartItem{dailyOnce, weeklyTwice}, checkoutAt),
			Transaction:       domain.Transaction{PaymentID: "pay_123", OrderID: orderID, Amount: 841},
		})
		return h.widget.Complete(orderID, paid(orderID))
	})

	require.True(t, result.Succeeded(), result.Reason)
	assert.Equal(t, "entry-existing", result.EntryID)
	assert.Len(t, h.ledger.All(), 1)
	assert.Empty(t, h.cart.Items(userID))
}

func TestCheckout_PaymentRecordedForAnotherCheckout(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.LedgerEntry
	}{
		{
			name: "another order",
			entry: domain.LedgerEntry{
				ID:          "entry-other-order",
				UserID:      userID,
				Transaction: domain.Transaction{PaymentID: "pay_123", OrderID: "order_cheap_one", Amount: 1},
			},
		},
		{
			name: "another user",
			entry: domain.LedgerEntry{
				ID:     "entry-other-user",
				UserID: "user-2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, MockLoader{})

			_, result := h.pay(t, func(orderID string) error {
				entry := tt.entry
				entry.CartItemsSnapshot = domain.Snapshot([]domain.CartItem{dailyOnce}, checkoutAt)
				entry.Transaction.PaymentID = "pay_123"
				if entry.Transaction.OrderID == "" {
					entry.Transaction.OrderID = orderID
				}
				h.ledger.Seed(&entry)
				return h.widget.Complete(orderID, paid(orderID))
			})

			var lwe *LedgerWriteError
			require.ErrorAs(t, result.Err, &lwe)
			assert.ErrorIs(t, result.Err, ErrPaymentRecordedElsewhere)
			assert.Equal(t, domain.CheckoutStatusPersistingLedger, result.FailedAt)
			assert.Empty(t, result.EntryID)

			entries := h.ledger.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.entry.ID, entries[0].ID)
			assert.Len(t, h.cart.Items(userID), 2, "cart is left alone")
		})
	}
}

func TestCheckout_CallbackForAnotherOrder(t *testing.T) {
	h := newHarness(t, MockLoader{})

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, paid("order_cheap_one"))
	})

	assert.Equal(t, domain.CheckoutStatusVerifyingPayment, result.FailedAt)
	assert.ErrorIs(t, result.Err, payment.ErrInvalidPaymentResponse)
	assert.True(t, result.Unsuccessful())
	assert.Zero(t, h.backend.verifyCalls(), "callbacks for other orders are not sent for verification")
	assert.Empty(t, h.ledger.All())
	assert.Len(t, h.cart.Items(userID), 2)
}

func TestCheckout_ValidSignatureForAnotherOrderIsRejected(t *testing.T) {
	const secret = "test_secret"

	mux := http.NewServeMux()
	mux.Handle("/api/payment/", http.StripPrefix("/api/payment", paymentapi.NewHandler("rzp_test_key", secret).Routes()))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h := newHarness(t, MockLoader{})
	backend := payment.NewClientWithHTTP(srv.URL+"/api/payment", srv.Client())
	h.orch.gateway = payment.NewGateway(backend, MockLoader{}, h.widget, logging.Discard())

	_, result := h.pay(t, func(orderID string) error {
		return h.widget.Complete(orderID, payment.Verification{
			OrderID:   "order_cheap_one",
			PaymentID: "pay_cheap",
			Signature: paymentapi.Sign(secret, "order_cheap_one", "pay_cheap"),
		})
	})

	assert.Equal(t, domain.CheckoutStatusFailed, result.Status)
	assert.ErrorIs(t, result.Err, payment.ErrInvalidPaymentResponse)
	assert.Empty(t, h.ledger.All())
	assert.Len(t, h.cart.Items(userID), 2)
}

func TestCheckout_LockHeld(t *testing.T) {
	h := newHarness(t, MockLoader{})
	lease, err := h.locker.Acquire(context.Background(), userID)
	require.NoError(t, err)
	defer func() { _ = lease.Release(context.Background()) }()

	result := h.orch.Checkout(context.Background(), request())

	assert.ErrorIs(t, result.Err, ErrCheckoutInProgress)
	assert.Equal(t, domain.CheckoutStatusIdle, result.FailedAt)
	assert.Empty(t, h.address.Saved)
}

func TestCheckout_SecondRunWhileFirstAwaitsPayment(t *testing.T) {
	h := newHarness(t, MockLoader{})

	first := h.orch.Start(context.Background(), request())
	seen := untilWidget(t, first)

	second := h.orch.Checkout(context.Background(), request())
	assert.ErrorIs(t, second.Err, ErrCheckoutInProgress)

	require.NoError(t, h.widget.Dismiss(seen[len(seen)-1].Order.ID))
	drain(t, first)

	assert.Equal(t, 1, h.backend.createCalls())
}

func TestCheckout_LockHeldPastItsTTLWhileAwaiting(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.locker = cache.NewMemoryLocker(60 * time.Millisecond)
	h.orch.locker = h.locker

	first := h.orch.Start(context.Background(), request())
	seen := untilWidget(t, first)
	orderID := seen[len(seen)-1].Order.ID

	time.Sleep(200 * time.Millisecond)

	second := h.orch.Checkout(context.Background(), request())
	assert.ErrorIs(t, second.Err, ErrCheckoutInProgress)

	require.NoError(t, h.widget.Complete(orderID, paid(orderID)))
	rest := drain(t, first)

	require.True(t, rest[len(rest)-1].Result.Succeeded())
	assert.Equal(t, 1, h.backend.createCalls())
	assert.Len(t, h.ledger.All(), 1)
}

func TestCheckout_LockLostAbandonsRun(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.orch.locker = LosingLocker{TTL: 30 * time.Millisecond}

	seen := drain(t, h.orch.Start(context.Background(), request()))
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]

	require.NotNil(t, last.Result)
	assert.ErrorIs(t, last.Result.Err, ErrLockLost)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, last.Result.FailedAt)
	assert.Empty(t, h.ledger.All())
	assert.Len(t, h.cart.Items(userID), 2)

	require.NotNil(t, last.Order)
	_, open := h.widget.Options(last.Order.ID)
	assert.False(t, open, "widget session is closed once the lock is gone")
}

func TestCheckout_ContextCancelledWhileAwaiting(t *testing.T) {
	h := newHarness(t, MockLoader{})
	ctx, cancel := context.WithCancel(context.Background())

	events := h.orch.Start(ctx, request())
	seen := untilWidget(t, events)
	orderID := seen[len(seen)-1].Order.ID

	cancel()
	rest := drain(t, events)

	result := rest[len(rest)-1].Result
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, result.FailedAt)

	_, open := h.widget.Options(orderID)
	assert.False(t, open, "widget session is closed when the run is abandoned")
	assert.ErrorIs(t, h.widget.Complete(orderID, paid(orderID)), payment.ErrSessionNotFound)
}

func TestOrchestrator_StatusAndWait(t *testing.T) {
	h := newHarness(t, MockLoader{})

	events := h.orch.Start(context.Background(), request())
	seen := untilWidget(t, events)
	orderID := seen[len(seen)-1].Order.ID

	ev, ok := h.orch.Status(userID, orderID)
	require.True(t, ok)
	assert.Equal(t, domain.CheckoutStatusAwaitingGatewayUI, ev.Status)
	assert.NotNil(t, ev.Options)

	_, ok = h.orch.Status("someone-else", orderID)
	assert.False(t, ok, "runs are only visible to their owner")

	_, err := h.orch.Wait(context.Background(), "someone-else", orderID)
	assert.ErrorIs(t, err, ErrUnknownOrder)

	require.NoError(t, h.widget.Complete(orderID, paid(orderID)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	final, err := h.orch.Wait(ctx, userID, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusDone, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "pay_123", final.Result.PaymentID)

	drain(t, events)
}

func TestOrchestrator_WaitUnknownOrder(t *testing.T) {
	h := newHarness(t, MockLoader{})

	_, err := h.orch.Wait(context.Background(), userID, "order_missing")

	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestTracker_PrunesFinishedRuns(t *testing.T) {
	tr := newTracker(time.Hour)
	tr.record(userID, "order_old", Event{Status: domain.CheckoutStatusDone, At: checkoutAt})
	tr.record(userID, "order_live", Event{Status: domain.CheckoutStatusAwaitingGatewayUI, At: checkoutAt})

	tr.record(userID, "order_new", Event{Status: domain.CheckoutStatusSavingAddress, At: checkoutAt.Add(2 * time.Hour)})

	_, ok := tr.latest(userID, "order_old")
	assert.False(t, ok)
	_, ok = tr.latest(userID, "order_live")
	assert.True(t, ok, "runs still in flight are kept")
}

func TestCheckout_LogsToOrchestratorLoggerWithoutRequestLogger(t *testing.T) {
	h := newHarness(t, MockLoader{})
	h.cart.Set(userID)

	var own, fromRequest bytes.Buffer
	h.orch.logger = logging.NewWithWriter(&own, "debug")

	result := h.orch.Checkout(context.Background(), request())
	require.ErrorIs(t, result.Err, ErrEmptyCart)
	assert.Contains(t, own.String(), `"user_id":"user-1"`)

	own.Reset()
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&fromRequest, "debug"))
	result = h.orch.Checkout(ctx, request())
	require.ErrorIs(t, result.Err, ErrEmptyCart)
	assert.Empty(t, own.String(), "request logger takes precedence")
	assert.Contains(t, fromRequest.String(), `"user_id":"user-1"`)
}
