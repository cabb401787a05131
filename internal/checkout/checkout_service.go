package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/logging"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/pittas-dairy/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Cart is read straight from the store at checkout; a cached copy could
// price a cart that has since changed.
type Cart interface {
	LoadFresh(ctx context.Context, userID string) (*domain.Cart, error)
	RemoveItems(ctx context.Context, userID string, itemIDs []string) error
}

type AddressBook interface {
	SaveDeliveryDetails(ctx context.Context, userID string, details domain.DeliveryDetails) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, cur currency.Unit) (*payment.Order, error)
	Open(ctx context.Context, order *payment.Order, prefill payment.Prefill) (*payment.Session, error)
	Verify(ctx context.Context, resp payment.Verification) (payment.Outcome, error)
}

type Ledger interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, bool, error)
	MarkCartCleared(ctx context.Context, entryID string) error
}

type Request struct {
	Identity domain.Identity
	Delivery domain.DeliveryDetails
}

// Orchestrator runs checkouts. Each run is strictly sequential and is never
// retried; a per-user lock, kept alive for the whole run, keeps two runs for
// one user apart.
type Orchestrator struct {
	cart    Cart
	address AddressBook
	gateway Gateway
	ledger  Ledger
	locker  cache.Locker
	logger  *slog.Logger
	now     func() time.Time

	tracker *tracker
}

func NewOrchestrator(cart Cart, address AddressBook, gateway Gateway, ledger Ledger, locker cache.Locker, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cart:    cart,
		address: address,
		gateway: gateway,
		ledger:  ledger,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
		tracker: newTracker(time.Hour),
	}
}

// maxEvents covers every state of one run, so sends never block.
const maxEvents = 8

// Start begins a checkout and returns its event stream. The channel is closed
// after the terminal event. The run stops early only if ctx ends.
func (o *Orchestrator) Start(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, maxEvents)

	a := &attempt{
		o:      o,
		req:    req,
		events: events,
		status: domain.CheckoutStatusIdle,
		logger: o.loggerFor(ctx).With("user_id", req.Identity.UserID),
	}
	go a.run(ctx)

	return events
}

// loggerFor prefers the request logger carried by ctx.
func (o *Orchestrator) loggerFor(ctx context.Context) *slog.Logger {
	if l, ok := logging.FromContextOK(ctx); ok {
		return l
	}
	return o.logger
}

// Checkout runs a checkout to completion and returns its result.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) *Result {
	var last Event
	for ev := range o.Start(ctx, req) {
		last = ev
	}
	return last.Result
}

// Status returns the latest event of the user's checkout for orderID.
func (o *Orchestrator) Status(userID, orderID string) (Event, bool) {
	return o.tracker.latest(userID, orderID)
}

// Wait blocks until the user's checkout for orderID is terminal.
func (o *Orchestrator) Wait(ctx context.Context, userID, orderID string) (Event, error) {
	return o.tracker.wait(ctx, userID, orderID)
}

type attempt struct {
	o      *Orchestrator
	req    Request
	events chan<- Event
	status domain.CheckoutStatus
	logger *slog.Logger

	cart    *domain.Cart
	charge  int64
	order   *payment.Order
	session *payment.Session
	outcome payment.Outcome
	entry   *domain.LedgerEntry
}

func (a *attempt) run(ctx context.Context) {
	defer close(a.events)

	result := a.execute(ctx)
	a.status = result.Status
	a.publish(Event{Status: result.Status, Order: a.order, Result: result})
}

func (a *attempt) execute(ctx context.Context) *Result {
	userID := a.req.Identity.UserID
	if userID == "" {
		return a.fail(ErrMissingIdentity)
	}

	lease, err := a.o.locker.Acquire(ctx, userID)
	if errors.Is(err, cache.ErrLockHeld) {
		return a.fail(ErrCheckoutInProgress)
	}
	if err != nil {
		return a.fail(err)
	}
	defer a.release(lease)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	defer a.holdLock(ctx, lease, cancel)()

	a.cart, err = a.o.cart.LoadFresh(ctx, userID)
	if err != nil {
		return a.fail(err)
	}
	if a.cart.IsEmpty() {
		return a.fail(ErrEmptyCart)
	}
	a.charge = pricing.Price(a.cart.Items).Charge()

	steps := []func(context.Context) error{
		a.saveAddress,
		a.createOrder,
		a.awaitGateway,
		a.verifyPayment,
		a.persistLedger,
		a.clearCart,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			if cause := context.Cause(ctx); errors.Is(cause, ErrLockLost) {
				err = cause
			}
			return a.fail(err)
		}
	}

	if err := a.transition(domain.CheckoutStatusDone); err != nil {
		return a.fail(err)
	}
	return &Result{
		Status:    domain.CheckoutStatusDone,
		PaymentID: a.entry.Transaction.PaymentID,
		OrderID:   a.entry.Transaction.OrderID,
		Amount:    a.entry.Transaction.Amount,
		EntryID:   a.entry.ID,
	}
}

// transition moves to the next state and announces it.
func (a *attempt) transition(to domain.CheckoutStatus) error {
	if err := a.enter(to); err != nil {
		return err
	}
	if !to.IsTerminal() {
		a.publish(Event{Status: to, Order: a.order})
	}
	return nil
}

// enter moves to the next state without announcing it.
func (a *attempt) enter(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(a.status, to) {
		a.logger.Error("illegal checkout transition", "from", a.status, "to", to)
		return ErrIllegalTransition
	}
	a.status = to
	a.logger.Info("checkout transition", "status", to, "order_id", a.orderID())
	return nil
}

func (a *attempt) publish(ev Event) {
	ev.At = a.o.now()
	if a.order != nil {
		a.o.tracker.record(a.req.Identity.UserID, a.order.ID, ev)
	}
	a.events <- ev
}

func (a *attempt) fail(err error) *Result {
	result := &Result{
		Status:   domain.CheckoutStatusFailed,
		FailedAt: a.status,
		Reason:   err.Error(),
		Err:      err,
		Amount:   a.charge,
	}
	if a.order != nil {
		result.OrderID = a.order.ID
	}
	result.PaymentID = a.outcome.PaymentID

	if result.Unsuccessful() {
		a.logger.Info("checkout unsuccessful", "failed_at", a.status, "order_id", a.orderID(), "reason", err.Error())
	} else {
		a.logger.Error("checkout failed", "failed_at", a.status, "order_id", a.orderID(), "error", err)
	}
	return result
}

// holdLock extends the lease every third of its TTL until the returned stop
// func is called. A lost lease cancels the run with ErrLockLost, which also
// closes an open widget session.
func (a *attempt) holdLock(ctx context.Context, lease cache.Lease, cancel context.CancelCauseFunc) (stop func()) {
	interval := lease.TTL() / 3
	if interval <= 0 {
		interval = time.Millisecond
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				extendCtx, cancelExtend := context.WithTimeout(ctx, interval)
				err := lease.Extend(extendCtx)
				cancelExtend()
				if errors.Is(err, cache.ErrLockLost) {
					a.logger.Error("checkout lock lost, abandoning run")
					cancel(ErrLockLost)
					return
				}
				if err != nil {
					a.logger.Warn("failed to extend checkout lock", "error", err)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (a *attempt) release(lease cache.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lease.Release(ctx); err != nil {
		a.logger.Warn("failed to release checkout lock", "error", err)
	}
}

func (a *attempt) orderID() string {
	if a.order == nil {
		return ""
	}
	return a.order.ID
}
