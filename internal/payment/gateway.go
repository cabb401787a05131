package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	merchantName        = "Pitta's Organic Dairy"
	merchantDescription = "Fresh Organic Milk Subscription"
	themeColor          = "#3B82F6"
)

type Backend interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, cur currency.Unit) (*Order, error)
	VerifyPayment(ctx context.Context, v Verification) (bool, error)
}

type ScriptLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// Gateway drives one payment handshake: order creation on the backend, the
// hosted widget, and signature verification of the widget's callback.
type Gateway struct {
	backend Backend
	sdk     ScriptLoader
	widget  Widget
	logger  *slog.Logger
}

func NewGateway(backend Backend, sdk ScriptLoader, widget Widget, logger *slog.Logger) *Gateway {
	return &Gateway{
		backend: backend,
		sdk:     sdk,
		widget:  widget,
		logger:  logger,
	}
}

func (g *Gateway) CreateOrder(ctx context.Context, amount decimal.Decimal, cur currency.Unit) (*Order, error) {
	return g.backend.CreateOrder(ctx, amount, cur)
}

func (g *Gateway) VerifyPayment(ctx context.Context, v Verification) (bool, error) {
	return g.backend.VerifyPayment(ctx, v)
}

func (g *Gateway) LoadSDK(ctx context.Context) error {
	_, err := g.sdk.Load(ctx)
	return err
}

// InitializePayment opens the widget for order and blocks until the customer
// pays or dismisses it, or ctx ends. Cancellation, a malformed callback and
// failed verification come back as an unsuccessful Outcome, not as an error.
func (g *Gateway) InitializePayment(ctx context.Context, order *Order, prefill Prefill) (Outcome, error) {
	s, err := g.Open(ctx, order, prefill)
	if err != nil {
		return Outcome{}, err
	}

	resp, err := s.Await(ctx)
	if errors.Is(err, ErrPaymentCancelled) {
		return Outcome{Err: ErrPaymentCancelled}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	return g.Verify(ctx, resp)
}

// Open loads the SDK and opens the widget for order. The session is live in
// the widget once Open returns.
func (g *Gateway) Open(ctx context.Context, order *Order, prefill Prefill) (*Session, error) {
	if err := g.LoadSDK(ctx); err != nil {
		return nil, err
	}
	if order.KeyID == "" {
		return nil, ErrGatewayKeyMissing
	}

	s := &Session{
		Options: CheckoutOptions{
			Key:         order.KeyID,
			Amount:      order.Amount,
			Currency:    order.Currency,
			Name:        merchantName,
			Description: merchantDescription,
			OrderID:     order.ID,
			Prefill:     prefill,
			Theme:       Theme{Color: themeColor},
		},
		callbacks: make(chan callback, 1),
		widget:    g.widget,
	}

	handler := func(resp Verification) {
		s.deliver(callback{resp: resp})
	}
	onDismiss := func() {
		g.logger.Info("payment widget dismissed", "order_id", order.ID)
		s.deliver(callback{dismissed: true})
	}

	if err := g.widget.Open(ctx, s.Options, handler, onDismiss); err != nil {
		return nil, err
	}
	return s, nil
}

// Verify checks a gateway callback with the backend. A callback missing any
// field is rejected without contacting the backend.
func (g *Gateway) Verify(ctx context.Context, resp Verification) (Outcome, error) {
	if !resp.complete() {
		g.logger.Warn("invalid payment response", "order_id", resp.OrderID, "payment_id", resp.PaymentID)
		return Outcome{Err: ErrInvalidPaymentResponse}, nil
	}

	verified, err := g.backend.VerifyPayment(ctx, resp)
	if err != nil {
		return Outcome{}, err
	}
	if !verified {
		g.logger.Warn("payment verification failed", "order_id", resp.OrderID, "payment_id", resp.PaymentID)
		return Outcome{Err: ErrVerificationFailed}, nil
	}

	return Outcome{
		Success:   true,
		PaymentID: resp.PaymentID,
		OrderID:   resp.OrderID,
	}, nil
}

type callback struct {
	resp      Verification
	dismissed bool
}

type Session struct {
	Options CheckoutOptions

	callbacks chan callback
	widget    Widget
}

// Await blocks until the widget reports back. A dismissed widget yields
// ErrPaymentCancelled.
func (s *Session) Await(ctx context.Context) (Verification, error) {
	select {
	case cb := <-s.callbacks:
		if cb.dismissed {
			return Verification{}, ErrPaymentCancelled
		}
		return cb.resp, nil
	case <-ctx.Done():
		s.widget.Close(s.Options.OrderID)
		return Verification{}, ctx.Err()
	}
}

func (s *Session) deliver(cb callback) {
	select {
	case s.callbacks <- cb:
	default:
	}
}
