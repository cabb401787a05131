package checkout

import (
	"context"

	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/payment"
)

// awaitGateway opens the hosted widget. The AwaitingGatewayUI event carries
// the widget options and is only sent once the session is live.
func (a *attempt) awaitGateway(ctx context.Context) error {
	if err := a.enter(domain.CheckoutStatusAwaitingGatewayUI); err != nil {
		return err
	}

	session, err := a.o.gateway.Open(ctx, a.order, a.prefill())
	if err != nil {
		return err
	}
	a.session = session

	opts := session.Options
	a.publish(Event{Status: a.status, Order: a.order, Options: &opts})
	return nil
}

// verifyPayment waits, with no deadline of its own, for the customer to pay
// or dismiss the widget, then verifies the gateway callback. A callback for
// any order but the one this run created is rejected without asking the
// backend.
func (a *attempt) verifyPayment(ctx context.Context) error {
	resp, err := a.session.Await(ctx)
	if err != nil {
		return err
	}

	if err := a.transition(domain.CheckoutStatusVerifyingPayment); err != nil {
		return err
	}

	if resp.OrderID != a.order.ID {
		a.logger.Warn("payment callback names another order",
			"order_id", a.order.ID, "callback_order_id", resp.OrderID, "payment_id", resp.PaymentID)
		return payment.ErrInvalidPaymentResponse
	}

	outcome, err := a.o.gateway.Verify(ctx, resp)
	if err != nil {
		return err
	}
	a.outcome = outcome
	if !outcome.Success {
		return outcome.Err
	}
	return nil
}

func (a *attempt) prefill() payment.Prefill {
	id := a.req.Identity
	return payment.Prefill{
		Name:    id.Name,
		Email:   id.Email,
		Contact: id.Phone,
	}
}
