package checkout

import (
	"context"

	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// createOrder asks the gateway for an order charging the rounded total.
func (a *attempt) createOrder(ctx context.Context) error {
	if err := a.transition(domain.CheckoutStatusCreatingOrder); err != nil {
		return err
	}

	order, err := a.o.gateway.CreateOrder(ctx, decimal.NewFromInt(a.charge), pricing.Currency)
	if err != nil {
		return err
	}
	a.order = order
	a.logger.Info("payment order created", "order_id", order.ID, "amount_paise", order.Amount)
	return nil
}
