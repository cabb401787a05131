package checkout

import (
	"context"

	"github.com/pittas-dairy/storefront/internal/domain"
)

func (a *attempt) saveAddress(ctx context.Context) error {
	if err := a.transition(domain.CheckoutStatusSavingAddress); err != nil {
		return err
	}

	if err := a.o.address.SaveDeliveryDetails(ctx, a.req.Identity.UserID, a.req.Delivery); err != nil {
		return &AddressPersistError{Err: err}
	}
	return nil
}
