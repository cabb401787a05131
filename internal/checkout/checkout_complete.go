package checkout

import (
	"context"

	"github.com/pittas-dairy/storefront/internal/domain"
)

// persistLedger appends the entry keyed by the gateway payment id. A retried
// append for the same payment returns the entry already stored, which is only
// accepted when it belongs to this user and order.
func (a *attempt) persistLedger(ctx context.Context) error {
	if err := a.transition(domain.CheckoutStatusPersistingLedger); err != nil {
		return err
	}

	now := a.o.now().UTC()
	id := a.req.Identity
	entry := &domain.LedgerEntry{
		UserID:            id.UserID,
		UserName:          id.Name,
		UserEmail:         id.Email,
		CartItemsSnapshot: domain.Snapshot(a.cart.Items, now),
		DeliveryDetails:   a.req.Delivery,
		Transaction: domain.Transaction{
			PaymentID: a.outcome.PaymentID,
			OrderID:   a.outcome.OrderID,
			Amount:    a.charge,
			Date:      now,
		},
		CreatedAt: now,
	}

	stored, created, err := a.o.ledger.Append(ctx, entry)
	if err != nil {
		return &LedgerWriteError{PaymentID: a.outcome.PaymentID, Err: err}
	}
	if !created {
		if stored.UserID != id.UserID || stored.Transaction.OrderID != a.order.ID {
			a.logger.Error("payment already recorded for another checkout",
				"payment_id", a.outcome.PaymentID, "entry_id", stored.ID, "entry_order_id", stored.Transaction.OrderID)
			return &LedgerWriteError{PaymentID: a.outcome.PaymentID, Err: ErrPaymentRecordedElsewhere}
		}
		a.logger.Warn("ledger entry already recorded for payment", "payment_id", a.outcome.PaymentID, "entry_id", stored.ID)
	}
	a.entry = stored
	return nil
}

// clearCart removes the purchased items once the ledger entry is committed.
// A failure here leaves the entry marked uncleared for the recovery pass and
// does not fail the checkout: the customer has paid.
func (a *attempt) clearCart(ctx context.Context) error {
	if err := a.transition(domain.CheckoutStatusClearingCart); err != nil {
		return err
	}

	userID := a.req.Identity.UserID
	if err := a.o.cart.RemoveItems(ctx, userID, a.entry.ItemIDs()); err != nil {
		a.logger.Error("failed to clear cart after checkout, left for recovery", "entry_id", a.entry.ID, "error", err)
		return nil
	}

	if err := a.o.ledger.MarkCartCleared(ctx, a.entry.ID); err != nil {
		a.logger.Warn("failed to mark ledger entry cleared", "entry_id", a.entry.ID, "error", err)
	}
	return nil
}
