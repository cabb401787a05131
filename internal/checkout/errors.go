package checkout

import (
	"errors"
	"fmt"

	"github.com/pittas-dairy/storefront/internal/cache"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this user")
	ErrMissingIdentity    = errors.New("checkout needs a signed-in user")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
	ErrUnknownOrder       = errors.New("no checkout known for this order")
	ErrLockLost           = cache.ErrLockLost

	// ErrPaymentRecordedElsewhere means the ledger already holds this payment
	// for a different user or order.
	ErrPaymentRecordedElsewhere = errors.New("payment is already recorded for another checkout")
)

// AddressPersistError means the delivery details could not be saved; no
// order was created.
type AddressPersistError struct {
	Err error
}

func (e *AddressPersistError) Error() string {
	return fmt.Sprintf("failed to save delivery address: %v", e.Err)
}

func (e *AddressPersistError) Unwrap() error {
	return e.Err
}

// LedgerWriteError means the payment went through but its ledger entry could
// not be written.
type LedgerWriteError struct {
	PaymentID string
	Err       error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("failed to record payment %s: %v", e.PaymentID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}
