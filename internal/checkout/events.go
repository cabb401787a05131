package checkout

import (
	"errors"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/payment"
)

// Event is sent on every state the checkout enters. Order is set once the
// gateway order exists, Options once the widget is open, Result only on the
// terminal event.
type Event struct {
	Status  domain.CheckoutStatus    `json:"status"`
	At      time.Time                `json:"at"`
	Order   *payment.Order           `json:"order,omitempty"`
	Options *payment.CheckoutOptions `json:"options,omitempty"`
	Result  *Result                  `json:"result,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Status.IsTerminal()
}

type Result struct {
	Status    domain.CheckoutStatus `json:"status"`
	FailedAt  domain.CheckoutStatus `json:"failedAt,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	Err       error                 `json:"-"`
	PaymentID string                `json:"paymentId,omitempty"`
	OrderID   string                `json:"orderId,omitempty"`
	Amount    int64                 `json:"amount"`
	EntryID   string                `json:"entryId,omitempty"`
}

func (r *Result) Succeeded() bool {
	return r.Status == domain.CheckoutStatusDone
}

// Cancelled reports a checkout the customer walked away from.
func (r *Result) Cancelled() bool {
	return errors.Is(r.Err, payment.ErrPaymentCancelled)
}

// Unsuccessful reports outcomes that are not application errors: the
// customer cancelled, or the payment did not verify.
func (r *Result) Unsuccessful() bool {
	return r.Cancelled() ||
		errors.Is(r.Err, payment.ErrVerificationFailed) ||
		errors.Is(r.Err, payment.ErrInvalidPaymentResponse)
}
