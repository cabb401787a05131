package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle              CheckoutStatus = "IDLE"
	CheckoutStatusSavingAddress     CheckoutStatus = "SAVING_ADDRESS"
	CheckoutStatusCreatingOrder     CheckoutStatus = "CREATING_ORDER"
	CheckoutStatusAwaitingGatewayUI CheckoutStatus = "AWAITING_GATEWAY_UI"
	CheckoutStatusVerifyingPayment  CheckoutStatus = "VERIFYING_PAYMENT"
	CheckoutStatusPersistingLedger  CheckoutStatus = "PERSISTING_LEDGER"
	CheckoutStatusClearingCart      CheckoutStatus = "CLEARING_CART"
	CheckoutStatusDone              CheckoutStatus = "DONE"
	CheckoutStatusFailed            CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus]CheckoutStatus{
	CheckoutStatusIdle:              CheckoutStatusSavingAddress,
	CheckoutStatusSavingAddress:     CheckoutStatusCreatingOrder,
	CheckoutStatusCreatingOrder:     CheckoutStatusAwaitingGatewayUI,
	CheckoutStatusAwaitingGatewayUI: CheckoutStatusVerifyingPayment,
	CheckoutStatusVerifyingPayment:  CheckoutStatusPersistingLedger,
	CheckoutStatusPersistingLedger:  CheckoutStatusClearingCart,
	CheckoutStatusClearingCart:      CheckoutStatusDone,
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusDone || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo allows the single forward step of the checkout sequence,
// or a halt into Failed from any non-terminal state.
func CanTransitionTo(from, to CheckoutStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == CheckoutStatusFailed {
		return true
	}
	return checkoutTransitions[from] == to
}
