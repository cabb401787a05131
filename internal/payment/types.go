package payment

// Order is a gateway order created for one checkout attempt. Amount is in
// paise.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id,omitempty"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions is what the hosted widget is opened with.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// Verification is the gateway's success callback, forwarded to the payment
// API to check the signature.
type Verification struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (v Verification) complete() bool {
	return v.OrderID != "" && v.PaymentID != "" && v.Signature != ""
}

// Outcome is the single result of a widget session. Err is one of
// ErrPaymentCancelled, ErrVerificationFailed or ErrInvalidPaymentResponse
// when Success is false.
type Outcome struct {
	Success   bool
	PaymentID string
	OrderID   string
	Err       error
}

func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order"`
	KeyID   string `json:"key_id"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}
