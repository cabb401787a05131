package payment

import (
	"errors"
	"fmt"
)

var (
	ErrGatewayLoad            = errors.New("failed to load payment gateway")
	ErrGatewayKeyMissing      = errors.New("payment key not provided by backend")
	ErrPaymentCancelled       = errors.New("payment cancelled")
	ErrVerificationFailed     = errors.New("verification failed")
	ErrInvalidPaymentResponse = errors.New("invalid payment response")
	ErrUnexpectedResponse     = errors.New("unexpected response from payment api")
	ErrSessionNotFound        = errors.New("no checkout is awaiting this order")
)

// NetworkError is a transport-level failure talking to the payment API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// OrderCreationError means the payment API was reached but refused the order.
type OrderCreationError struct {
	StatusCode int
	Message    string
}

func (e *OrderCreationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("failed to create order: status %d", e.StatusCode)
	}
	return "failed to create order: " + e.Message
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
