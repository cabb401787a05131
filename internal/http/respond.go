package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pittas-dairy/storefront/internal/catalog"
	"github.com/pittas-dairy/storefront/internal/checkout"
	"github.com/pittas-dairy/storefront/internal/logging"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/pittas-dairy/storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps application errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "code", code, "error", err)
	}
	if code == "internal_error" {
		message = "internal server error"
	}
	respondError(w, status, code, message)
}

func classify(err error) (int, string) {
	var (
		orderErr   *payment.OrderCreationError
		addressErr *checkout.AddressPersistError
		ledgerErr  *checkout.LedgerWriteError
	)

	switch {
	case errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidFrequency):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, checkout.ErrMissingIdentity):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, catalog.ErrPlanNotFound):
		return http.StatusNotFound, "plan_not_found"
	case errors.Is(err, checkout.ErrUnknownOrder):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateItem):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, checkout.ErrLockLost):
		return http.StatusConflict, "checkout_lock_lost"
	case errors.Is(err, checkout.ErrPaymentRecordedElsewhere):
		return http.StatusConflict, "payment_already_recorded"
	case errors.Is(err, payment.ErrSessionNotFound):
		return http.StatusConflict, "not_awaiting_payment"
	case errors.Is(err, service.ErrCustomPlan):
		return http.StatusUnprocessableEntity, "custom_plan"
	case errors.Is(err, payment.ErrVerificationFailed),
		errors.Is(err, payment.ErrInvalidPaymentResponse):
		return http.StatusPaymentRequired, "payment_failed"
	case errors.As(err, &orderErr),
		payment.IsNetworkError(err),
		errors.Is(err, payment.ErrGatewayLoad),
		errors.Is(err, payment.ErrGatewayKeyMissing),
		errors.Is(err, payment.ErrUnexpectedResponse):
		return http.StatusBadGateway, "gateway_error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &addressErr):
		return http.StatusInternalServerError, "address_not_saved"
	case errors.As(err, &ledgerErr):
		return http.StatusInternalServerError, "ledger_write_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
