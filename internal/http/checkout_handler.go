package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pittas-dairy/storefront/internal/checkout"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/logging"
	"github.com/pittas-dairy/storefront/internal/payment"
)

type Checkouts interface {
	Start(ctx context.Context, req checkout.Request) <-chan checkout.Event
	Status(userID, orderID string) (checkout.Event, bool)
	Wait(ctx context.Context, userID, orderID string) (checkout.Event, error)
}

// WidgetCallbacks receives what the hosted widget reports from the browser.
type WidgetCallbacks interface {
	Complete(orderID string, resp payment.Verification) error
	Dismiss(orderID string) error
}

type ScriptSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// CheckoutHandler exposes the checkout flow. A checkout outlives the request
// that started it, so runs are tied to runCtx rather than the request.
type CheckoutHandler struct {
	runCtx    context.Context
	checkouts Checkouts
	widget    WidgetCallbacks
	sdk       ScriptSource
	validate  *validator.Validate
	timeout   time.Duration
}

func NewCheckoutHandler(runCtx context.Context, checkouts Checkouts, widget WidgetCallbacks, sdk ScriptSource, validate *validator.Validate, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		runCtx:    runCtx,
		checkouts: checkouts,
		widget:    widget,
		sdk:       sdk,
		validate:  validate,
		timeout:   timeout,
	}
}

type CheckoutRequestDTO struct {
	CompleteAddress string `json:"completeAddress" validate:"max=500"`
	City            string `json:"city" validate:"max=100"`
	Street          string `json:"street" validate:"max=200"`
	Pincode         string `json:"pincode" validate:"omitempty,numeric,max=10"`
	PreferredTiming string `json:"preferredTiming" validate:"max=100"`
	Note            string `json:"note" validate:"max=1000"`
}

type VerificationDTO struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// CheckoutStartedDTO carries everything the browser needs to open the widget.
type CheckoutStartedDTO struct {
	Status      domain.CheckoutStatus `json:"status"`
	OrderID     string                `json:"order_id"`
	Amount      int64                 `json:"amount"`
	Currency    string                `json:"currency"`
	KeyID       string                `json:"key_id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Prefill     payment.Prefill       `json:"prefill"`
	Theme       payment.Theme         `json:"theme"`
}

type CheckoutStatusDTO struct {
	Status  domain.CheckoutStatus `json:"status"`
	OrderID string                `json:"order_id"`
	At      time.Time             `json:"at"`
	Result  *checkout.Result      `json:"result,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_delivery_details", err.Error())
		return
	}

	runCtx := logging.IntoContext(h.runCtx, logging.FromContext(r.Context()))
	events := h.checkouts.Start(runCtx, checkout.Request{
		Identity: id,
		Delivery: domain.DeliveryDetails{
			CompleteAddress: req.CompleteAddress,
			City:            req.City,
			Street:          req.Street,
			Pincode:         req.Pincode,
			PreferredTiming: req.PreferredTiming,
			Note:            req.Note,
		},
	})

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			if ev.Terminal() {
				respondResult(w, r, ev.Result)
				return
			}
			if ev.Status == domain.CheckoutStatusAwaitingGatewayUI && ev.Options != nil {
				respondJSON(w, http.StatusAccepted, newCheckoutStarted(ev))
				return
			}
		case <-ctx.Done():
			handleError(w, r, ctx.Err())
			return
		}
	}
}

func newCheckoutStarted(ev checkout.Event) CheckoutStartedDTO {
	opts := ev.Options
	return CheckoutStartedDTO{
		Status:      ev.Status,
		OrderID:     opts.OrderID,
		Amount:      opts.Amount,
		Currency:    opts.Currency,
		KeyID:       opts.Key,
		Name:        opts.Name,
		Description: opts.Description,
		Prefill:     opts.Prefill,
		Theme:       opts.Theme,
	}
}

// POST /api/v1/checkout/{order_id}/complete
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req VerificationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.resolve(w, r, func(orderID string) error {
		return h.widget.Complete(orderID, payment.Verification{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
		})
	})
}

// POST /api/v1/checkout/{order_id}/dismiss
func (h *CheckoutHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.widget.Dismiss)
}

// resolve hands a widget callback to the user's running checkout and waits
// for its outcome.
func (h *CheckoutHandler) resolve(w http.ResponseWriter, r *http.Request, callback func(orderID string) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if _, ok := h.checkouts.Status(id.UserID, orderID); !ok {
		handleError(w, r, checkout.ErrUnknownOrder)
		return
	}

	if err := callback(orderID); err != nil {
		handleError(w, r, err)
		return
	}

	ev, err := h.checkouts.Wait(ctx, id.UserID, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondResult(w, r, ev.Result)
}

// GET /api/v1/checkout/{order_id}
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	ev, ok := h.checkouts.Status(id.UserID, orderID)
	if !ok {
		handleError(w, r, checkout.ErrUnknownOrder)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutStatusDTO{
		Status:  ev.Status,
		OrderID: orderID,
		At:      ev.At,
		Result:  ev.Result,
	})
}

// GET /api/v1/gateway/checkout.js
func (h *CheckoutHandler) Script(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	script, err := h.sdk.Load(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(script)
}

// respondResult writes a finished checkout. Success and a customer
// cancellation are answered with 200; every other failure gets the status of
// its cause.
func respondResult(w http.ResponseWriter, r *http.Request, result *checkout.Result) {
	if result == nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if result.Succeeded() || result.Cancelled() {
		respondJSON(w, http.StatusOK, result)
		return
	}

	status, code := classify(result.Err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("checkout failed", "code", code, "failed_at", result.FailedAt, "error", result.Err)
	}
	respondJSON(w, status, CheckoutFailedDTO{
		ErrorResponse: ErrorResponse{Error: result.Reason, Code: code},
		Result:        result,
	})
}

type CheckoutFailedDTO struct {
	ErrorResponse
	Result *checkout.Result `json:"result"`
}
