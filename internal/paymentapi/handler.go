package paymentapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pittas-dairy/storefront/internal/logging"
)

// Handler is a development stand-in for the payment backend. It creates
// orders and checks gateway signatures the way the live gateway signs them.
type Handler struct {
	keyID      string
	secret     string
	validate   *validator.Validate
	newOrderID func() string
}

func NewHandler(keyID, secret string) *Handler {
	return &Handler{
		keyID:    keyID,
		secret:   secret,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		newOrderID: func() string {
			return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
		},
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/create-order", h.CreateOrder)
	r.Post("/verify-payment", h.VerifyPayment)
	return r
}

type CreateOrderRequestDTO struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"required,oneof=INR"`
	Receipt  string `json:"receipt" validate:"max=40"`
}

type OrderDTO struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type CreateOrderResponseDTO struct {
	Success bool     `json:"success"`
	Order   OrderDTO `json:"order"`
	KeyID   string   `json:"key_id"`
}

type VerifyPaymentRequestDTO struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal"`
}

type ResultDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// POST /api/payment/create-order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	order := OrderDTO{
		ID:       h.newOrderID(),
		Amount:   req.Amount * 100,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}
	logging.FromContext(r.Context()).Info("order created", "order_id", order.ID, "amount_paise", order.Amount, "receipt", order.Receipt)

	respondJSON(w, http.StatusOK, CreateOrderResponseDTO{Success: true, Order: order, KeyID: h.keyID})
}

// POST /api/payment/verify-payment
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	expected := Sign(h.secret, req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		logger.Warn("payment signature mismatch", "order_id", req.OrderID, "payment_id", req.PaymentID)
		respondFailure(w, http.StatusBadRequest, "invalid signature")
		return
	}

	logger.Info("payment verified", "order_id", req.OrderID, "payment_id", req.PaymentID)
	respondJSON(w, http.StatusOK, ResultDTO{Success: true})
}

// Sign computes the gateway signature for a payment:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ResultDTO{Success: false, Message: message})
}
