package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/pricing"
)

type CartService interface {
	Load(ctx context.Context, userID string) (*domain.Cart, error)
	AddPlan(ctx context.Context, userID, planID string) (*domain.Cart, error)
	SetFrequency(ctx context.Context, userID, itemID string, freq domain.DeliveryFrequency) (*domain.Cart, error)
	Remove(ctx context.Context, userID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
	Count(ctx context.Context, userID string) (int, error)
}

type CartHandler struct {
	cart     CartService
	validate *validator.Validate
	timeout  time.Duration
}

func NewCartHandler(cart CartService, validate *validator.Validate, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		validate: validate,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	PlanID string `json:"plan_id" validate:"required,max=64"`
}

type UpdateFrequencyRequestDTO struct {
	DeliveryFrequency domain.DeliveryFrequency `json:"delivery_frequency" validate:"required,oneof=once twice"`
}

type QuoteDTO struct {
	Subtotal string `json:"subtotal"`
	SGST     string `json:"sgst"`
	CGST     string `json:"cgst"`
	Total    string `json:"total"`
	Charge   int64  `json:"charge"`
	Currency string `json:"currency"`
}

type CartResponseDTO struct {
	Items []domain.CartItem `json:"items"`
	Quote QuoteDTO          `json:"quote"`
}

type CountResponseDTO struct {
	Count int `json:"count"`
}

func newCartResponse(cart *domain.Cart) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	q := pricing.Price(items)
	return CartResponseDTO{
		Items: items,
		Quote: QuoteDTO{
			Subtotal: pricing.Display(q.Subtotal),
			SGST:     pricing.Display(q.SGST),
			CGST:     pricing.Display(q.CGST),
			Total:    pricing.Display(q.Total),
			Charge:   q.Charge(),
			Currency: q.Currency.String(),
		},
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.cart.Load(ctx, id.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// GET /api/v1/cart/count
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	n, err := h.cart.Count(ctx, id.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CountResponseDTO{Count: n})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_plan_id", "plan_id is required")
		return
	}

	cart, err := h.cart.AddPlan(ctx, id.UserID, req.PlanID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// PUT /api/v1/cart/items/{plan_id}
func (h *CartHandler) UpdateFrequency(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	planID := chi.URLParam(r, "plan_id")
	if planID == "" {
		respondError(w, http.StatusBadRequest, "invalid_plan_id", "plan_id is required")
		return
	}

	var req UpdateFrequencyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_frequency", "delivery_frequency must be once or twice")
		return
	}

	cart, err := h.cart.SetFrequency(ctx, id.UserID, planID, req.DeliveryFrequency)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/v1/cart/items/{plan_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	planID := chi.URLParam(r, "plan_id")
	if planID == "" {
		respondError(w, http.StatusBadRequest, "invalid_plan_id", "plan_id is required")
		return
	}

	cart, err := h.cart.Remove(ctx, id.UserID, planID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.cart.Clear(ctx, id.UserID); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(&domain.Cart{UserID: id.UserID}))
}
