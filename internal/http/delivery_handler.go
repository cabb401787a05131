package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
)

type DeliveryBook interface {
	LoadDeliveryDetails(ctx context.Context, userID string) (domain.DeliveryDetails, error)
}

type DeliveryHandler struct {
	book    DeliveryBook
	timeout time.Duration
}

func NewDeliveryHandler(book DeliveryBook, timeout time.Duration) *DeliveryHandler {
	return &DeliveryHandler{
		book:    book,
		timeout: timeout,
	}
}

// GET /api/v1/delivery
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	details, err := h.book.LoadDeliveryDetails(ctx, id.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}
