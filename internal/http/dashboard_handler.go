package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pittas-dairy/storefront/internal/service"
)

type DashboardLoader interface {
	Load(ctx context.Context, userID string) (*service.DashboardView, error)
}

type DashboardHandler struct {
	dashboard DashboardLoader
	timeout   time.Duration
}

func NewDashboardHandler(dashboard DashboardLoader, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		timeout:   timeout,
	}
}

// GET /api/v1/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	view, err := h.dashboard.Load(ctx, id.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if view.Subscriptions == nil {
		view.Subscriptions = []service.SubscriptionRow{}
	}
	if view.Transactions == nil {
		view.Transactions = []service.TransactionRow{}
	}

	respondJSON(w, http.StatusOK, view)
}
