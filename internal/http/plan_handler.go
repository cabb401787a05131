package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
)

type PlanLister interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

type PlanHandler struct {
	catalog PlanLister
	timeout time.Duration
}

func NewPlanHandler(catalog PlanLister, timeout time.Duration) *PlanHandler {
	return &PlanHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type PlanResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        float64         `json:"price"`
	PriceDisplay string          `json:"priceDisplay"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	PlanType     domain.PlanType `json:"planType"`
	Highlight    bool            `json:"highlight"`
	Bookable     bool            `json:"bookable"`
}

type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// GET /api/v1/plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	plans, err := h.catalog.ListPlans(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]PlanResponse, len(plans))
	for i, p := range plans {
		resp[i] = PlanResponse{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			PriceDisplay: p.PriceDisplay,
			Description:  p.Description,
			Image:        p.Image,
			Category:     p.Category,
			PlanType:     p.PlanType,
			Highlight:    p.Highlight,
			Bookable:     p.PlanType != domain.PlanTypeCustom,
		}
	}

	respondJSON(w, http.StatusOK, &PlansResponse{Plans: resp})
}
