package domain

type Plan struct {
	ID           string
	Name         string
	Price        float64
	PriceDisplay string
	Description  string
	Image        string
	Category     string
	PlanType     PlanType
	Highlight    bool
	Position     int
}

// CartItem builds the cart line for a freshly added plan, delivered once a day.
func (p Plan) CartItem() CartItem {
	return CartItem{
		ID:                p.ID,
		Name:              p.Name,
		BasePrice:         p.Price,
		Image:             p.Image,
		Description:       p.Description,
		Category:          p.Category,
		PlanType:          p.PlanType,
		DeliveryFrequency: DeliveryOnce,
	}
}
