package domain

type PlanType string

const (
	PlanTypeDaily   PlanType = "daily"
	PlanTypeWeekly  PlanType = "weekly"
	PlanTypeMonthly PlanType = "monthly"
	PlanTypeCustom  PlanType = "custom"
)

func (p PlanType) Valid() bool {
	switch p {
	case PlanTypeDaily, PlanTypeWeekly, PlanTypeMonthly, PlanTypeCustom:
		return true
	}
	return false
}

// Recurring reports whether the plan counts as an active subscription on the dashboard.
func (p PlanType) Recurring() bool {
	return p == PlanTypeDaily || p == PlanTypeWeekly || p == PlanTypeMonthly
}

type DeliveryFrequency string

const (
	DeliveryOnce  DeliveryFrequency = "once"
	DeliveryTwice DeliveryFrequency = "twice"
)

func (f DeliveryFrequency) Valid() bool {
	return f == DeliveryOnce || f == DeliveryTwice
}

// Cart mirrors the cart field of a user document. Items keep insertion order.
type Cart struct {
	UserID string     `bson:"_id" json:"user_id"`
	Items  []CartItem `bson:"cart" json:"items"`
}

type CartItem struct {
	ID                string            `bson:"id" json:"id"`
	Name              string            `bson:"name" json:"name"`
	BasePrice         float64           `bson:"basePrice" json:"basePrice"`
	Image             string            `bson:"image" json:"image"`
	Description       string            `bson:"description" json:"description"`
	Category          string            `bson:"category" json:"category"`
	PlanType          PlanType          `bson:"planType" json:"planType"`
	DeliveryFrequency DeliveryFrequency `bson:"deliveryFrequency" json:"deliveryFrequency"`
}

func (c *Cart) Find(id string) (int, bool) {
	for i, item := range c.Items {
		if item.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ID
	}
	return ids
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
