package domain

import "time"

type DeliveryDetails struct {
	CompleteAddress string `bson:"completeAddress" json:"completeAddress"`
	City            string `bson:"city" json:"city"`
	Street          string `bson:"street" json:"street"`
	Pincode         string `bson:"pincode" json:"pincode"`
	PreferredTiming string `bson:"preferredTiming" json:"preferredTiming"`
	Note            string `bson:"note" json:"note"`
}

// SnapshotItem is a cart line captured at checkout time, with the computed plan end date.
// EndDate is nil for custom plans.
type SnapshotItem struct {
	CartItem `bson:",inline"`
	EndDate  *time.Time `bson:"endDate" json:"endDate"`
}

type Transaction struct {
	PaymentID string    `bson:"paymentId" json:"paymentId"`
	OrderID   string    `bson:"orderId" json:"orderId"`
	Amount    int64     `bson:"amount" json:"amount"`
	Date      time.Time `bson:"date" json:"date"`
}

// LedgerEntry is the append-only record of one completed checkout.
// Transaction.PaymentID doubles as the idempotency key.
type LedgerEntry struct {
	ID                string         `bson:"_id" json:"id"`
	UserID            string         `bson:"userId" json:"userId"`
	UserName          string         `bson:"userName" json:"userName"`
	UserEmail         string         `bson:"userEmail" json:"userEmail"`
	CartItemsSnapshot []SnapshotItem `bson:"cartItems" json:"cartItems"`
	DeliveryDetails   `bson:",inline"`
	Transaction       Transaction `bson:"transaction" json:"transaction"`
	CartCleared       bool        `bson:"cartCleared" json:"-"`
	Published         bool        `bson:"published" json:"-"`
	CreatedAt         time.Time   `bson:"createdAt" json:"createdAt"`
}

// EndDate computes when a plan bought at checkoutAt runs out: a week for weekly plans,
// one calendar month for daily and monthly plans.
func EndDate(plan PlanType, checkoutAt time.Time) *time.Time {
	var end time.Time
	switch plan {
	case PlanTypeWeekly:
		end = checkoutAt.AddDate(0, 0, 7)
	case PlanTypeDaily, PlanTypeMonthly:
		end = checkoutAt.AddDate(0, 1, 0)
	default:
		return nil
	}
	return &end
}

func Snapshot(items []CartItem, checkoutAt time.Time) []SnapshotItem {
	snapshot := make([]SnapshotItem, len(items))
	for i, item := range items {
		snapshot[i] = SnapshotItem{
			CartItem: item,
			EndDate:  EndDate(item.PlanType, checkoutAt),
		}
	}
	return snapshot
}

func (e *LedgerEntry) ItemIDs() []string {
	ids := make([]string, len(e.CartItemsSnapshot))
	for i, item := range e.CartItemsSnapshot {
		ids[i] = item.ID
	}
	return ids
}
