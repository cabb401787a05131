package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
)

type LedgerReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
}

type DashboardStats struct {
	ActiveOrders        int   `json:"activeOrders"`
	ActiveSubscriptions int   `json:"activeSubscriptions"`
	TotalSpent          int64 `json:"totalSpent"`
}

// SubscriptionRow is one recurring snapshot item with its parent checkout.
type SubscriptionRow struct {
	domain.SnapshotItem
	EntryID     string             `json:"entryId"`
	Transaction domain.Transaction `json:"transaction"`
}

type TransactionRow struct {
	EntryID   string    `json:"entryId"`
	PaymentID string    `json:"paymentId"`
	OrderID   string    `json:"orderId"`
	Amount    int64     `json:"amount"`
	Date      time.Time `json:"date"`
	ItemCount int       `json:"itemCount"`
}

type DashboardView struct {
	Stats         DashboardStats    `json:"stats"`
	Subscriptions []SubscriptionRow `json:"subscriptions"`
	Transactions  []TransactionRow  `json:"transactions"`
}

// Dashboard recomputes every figure from the ledger on each read.
type Dashboard struct {
	ledger LedgerReader
}

func NewDashboard(ledger LedgerReader) *Dashboard {
	return &Dashboard{ledger: ledger}
}

func (d *Dashboard) Load(ctx context.Context, userID string) (*DashboardView, error) {
	entries, err := d.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	return &DashboardView{
		Stats: DashboardStats{
			ActiveOrders:        ActiveOrders(entries),
			ActiveSubscriptions: ActiveSubscriptions(entries),
			TotalSpent:          TotalSpent(entries),
		},
		Subscriptions: SubscriptionsView(entries),
		Transactions:  TransactionsView(entries),
	}, nil
}

func ActiveOrders(entries []domain.LedgerEntry) int {
	n := 0
	for _, e := range entries {
		n += len(e.CartItemsSnapshot)
	}
	return n
}

func ActiveSubscriptions(entries []domain.LedgerEntry) int {
	n := 0
	for _, e := range entries {
		for _, item := range e.CartItemsSnapshot {
			if item.PlanType.Recurring() {
				n++
			}
		}
	}
	return n
}

func TotalSpent(entries []domain.LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Transaction.Amount
	}
	return total
}

func SubscriptionsView(entries []domain.LedgerEntry) []SubscriptionRow {
	rows := []SubscriptionRow{}
	for _, e := range entries {
		for _, item := range e.CartItemsSnapshot {
			if !item.PlanType.Recurring() {
				continue
			}
			rows = append(rows, SubscriptionRow{
				SnapshotItem: item,
				EntryID:      e.ID,
				Transaction:  e.Transaction,
			})
		}
	}
	return rows
}

// TransactionsView lists entries that carry a payment, newest first.
func TransactionsView(entries []domain.LedgerEntry) []TransactionRow {
	rows := []TransactionRow{}
	for _, e := range entries {
		if e.Transaction.PaymentID == "" {
			continue
		}
		rows = append(rows, TransactionRow{
			EntryID:   e.ID,
			PaymentID: e.Transaction.PaymentID,
			OrderID:   e.Transaction.OrderID,
			Amount:    e.Transaction.Amount,
			Date:      e.Transaction.Date,
			ItemCount: len(e.CartItemsSnapshot),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date)
	})
	return rows
}
