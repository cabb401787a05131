package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/pittas-dairy/storefront/internal/pricing"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "subscription-ledger"
	eventType    = "SubscriptionPurchased"
	batchSize    = 100
)

type Ledger interface {
	FindUnpublished(ctx context.Context, limit int64) ([]domain.LedgerEntry, error)
	MarkPublished(ctx context.Context, entryID string) error
	FindUncleared(ctx context.Context, olderThan time.Time, limit int64) ([]domain.LedgerEntry, error)
	MarkCartCleared(ctx context.Context, entryID string) error
}

type CartCleaner interface {
	RemoveItems(ctx context.Context, userID string, itemIDs []string) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller works through ledger entries left behind by checkouts: it
// publishes new entries as events and finishes cart clears that did not
// complete. Entries stay in the ledger either way.
type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	grace        time.Duration
	ledger       Ledger
	cart         CartCleaner
	writer       MessageWriter
	logger       *slog.Logger
	now          func() time.Time
}

type Config struct {
	Brokers          []string
	Topic            string
	RecoveryInterval time.Duration
	RecoveryGrace    time.Duration
}

// NewOutboxPoller builds a poller. Without brokers no events are published
// and only the recovery pass runs.
func NewOutboxPoller(ledger Ledger, cart CartCleaner, cfg Config, logger *slog.Logger) *OutboxPoller {
	if cfg.RecoveryInterval <= 0 {
		cfg.RecoveryInterval = 30 * time.Second
	}
	p := &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: cfg.RecoveryInterval,
		grace:        cfg.RecoveryGrace,
		ledger:       ledger,
		cart:         cart,
		logger:       logger,
		now:          time.Now,
	}
	if len(cfg.Brokers) > 0 {
		topic := cfg.Topic
		if topic == "" {
			topic = DefaultTopic
		}
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

func (p *OutboxPoller) Run(ctx context.Context) {
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer recoveryTicker.Stop()

	var events <-chan time.Time
	if p.writer != nil {
		eventTicker := time.NewTicker(p.eventTick)
		defer eventTicker.Stop()
		events = eventTicker.C
	}

	for {
		select {
		case <-events:
			p.processUnpublishedEntries(ctx)
		case <-recoveryTicker.C:
			p.recoverUnclearedCarts(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEntries(ctx context.Context) {
	entries, err := p.ledger.FindUnpublished(ctx, batchSize)
	if err != nil {
		p.logger.Error("failed to fetch unpublished ledger entries", "error", err)
		return
	}

	for i := range entries {
		entry := &entries[i]
		if err := p.publish(ctx, entry); err != nil {
			p.logger.Error("failed to publish ledger entry", "entry_id", entry.ID, "error", err)
			continue
		}

		if err := p.ledger.MarkPublished(ctx, entry.ID); err != nil {
			p.logger.Error("failed to mark ledger entry as published", "entry_id", entry.ID, "error", err)
		}
	}
}

// recoverUnclearedCarts removes the purchased items of entries whose cart
// clear never finished. Only snapshot ids are removed, so items added to the
// cart after checkout stay.
func (p *OutboxPoller) recoverUnclearedCarts(ctx context.Context) {
	entries, err := p.ledger.FindUncleared(ctx, p.now().Add(-p.grace), batchSize)
	if err != nil {
		p.logger.Error("failed to fetch uncleared ledger entries", "error", err)
		return
	}

	for _, entry := range entries {
		p.logger.Info("recovering cart clear", "entry_id", entry.ID, "user_id", entry.UserID)

		if err := p.cart.RemoveItems(ctx, entry.UserID, entry.ItemIDs()); err != nil {
			p.logger.Error("failed to clear cart in recovery", "entry_id", entry.ID, "error", err)
			continue
		}

		if err := p.ledger.MarkCartCleared(ctx, entry.ID); err != nil {
			p.logger.Error("failed to mark ledger entry cleared", "entry_id", entry.ID, "error", err)
			continue
		}

		p.logger.Info("cart clear recovered", "entry_id", entry.ID)
	}
}

type ledgerEvent struct {
	EntryID   string      `json:"entry_id"`
	UserID    string      `json:"user_id"`
	PaymentID string      `json:"payment_id"`
	OrderID   string      `json:"order_id"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Items     []eventItem `json:"items"`
	PaidAt    time.Time   `json:"paid_at"`
}

type eventItem struct {
	ID                string                   `json:"id"`
	PlanType          domain.PlanType          `json:"plan_type"`
	DeliveryFrequency domain.DeliveryFrequency `json:"delivery_frequency"`
	EndDate           *time.Time               `json:"end_date,omitempty"`
}

func newLedgerEvent(entry *domain.LedgerEntry) ledgerEvent {
	items := make([]eventItem, len(entry.CartItemsSnapshot))
	for i, item := range entry.CartItemsSnapshot {
		items[i] = eventItem{
			ID:                item.ID,
			PlanType:          item.PlanType,
			DeliveryFrequency: item.DeliveryFrequency,
			EndDate:           item.EndDate,
		}
	}
	return ledgerEvent{
		EntryID:   entry.ID,
		UserID:    entry.UserID,
		PaymentID: entry.Transaction.PaymentID,
		OrderID:   entry.Transaction.OrderID,
		Amount:    entry.Transaction.Amount,
		Currency:  pricing.Currency.String(),
		Items:     items,
		PaidAt:    entry.Transaction.Date,
	}
}

func (p *OutboxPoller) publish(ctx context.Context, entry *domain.LedgerEntry) error {
	payload, err := json.Marshal(newLedgerEvent(entry))
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(entry.UserID), // per-user ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "payment_id", Value: []byte(entry.Transaction.PaymentID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
