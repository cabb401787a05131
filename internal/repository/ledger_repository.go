package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pittas-dairy/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoLedgerRepository struct {
	collection *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *MongoLedgerRepository {
	return &MongoLedgerRepository{
		collection: db.Collection(ledgerCollection),
	}
}

func (l *MongoLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := l.collection.InsertOne(ctx, entry)
	if err == nil {
		return entry, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	var existing domain.LedgerEntry
	filter := bson.M{"transaction.paymentId": entry.Transaction.PaymentID}
	if err := l.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
		return nil, false, fmt.Errorf("failed to load existing ledger entry: %w", err)
	}
	return &existing, false, nil
}

func (l *MongoLedgerRepository) ListByUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "transaction.date", Value: -1}})
	return l.find(ctx, bson.M{"userId": userID}, opts)
}

func (l *MongoLedgerRepository) MarkCartCleared(ctx context.Context, entryID string) error {
	return l.setFlag(ctx, entryID, "cartCleared")
}

func (l *MongoLedgerRepository) MarkPublished(ctx context.Context, entryID string) error {
	return l.setFlag(ctx, entryID, "published")
}

// FindUncleared returns entries whose cart was never confirmed cleared and
// that were created before olderThan, oldest first.
func (l *MongoLedgerRepository) FindUncleared(ctx context.Context, olderThan time.Time, limit int64) ([]domain.LedgerEntry, error) {
	filter := bson.M{
		"cartCleared": false,
		"createdAt":   bson.M{"$lt": olderThan},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)
	return l.find(ctx, filter, opts)
}

func (l *MongoLedgerRepository) FindUnpublished(ctx context.Context, limit int64) ([]domain.LedgerEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)
	return l.find(ctx, bson.M{"published": false}, opts)
}

func (l *MongoLedgerRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction.paymentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "transaction.date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "cartCleared", Value: 1}, {Key: "createdAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "published", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	}

	if _, err := l.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (l *MongoLedgerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.LedgerEntry, error) {
	cursor, err := l.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []domain.LedgerEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

func (l *MongoLedgerRepository) setFlag(ctx context.Context, entryID, field string) error {
	update := bson.M{"$set": bson.M{field: true}}

	result, err := l.collection.UpdateOne(ctx, bson.M{"_id": entryID}, update)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrEntryNotFound
	}
	return nil
}

var _ LedgerRepository = (*MongoLedgerRepository)(nil)
