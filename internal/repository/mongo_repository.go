package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pittas-dairy/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) UserRepository {
	return &mongoRepository{
		collection: db.Collection(usersCollection),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := domain.Cart{UserID: userID}

	opts := options.FindOne().SetProjection(bson.M{"cart": 1})
	err := m.collection.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&cart)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// AddItem pushes item only when no line with the same id exists. The filter
// misses on a duplicate, the upsert then collides on _id and the duplicate key
// error is reported as ErrDuplicateItem.
func (m *mongoRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	filter := bson.M{
		"_id":     userID,
		"cart.id": bson.M{"$ne": item.ID},
	}
	update := bson.M{"$push": bson.M{"cart": item}}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateItem
	}
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	update := bson.M{
		"$pull": bson.M{"cart": bson.M{"id": itemID}},
	}

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

func (m *mongoRepository) RemoveItems(ctx context.Context, userID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	update := bson.M{
		"$pull": bson.M{"cart": bson.M{"id": bson.M{"$in": itemIDs}}},
	}

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}

func (m *mongoRepository) SetFrequency(ctx context.Context, userID, itemID string, freq domain.DeliveryFrequency) error {
	filter := bson.M{
		"_id":     userID,
		"cart.id": itemID,
	}
	update := bson.M{
		"$set": bson.M{"cart.$.deliveryFrequency": freq},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update delivery frequency: %w", err)
	}
	return nil
}

func (m *mongoRepository) ClearCart(ctx context.Context, userID string) error {
	update := bson.M{
		"$set": bson.M{"cart": []domain.CartItem{}},
	}

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) CountItems(ctx context.Context, userID string) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$project", Value: bson.M{
			"count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$cart", bson.A{}}}},
		}}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Count int `bson:"count"`
	}
	if !cursor.Next(ctx) {
		return 0, cursor.Err()
	}
	if err := cursor.Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode cart count: %w", err)
	}
	return result.Count, nil
}

func (m *mongoRepository) SaveDeliveryDetails(ctx context.Context, userID string, details domain.DeliveryDetails) error {
	update := bson.M{"$set": details}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to save delivery details: %w", err)
	}
	return nil
}

func (m *mongoRepository) LoadDeliveryDetails(ctx context.Context, userID string) (domain.DeliveryDetails, error) {
	var details domain.DeliveryDetails

	err := m.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&details)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.DeliveryDetails{}, nil
	}
	if err != nil {
		return domain.DeliveryDetails{}, fmt.Errorf("failed to load delivery details: %w", err)
	}
	return details, nil
}
