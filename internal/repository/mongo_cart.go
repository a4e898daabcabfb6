package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pater97/go-shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem increments the quantity of an existing item or appends a new one
// with quantity 1. Both branches are single atomic updates, so two
// concurrent adds for the same user/product both land ($inc never loses an
// increment the way a read-then-write overwrite would).
func (m *mongoCartRepository) AddItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	now := time.Now()

	cart, err := m.incrementItem(ctx, userID, productID, now)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to increment item: %w", err)
	}

	// No matching item yet: push it, creating the cart document on first use.
	// The $ne guard keeps a concurrent push from producing two entries for
	// the same product.
	filter := bson.M{
		"user_id": userID,
		"items": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{"product_id": productID}},
		},
	}
	update := bson.M{
		"$push": bson.M{"items": domain.CartItem{
			ProductID: productID,
			Quantity:  1,
			AddedAt:   now,
		}},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var pushed domain.Cart
	err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&pushed)
	if err == nil {
		return &pushed, nil
	}

	// A concurrent add slipped the item in between our two updates: the
	// guarded filter matched nothing and the upsert hit the unique user_id
	// index. The item exists now, so the increment must succeed.
	if mongo.IsDuplicateKeyError(err) || errors.Is(err, mongo.ErrNoDocuments) {
		cart, retryErr := m.incrementItem(ctx, userID, productID, now)
		if retryErr != nil {
			return nil, fmt.Errorf("failed to add item after push race: %w", retryErr)
		}
		return cart, nil
	}

	return nil, fmt.Errorf("failed to push item: %w", err)
}

func (m *mongoCartRepository) incrementItem(ctx context.Context, userID string, productID int64, now time.Time) (*domain.Cart, error) {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}
	update := bson.M{
		"$inc": bson.M{"items.$.quantity": 1},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.Cart
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (m *mongoCartRepository) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}

	return &cart, nil
}

func (m *mongoCartRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// EnsureCartIndexes creates the unique user_id index the add-item race
// detection relies on. Call it once at startup.
func EnsureCartIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := db.Collection("carts").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
