package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

type cartDocument struct {
	ID        string         `bson:"_id,omitempty"`
	UserID    string         `bson:"user_id"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	ProductID  string  `bson:"product_id"`
	Name       string  `bson:"name"`
	UnitPrice  float64 `bson:"unit_price"`
	Quantity   int     `bson:"quantity"`
	KnownStock int     `bson:"known_stock"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Store {
	return &mongoRepository{collection: db.Collection("carts")}
}

func (m *mongoRepository) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var doc cartDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]domain.CartLine, len(doc.Lines))
	for i, l := range doc.Lines {
		lines[i] = domain.CartLine(l)
	}
	return lines, nil
}

func (m *mongoRepository) UpsertLine(ctx context.Context, userID string, line domain.CartLine) error {
	now := time.Now()
	filter := bson.M{"user_id": userID}

	var existing cartDocument
	err := m.collection.FindOne(ctx, filter).Decode(&existing)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			doc := cartDocument{
				UserID:    userID,
				Lines:     []lineDocument{lineDocument(line)},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err2 := m.collection.InsertOne(ctx, doc); err2 != nil {
				return fmt.Errorf("failed to create cart with line: %w", err2)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing cart: %w", err)
	}

	lineExists := false
	for _, l := range existing.Lines {
		if l.ProductID == line.ProductID {
			lineExists = true
			break
		}
	}

	if lineExists {
		update := bson.M{
			"$set": bson.M{
				"lines.$[elem]": lineDocument(line),
				"updated_at":    now,
			},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.product_id": line.ProductID},
			},
		})
		if _, err2 := m.collection.UpdateOne(ctx, filter, update, arrayFilters); err2 != nil {
			return fmt.Errorf("failed to update existing line: %w", err2)
		}
	} else {
		update := bson.M{
			"$push": bson.M{"lines": lineDocument(line)},
			"$set":  bson.M{"updated_at": now},
		}
		if _, err2 := m.collection.UpdateOne(ctx, filter, update); err2 != nil {
			return fmt.Errorf("failed to add new line: %w", err2)
		}
	}

	return nil
}

func (m *mongoRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"lines.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"lines.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to set quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (m *mongoRepository) Clear(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
