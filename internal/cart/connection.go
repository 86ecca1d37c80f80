package cart

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnOptions tune the mongo client. Zero values fall back to defaults
// sized for one checkout-service instance.
type ConnOptions struct {
	ConnectTimeout time.Duration
	SelectTimeout  time.Duration
	MaxPoolSize    uint64
}

// ConnectMongoDB opens the cart database and verifies the connection with a
// primary ping before handing it out.
func ConnectMongoDB(ctx context.Context, uri, database string, opts ConnOptions) (*mongo.Database, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.SelectTimeout <= 0 {
		opts.SelectTimeout = 5 * time.Second
	}
	if opts.MaxPoolSize == 0 {
		opts.MaxPoolSize = 50
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.SelectTimeout).
		SetMaxPoolSize(opts.MaxPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
