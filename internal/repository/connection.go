package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSettings tunes the connection carrying the catalog and cart
// collections. Zero values fall back to defaults sized for a single shop
// instance.
type MongoSettings struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

func (s *MongoSettings) applyDefaults() {
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = 10 * time.Second
	}
	if s.ServerSelectionTimeout <= 0 {
		s.ServerSelectionTimeout = 5 * time.Second
	}
	if s.MaxPoolSize == 0 {
		s.MaxPoolSize = 100
	}
	if s.MinPoolSize == 0 {
		s.MinPoolSize = 10
	}
}

// ConnectMongoDB opens the client and proves the server is reachable with
// a ping before handing the database out; a bad URI fails at startup, not
// on the first request.
func ConnectMongoDB(ctx context.Context, settings MongoSettings) (*mongo.Database, error) {
	settings.applyDefaults()

	clientOpts := options.Client().
		ApplyURI(settings.URI).
		SetConnectTimeout(settings.ConnectTimeout).
		SetServerSelectionTimeout(settings.ServerSelectionTimeout).
		SetMaxPoolSize(settings.MaxPoolSize).
		SetMinPoolSize(settings.MinPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(settings.Database), nil
}
