// Package mongodb wires the document-store connection for the platform.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/evcare-vn/evcare_backend/config"
)

// Connect opens a client against the configured deployment and pings it.
func Connect(cfg config.MongoConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}

	timeout := 10 * time.Second
	if cfg.ConnectTimeoutSec > 0 {
		timeout = time.Duration(cfg.ConnectTimeoutSec) * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts = opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return client, nil
}

// Database returns the configured application database.
func Database(client *mongo.Client, cfg config.MongoConfig) *mongo.Database {
	name := cfg.Database
	if name == "" {
		name = "evcare"
	}
	return client.Database(name)
}
