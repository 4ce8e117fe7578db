// Package mongodb holds the process-wide MongoDB connection, used for the
// job execution history and persisted job-run logs.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mosaicpim/mosaic/config"
)

var client *mongo.Client

// Connect initialises the Mongo client and verifies the connection with a
// ping.
func Connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(config.MongoURI()).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(20)

	c, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("mongodb: connect: %w", err)
	}

	if err := c.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb: ping: %w", err)
	}

	client = c
	return nil
}

// Client returns the raw Mongo client, or nil when not connected.
func Client() *mongo.Client { return client }

// Database returns the configured application database.
func Database() *mongo.Database {
	if client == nil {
		return nil
	}
	return client.Database(config.MongoDatabase())
}

// Collection is shorthand for Database().Collection(name).
func Collection(name string) *mongo.Collection {
	db := Database()
	if db == nil {
		return nil
	}
	return db.Collection(name)
}

// Disconnect closes the client. Safe to call when never connected.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
