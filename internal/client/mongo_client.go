package client

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"cryptopay-server/internal/config"
	"cryptopay-server/internal/util"
)

// MongoClient wraps the document-store connection. Repositories are handed
// the database, never the raw client.
type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
	config *config.MongoConfig
}

// NewMongoClient connects to MongoDB and verifies the connection with a ping.
func NewMongoClient(cfg *config.Config, logger *zap.Logger) (*MongoClient, error) {
	mongoConfig := cfg.Mongo
	if mongoConfig.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConfig.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(mongoConfig.URI).
		SetServerSelectionTimeout(mongoConfig.Timeout).
		SetConnectTimeout(mongoConfig.Timeout)

	mongoClient, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	util.Info("MongoDB client initialized",
		zap.String("database", mongoConfig.Database),
		zap.Duration("timeout", mongoConfig.Timeout),
	)

	return &MongoClient{
		client: mongoClient,
		db:     mongoClient.Database(mongoConfig.Database),
		config: &mongoConfig,
	}, nil
}

// Database returns the configured database handle.
func (m *MongoClient) Database() *mongo.Database {
	return m.db
}

// HealthCheck verifies connectivity to the primary.
func (m *MongoClient) HealthCheck(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		util.Error("failed to close MongoDB client", zap.Error(err))
		return err
	}
	util.Info("MongoDB client closed")
	return nil
}
