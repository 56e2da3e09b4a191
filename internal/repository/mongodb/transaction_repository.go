package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

type transactionRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewTransactionRepository creates the transaction repository. A nil database
// is allowed; every operation then fails fast with ErrUnavailable.
func NewTransactionRepository(db *mongo.Database, logger *zap.Logger) TransactionRepository {
	return &transactionRepository{db: db, logger: logger}
}

func (r *transactionRepository) collection() (*mongo.Collection, error) {
	if r.db == nil {
		return nil, apperrors.ErrUnavailable
	}
	return r.db.Collection(transactionCollection), nil
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	coll, err := r.collection()
	if err != nil {
		return "", err
	}

	result, err := coll.InsertOne(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	id := result.InsertedID.(primitive.ObjectID)
	tx.ID = id
	return id.Hex(), nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID, txType string, limit int64) ([]*models.Transaction, error) {
	filter := bson.M{"userId": userID}
	if txType != "" {
		filter["type"] = txType
	}
	return r.list(ctx, filter, limit, 0)
}

func (r *transactionRepository) ListAll(ctx context.Context, txType string, limit, skip int64) ([]*models.Transaction, error) {
	filter := bson.M{}
	if txType != "" {
		filter["type"] = txType
	}
	return r.list(ctx, filter, limit, skip)
}

func (r *transactionRepository) ListRecent(ctx context.Context, n int64) ([]*models.Transaction, error) {
	return r.list(ctx, bson.M{}, n, 0)
}

func (r *transactionRepository) list(ctx context.Context, filter bson.M, limit, skip int64) ([]*models.Transaction, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	transactions := []*models.Transaction{}
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return transactions, nil
}

func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
