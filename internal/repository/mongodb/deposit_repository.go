package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

// Deposits live in the transactions collection, distinguished by type.
const transactionCollection = "transactions"

type depositRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewDepositRepository creates the deposit repository. A nil database is
// allowed; every operation then fails fast with ErrUnavailable.
func NewDepositRepository(db *mongo.Database, logger *zap.Logger) DepositRepository {
	return &depositRepository{db: db, logger: logger}
}

func (r *depositRepository) collection() (*mongo.Collection, error) {
	if r.db == nil {
		return nil, apperrors.ErrUnavailable
	}
	return r.db.Collection(transactionCollection), nil
}

func depositFilter() bson.M {
	return bson.M{"type": bson.M{"$in": models.DepositTypes}}
}

func (r *depositRepository) List(ctx context.Context, status, depositType string, limit, skip int64) ([]*models.Transaction, int64, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, 0, err
	}

	filter := depositFilter()
	if status != "" {
		filter["status"] = status
	}
	if depositType != "" {
		filter["type"] = depositType
	}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer cursor.Close(ctx)

	deposits := []*models.Transaction{}
	if err := cursor.All(ctx, &deposits); err != nil {
		return nil, 0, fmt.Errorf("failed to decode deposits: %w", err)
	}
	return deposits, total, nil
}

func (r *depositRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &apperrors.NotFoundError{Entity: "deposit", ID: id}
	}

	filter := depositFilter()
	filter["_id"] = oid

	var deposit models.Transaction
	if err := coll.FindOne(ctx, filter).Decode(&deposit); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &apperrors.NotFoundError{Entity: "deposit", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch deposit: %w", err)
	}
	return &deposit, nil
}

// MarkVerified is a compare-and-swap: the filter excludes already-verified
// documents so a second verify cannot silently overwrite the first reviewer's
// stamp.
func (r *depositRepository) MarkVerified(ctx context.Context, id, verifiedBy, notes string, at time.Time) (bool, error) {
	coll, err := r.collection()
	if err != nil {
		return false, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	filter := depositFilter()
	filter["_id"] = oid
	filter["status"] = bson.M{"$ne": models.DepositStatusVerified}

	result, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":     models.DepositStatusVerified,
		"verifiedBy": verifiedBy,
		"verifiedAt": at,
		"adminNotes": notes,
	}})
	if err != nil {
		return false, fmt.Errorf("failed to verify deposit: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *depositRepository) CountSince(ctx context.Context, since *time.Time) (int64, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}

	filter := depositFilter()
	if since != nil {
		filter["createdAt"] = bson.M{"$gte": *since}
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return count, nil
}

// AmountsSince returns the raw deposit amounts so the service can accumulate
// them with decimal arithmetic instead of a lossy float aggregation.
func (r *depositRepository) AmountsSince(ctx context.Context, since *time.Time) ([]float64, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	filter := depositFilter()
	if since != nil {
		filter["createdAt"] = bson.M{"$gte": *since}
	}

	opts := options.Find().SetProjection(bson.M{"amount": 1})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deposit amounts: %w", err)
	}
	defer cursor.Close(ctx)

	var amounts []float64
	for cursor.Next(ctx) {
		var doc struct {
			Amount float64 `bson:"amount"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode deposit amount: %w", err)
		}
		amounts = append(amounts, doc.Amount)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposit amounts: %w", err)
	}
	return amounts, nil
}
