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
	"cryptopay-server/internal/util"
)

const withdrawalCollection = "pending_withdrawals"

type withdrawalRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewWithdrawalRepository creates the withdrawal repository. A nil database
// is allowed; every operation then fails fast with ErrUnavailable.
func NewWithdrawalRepository(db *mongo.Database, logger *zap.Logger) WithdrawalRepository {
	return &withdrawalRepository{db: db, logger: logger}
}

func (r *withdrawalRepository) collection() (*mongo.Collection, error) {
	if r.db == nil {
		return nil, apperrors.ErrUnavailable
	}
	return r.db.Collection(withdrawalCollection), nil
}

func (r *withdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) (string, error) {
	coll, err := r.collection()
	if err != nil {
		return "", err
	}

	result, err := coll.InsertOne(ctx, w)
	if err != nil {
		return "", fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	id := result.InsertedID.(primitive.ObjectID)
	w.ID = id

	util.Debug("Withdrawal request stored",
		zap.String("withdrawal_id", id.Hex()),
		zap.String("user_id", w.UserID),
	)
	return id.Hex(), nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &apperrors.NotFoundError{Entity: "withdrawal", ID: id}
	}

	var w models.Withdrawal
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &apperrors.NotFoundError{Entity: "withdrawal", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch withdrawal: %w", err)
	}
	return &w, nil
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status string) ([]*models.Withdrawal, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := coll.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer cursor.Close(ctx)

	withdrawals := []*models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID, status string, limit int64) ([]*models.Withdrawal, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list user withdrawals: %w", err)
	}
	defer cursor.Close(ctx)

	withdrawals := []*models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, fmt.Errorf("failed to decode user withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}

	count, err := coll.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	return count, nil
}

// MarkExecuted is a compare-and-swap: the filter requires the current status
// to still be pending, so a concurrent execute or reject that won the race
// makes this report false instead of double-applying.
func (r *withdrawalRepository) MarkExecuted(ctx context.Context, id, txHash, executedBy string, at time.Time) (bool, error) {
	return r.transition(ctx, id, bson.M{
		"status":     models.WithdrawalStatusExecuted,
		"executedAt": at,
		"executedBy": executedBy,
		"txHash":     txHash,
	})
}

func (r *withdrawalRepository) MarkRejected(ctx context.Context, id, reason, rejectedBy string, at time.Time) (bool, error) {
	return r.transition(ctx, id, bson.M{
		"status":          models.WithdrawalStatusRejected,
		"rejectedAt":      at,
		"rejectedBy":      rejectedBy,
		"rejectionReason": reason,
	})
}

func (r *withdrawalRepository) transition(ctx context.Context, id string, set bson.M) (bool, error) {
	coll, err := r.collection()
	if err != nil {
		return false, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	result, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": models.WithdrawalStatusPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update withdrawal: %w", err)
	}
	return result.MatchedCount > 0, nil
}
