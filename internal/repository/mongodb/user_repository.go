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

const userCollection = "users"

type userRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewUserRepository creates the user repository. A nil database is allowed;
// every operation then fails fast with ErrUnavailable.
func NewUserRepository(db *mongo.Database, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) collection() (*mongo.Collection, error) {
	if r.db == nil {
		return nil, apperrors.ErrUnavailable
	}
	return r.db.Collection(userCollection), nil
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"uid": uid}, uid)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M, id string) (*models.User, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &apperrors.NotFoundError{Entity: "user", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (string, error) {
	coll, err := r.collection()
	if err != nil {
		return "", err
	}

	result, err := coll.InsertOne(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	id := result.InsertedID.(primitive.ObjectID)
	user.ID = id
	return id.Hex(), nil
}

func (r *userRepository) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	coll, err := r.collection()
	if err != nil {
		return err
	}

	// Balance fields go through IncrementBalance only.
	delete(updates, "inrBalance")
	delete(updates, "cryptoBalances")
	updates["updatedAt"] = time.Now().UTC()

	result, err := coll.UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": bson.M(updates)})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Entity: "user", ID: uid}
	}
	return nil
}

// IncrementBalance applies a single atomic $inc so concurrent settlements for
// the same user cannot lose updates.
func (r *userRepository) IncrementBalance(ctx context.Context, uid, currency string, amount float64) error {
	coll, err := r.collection()
	if err != nil {
		return err
	}

	field := "inrBalance"
	if currency != "INR" {
		field = "cryptoBalances." + currency
	}

	result, err := coll.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{
			"$inc": bson.M{field: amount},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Entity: "user", ID: uid}
	}

	r.logger.Debug("Balance incremented",
		zap.String("uid", uid),
		zap.String("currency", currency),
		zap.Float64("amount", amount),
	)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, skip int64) ([]*models.User, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
