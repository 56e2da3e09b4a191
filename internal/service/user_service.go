package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/repository/mongodb"
	"cryptopay-server/internal/util"
)

// UserService manages platform accounts and their ledger entries.
type UserService struct {
	users  mongodb.UserRepository
	txs    mongodb.TransactionRepository
	logger *zap.Logger
}

// CreateUserRequest is the account creation payload. UID is optional; a new
// one is generated when absent.
type CreateUserRequest struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// CreateTransactionRequest records a ledger entry for a user.
type CreateTransactionRequest struct {
	UserID   string                 `json:"userId"`
	Type     string                 `json:"type"`
	Amount   float64                `json:"amount"`
	Currency string                 `json:"currency"`
	Status   string                 `json:"status"`
	Extra    map[string]interface{} `json:"extra"`
}

// UserList is a page of accounts.
type UserList struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Limit int64          `json:"limit"`
	Skip  int64          `json:"skip"`
}

// NewUserService creates the account service.
func NewUserService(users mongodb.UserRepository, txs mongodb.TransactionRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		txs:    txs,
		logger: logger,
	}
}

// GetByUID fetches an account by its stable identifier.
func (s *UserService) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, apperrors.NewValidationError("uid")
	}
	return s.users.GetByUID(ctx, uid)
}

// GetByEmail fetches an account by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, apperrors.NewValidationError("email")
	}
	return s.users.GetByEmail(ctx, email)
}

// Create registers a new account with zeroed balances.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if req.Email == "" {
		return nil, apperrors.NewValidationError("email")
	}

	uid := req.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	now := time.Now().UTC()
	user := &models.User{
		UID:            uid,
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		INRBalance:     0,
		CryptoBalances: map[string]float64{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", util.String("uid", uid))
	return user, nil
}

// Update applies profile changes. Identity and balance fields are stripped at
// the repository; balances only move through AdjustBalance.
func (s *UserService) Update(ctx context.Context, uid string, updates map[string]interface{}) (*models.User, error) {
	if uid == "" {
		return nil, apperrors.NewValidationError("uid")
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("updates")
	}

	if err := s.users.Update(ctx, uid, updates); err != nil {
		return nil, err
	}
	return s.users.GetByUID(ctx, uid)
}

// AdjustBalance applies a signed delta to a balance. Currency "INR" moves the
// fiat balance; anything else moves the per-currency crypto balance.
func (s *UserService) AdjustBalance(ctx context.Context, uid, currency string, amount float64) (*models.User, error) {
	var missing []string
	if uid == "" {
		missing = append(missing, "uid")
	}
	if currency == "" {
		missing = append(missing, "currency")
	}
	if amount == 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	if err := s.users.IncrementBalance(ctx, uid, currency, amount); err != nil {
		return nil, err
	}

	s.logger.Info("Balance adjusted",
		util.String("uid", uid),
		util.String("currency", currency),
	)
	return s.users.GetByUID(ctx, uid)
}

// List returns a page of accounts with the total count.
func (s *UserService) List(ctx context.Context, limit, skip int64) (*UserList, error) {
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	users, err := s.users.List(ctx, limit, skip)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &UserList{Users: users, Total: total, Limit: limit, Skip: skip}, nil
}

// CreateTransaction records a ledger entry. Deposit-typed entries with no
// explicit status enter the review queue as unverified.
func (s *UserService) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*models.Transaction, error) {
	var missing []string
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		UserID:    req.UserID,
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    req.Status,
		Timestamp: now,
		CreatedAt: now,
		Extra:     req.Extra,
	}
	if tx.Status == "" && tx.IsDepositType() {
		tx.Status = models.DepositStatusUnverified
	}

	if _, err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns a user's ledger entries, newest first.
func (s *UserService) ListTransactions(ctx context.Context, userID, txType string, limit int64) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.txs.ListByUser(ctx, userID, txType, limit)
}

// ListAllTransactions returns a page of ledger entries across all users.
func (s *UserService) ListAllTransactions(ctx context.Context, txType string, limit, skip int64) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.txs.ListAll(ctx, txType, limit, skip)
}
