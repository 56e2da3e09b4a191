// Package mongodb implements the document-store repositories. Lifecycle
// transitions are single conditional updates (the filter includes the
// expected source state) so concurrent admin actions cannot both succeed, and
// balance changes are single $inc updates so concurrent settlements cannot
// lose writes.
package mongodb

import (
	"context"
	"time"

	"cryptopay-server/internal/models"
)

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) (string, error)
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID, status string, limit int64) ([]*models.Withdrawal, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	// MarkExecuted transitions pending -> executed. It reports false when no
	// pending document with the id matched.
	MarkExecuted(ctx context.Context, id, txHash, executedBy string, at time.Time) (bool, error)
	// MarkRejected transitions pending -> rejected with the same matching
	// contract as MarkExecuted.
	MarkRejected(ctx context.Context, id, reason, rejectedBy string, at time.Time) (bool, error)
}

// DepositRepository reads and reviews deposit-typed transactions.
type DepositRepository interface {
	List(ctx context.Context, status, depositType string, limit, skip int64) ([]*models.Transaction, int64, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	// MarkVerified transitions a not-yet-verified deposit to verified. It
	// reports false when no unverified document with the id matched.
	MarkVerified(ctx context.Context, id, verifiedBy, notes string, at time.Time) (bool, error)
	CountSince(ctx context.Context, since *time.Time) (int64, error)
	AmountsSince(ctx context.Context, since *time.Time) ([]float64, error)
}

// UserRepository persists platform accounts.
type UserRepository interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (string, error)
	Update(ctx context.Context, uid string, updates map[string]interface{}) error
	// IncrementBalance applies an atomic increment to the INR balance or a
	// per-currency crypto balance.
	IncrementBalance(ctx context.Context, uid, currency string, amount float64) error
	List(ctx context.Context, limit, skip int64) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository persists ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (string, error)
	ListByUser(ctx context.Context, userID, txType string, limit int64) ([]*models.Transaction, error)
	ListAll(ctx context.Context, txType string, limit, skip int64) ([]*models.Transaction, error)
	ListRecent(ctx context.Context, n int64) ([]*models.Transaction, error)
	Count(ctx context.Context) (int64, error)
}
