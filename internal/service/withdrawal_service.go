package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/audit"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/repository/mongodb"
	"cryptopay-server/internal/util"
)

const defaultRejectionReason = "No reason provided"

// WithdrawalService owns the withdrawal-request lifecycle:
// pending_admin_execution -> executed | rejected. Transitions are
// compare-and-swap updates at the repository so concurrent admin actions
// cannot both succeed on the same request.
type WithdrawalService struct {
	repo   mongodb.WithdrawalRepository
	audit  *audit.Publisher
	logger *zap.Logger
}

// CreateWithdrawalRequest is the user-facing creation payload.
type CreateWithdrawalRequest struct {
	UserID       string              `json:"userId"`
	UserAddress  string              `json:"userAddress"`
	Crypto       string              `json:"crypto"`
	CryptoAmount float64             `json:"cryptoAmount"`
	InrAmount    float64             `json:"inrAmount"`
	TokenAddress string              `json:"tokenAddress"`
	Type         string              `json:"type"`
	BankDetails  *models.BankDetails `json:"bankDetails"`
}

// NewWithdrawalService creates the withdrawal lifecycle manager.
func NewWithdrawalService(repo mongodb.WithdrawalRepository, auditPublisher *audit.Publisher, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		repo:   repo,
		audit:  auditPublisher,
		logger: logger,
	}
}

// Create validates and stores a new withdrawal request in the pending state,
// returning the stored document id alongside the request.
func (s *WithdrawalService) Create(ctx context.Context, req *CreateWithdrawalRequest) (string, *models.Withdrawal, error) {
	var missing []string
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.Crypto == "" {
		missing = append(missing, "crypto")
	}
	if req.CryptoAmount <= 0 {
		missing = append(missing, "cryptoAmount")
	}
	if req.InrAmount <= 0 {
		missing = append(missing, "inrAmount")
	}
	if req.TokenAddress == "" {
		missing = append(missing, "tokenAddress")
	}
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return "", nil, apperrors.NewValidationError(missing...)
	}

	withdrawal := &models.Withdrawal{
		UserID:       req.UserID,
		UserAddress:  req.UserAddress,
		Crypto:       req.Crypto,
		CryptoAmount: req.CryptoAmount,
		InrAmount:    req.InrAmount,
		TokenAddress: req.TokenAddress,
		Type:         req.Type,
		Status:       models.WithdrawalStatusPending,
		BankDetails:  req.BankDetails,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.repo.Create(ctx, withdrawal)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("Withdrawal request created",
		util.String("withdrawal_id", id),
		util.String("user_id", req.UserID),
		util.String("crypto", req.Crypto),
	)
	return id, withdrawal, nil
}

// ListPending returns all requests awaiting admin execution, newest first.
func (s *WithdrawalService) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	return s.repo.ListByStatus(ctx, models.WithdrawalStatusPending)
}

// ListForUser returns a user's own requests, newest first, optionally
// filtered by status.
func (s *WithdrawalService) ListForUser(ctx context.Context, userID, status string, limit int64) ([]*models.Withdrawal, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, status, limit)
}

// Execute transitions a pending request to executed, recording the on-chain
// transaction hash and the acting admin. The fund movement itself happens
// outside this system; only the outcome is recorded here.
func (s *WithdrawalService) Execute(ctx context.Context, id, txHash, executedBy string) error {
	if txHash == "" {
		return apperrors.NewValidationError("txHash")
	}

	now := time.Now().UTC()
	matched, err := s.repo.MarkExecuted(ctx, id, txHash, executedBy, now)
	if err != nil {
		return err
	}
	if !matched {
		return s.transitionFailure(ctx, id)
	}

	s.logger.Info("Withdrawal executed",
		util.String("withdrawal_id", id),
		util.String("executed_by", executedBy),
		util.String("tx_hash", txHash),
	)
	s.audit.Publish(ctx, audit.ActionWithdrawalExecuted, "withdrawal", id, executedBy, txHash)
	return nil
}

// Reject transitions a pending request to rejected with the given reason.
func (s *WithdrawalService) Reject(ctx context.Context, id, reason, rejectedBy string) error {
	if reason == "" {
		reason = defaultRejectionReason
	}

	now := time.Now().UTC()
	matched, err := s.repo.MarkRejected(ctx, id, reason, rejectedBy, now)
	if err != nil {
		return err
	}
	if !matched {
		return s.transitionFailure(ctx, id)
	}

	s.logger.Info("Withdrawal rejected",
		util.String("withdrawal_id", id),
		util.String("rejected_by", rejectedBy),
		util.String("reason", reason),
	)
	s.audit.Publish(ctx, audit.ActionWithdrawalRejected, "withdrawal", id, rejectedBy, reason)
	return nil
}

// transitionFailure distinguishes an unknown id from a request that already
// reached a terminal state.
func (s *WithdrawalService) transitionFailure(ctx context.Context, id string) error {
	withdrawal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &apperrors.InvalidTransitionError{
		Entity:   "withdrawal",
		ID:       id,
		Expected: models.WithdrawalStatusPending,
		Actual:   withdrawal.Status,
	}
}

// CountPending is used by the dashboard aggregator.
func (s *WithdrawalService) CountPending(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, models.WithdrawalStatusPending)
}
