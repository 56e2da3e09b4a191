package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/audit"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/repository/mongodb"
	"cryptopay-server/internal/util"
)

// DepositService handles the deposit review workflow and the deposit
// statistics panel. "Today" boundaries are computed in the platform's
// operating timezone, not the server's local zone.
type DepositService struct {
	repo     mongodb.DepositRepository
	audit    *audit.Publisher
	location *time.Location
	logger   *zap.Logger
}

// DepositList is a page of deposits with its pagination envelope.
type DepositList struct {
	Deposits []*models.Transaction `json:"deposits"`
	Total    int64                 `json:"total"`
	Limit    int64                 `json:"limit"`
	Skip     int64                 `json:"skip"`
	HasMore  bool                  `json:"hasMore"`
}

// DepositStats summarizes deposit volume for the admin dashboard.
type DepositStats struct {
	TotalDeposits      int64   `json:"totalDeposits"`
	TodayDeposits      int64   `json:"todayDeposits"`
	TotalDepositAmount float64 `json:"totalDepositAmount"`
	TodayDepositAmount float64 `json:"todayDepositAmount"`
}

// NewDepositService creates the deposit review service.
func NewDepositService(repo mongodb.DepositRepository, auditPublisher *audit.Publisher, logger *zap.Logger) *DepositService {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return &DepositService{
		repo:     repo,
		audit:    auditPublisher,
		location: loc,
		logger:   logger,
	}
}

// List returns a page of deposit-typed transactions, newest first.
func (s *DepositService) List(ctx context.Context, status, depositType string, limit, skip int64) (*DepositList, error) {
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	deposits, total, err := s.repo.List(ctx, status, depositType, limit, skip)
	if err != nil {
		return nil, err
	}

	return &DepositList{
		Deposits: deposits,
		Total:    total,
		Limit:    limit,
		Skip:     skip,
		HasMore:  total > skip+limit,
	}, nil
}

// Verify marks a deposit as verified, stamping the acting admin. Verifying an
// already-verified deposit fails with an invalid-transition error so two
// admins cannot both record the verification.
func (s *DepositService) Verify(ctx context.Context, id, verifiedBy, notes string) error {
	now := time.Now().UTC()
	matched, err := s.repo.MarkVerified(ctx, id, verifiedBy, notes, now)
	if err != nil {
		return err
	}
	if !matched {
		deposit, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &apperrors.InvalidTransitionError{
			Entity:   "deposit",
			ID:       id,
			Expected: models.DepositStatusUnverified,
			Actual:   deposit.Status,
		}
	}

	s.logger.Info("Deposit verified",
		util.String("deposit_id", id),
		util.String("verified_by", verifiedBy),
	)
	s.audit.Publish(ctx, audit.ActionDepositVerified, "deposit", id, verifiedBy, notes)
	return nil
}

// Stats aggregates deposit counts and amounts, overall and for the current
// day. Amounts are accumulated with decimal arithmetic so the sums do not
// drift with float addition order.
func (s *DepositService) Stats(ctx context.Context, asOf time.Time) (*DepositStats, error) {
	startOfDay := s.startOfDay(asOf)

	total, err := s.repo.CountSince(ctx, nil)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.CountSince(ctx, &startOfDay)
	if err != nil {
		return nil, err
	}

	totalAmount, err := s.sumAmounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	todayAmount, err := s.sumAmounts(ctx, &startOfDay)
	if err != nil {
		return nil, err
	}

	return &DepositStats{
		TotalDeposits:      total,
		TodayDeposits:      today,
		TotalDepositAmount: totalAmount,
		TodayDepositAmount: todayAmount,
	}, nil
}

func (s *DepositService) sumAmounts(ctx context.Context, since *time.Time) (float64, error) {
	amounts, err := s.repo.AmountsSince(ctx, since)
	if err != nil {
		return 0, err
	}

	sum := decimal.Zero
	for _, amount := range amounts {
		sum = sum.Add(decimal.NewFromFloat(amount))
	}
	return sum.InexactFloat64(), nil
}

func (s *DepositService) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}
