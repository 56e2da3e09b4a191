package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

// fakeDepositRepo is an in-memory DepositRepository with the one-shot
// verification contract of the document store.
type fakeDepositRepo struct {
	byID   map[string]*models.Transaction
	nextID int
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{byID: map[string]*models.Transaction{}}
}

func (f *fakeDepositRepo) add(amount float64, status string, createdAt time.Time) string {
	f.nextID++
	id := fmt.Sprintf("dep-%03d", f.nextID)
	f.byID[id] = &models.Transaction{
		UserID:    "user-1",
		Type:      models.TransactionTypeDeposit,
		Amount:    amount,
		Status:    status,
		CreatedAt: createdAt,
		Timestamp: createdAt,
	}
	return id
}

func (f *fakeDepositRepo) List(_ context.Context, status, depositType string, limit, skip int64) ([]*models.Transaction, int64, error) {
	var matched []*models.Transaction
	for _, d := range f.byID {
		if status != "" && d.Status != status {
			continue
		}
		if depositType != "" && d.Type != depositType {
			continue
		}
		clone := *d
		matched = append(matched, &clone)
	}
	total := int64(len(matched))
	if skip >= total {
		return []*models.Transaction{}, total, nil
	}
	matched = matched[skip:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeDepositRepo) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "deposit", ID: id}
	}
	clone := *d
	return &clone, nil
}

func (f *fakeDepositRepo) MarkVerified(_ context.Context, id, verifiedBy, notes string, at time.Time) (bool, error) {
	d, ok := f.byID[id]
	if !ok || d.Status == models.DepositStatusVerified {
		return false, nil
	}
	d.Status = models.DepositStatusVerified
	d.VerifiedBy = verifiedBy
	d.VerifiedAt = &at
	d.AdminNotes = notes
	return true, nil
}

func (f *fakeDepositRepo) CountSince(_ context.Context, since *time.Time) (int64, error) {
	var n int64
	for _, d := range f.byID {
		if since == nil || !d.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDepositRepo) AmountsSince(_ context.Context, since *time.Time) ([]float64, error) {
	var amounts []float64
	for _, d := range f.byID {
		if since == nil || !d.CreatedAt.Before(*since) {
			amounts = append(amounts, d.Amount)
		}
	}
	return amounts, nil
}

func newDepositService(repo *fakeDepositRepo) *DepositService {
	return NewDepositService(repo, nil, zap.NewNop())
}

func TestVerifyDeposit(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := newDepositService(repo)
	id := repo.add(5000, models.DepositStatusUnverified, time.Now())

	if err := svc.Verify(context.Background(), id, "deposit.admin@gmail.com", "checked bank slip"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	d := repo.byID[id]
	if d.Status != models.DepositStatusVerified {
		t.Errorf("status = %s, expected verified", d.Status)
	}
	if d.VerifiedBy != "deposit.admin@gmail.com" || d.VerifiedAt == nil || d.AdminNotes != "checked bank slip" {
		t.Error("verification metadata not recorded")
	}
}

func TestVerifyAlreadyVerifiedIsInvalidTransition(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := newDepositService(repo)
	id := repo.add(5000, models.DepositStatusUnverified, time.Now())

	if err := svc.Verify(context.Background(), id, "first.admin@gmail.com", ""); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	err := svc.Verify(context.Background(), id, "second.admin@gmail.com", "")
	var transitionErr *apperrors.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	if repo.byID[id].VerifiedBy != "first.admin@gmail.com" {
		t.Error("second verify must not overwrite the first reviewer's stamp")
	}
}

func TestVerifyUnknownDepositIsNotFound(t *testing.T) {
	svc := newDepositService(newFakeDepositRepo())

	err := svc.Verify(context.Background(), "dep-999", "admin", "")
	var notFoundErr *apperrors.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListDepositsPagination(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := newDepositService(repo)
	for i := 0; i < 5; i++ {
		repo.add(100, models.DepositStatusUnverified, time.Now())
	}

	list, err := svc.List(context.Background(), "", "", 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 5 || len(list.Deposits) != 2 {
		t.Errorf("total=%d len=%d, expected 5 and 2", list.Total, len(list.Deposits))
	}
	if !list.HasMore {
		t.Error("expected hasMore with 5 deposits and page size 2")
	}

	last, err := svc.List(context.Background(), "", "", 2, 4)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if last.HasMore {
		t.Error("final page should not report hasMore")
	}
}

func TestDepositStatsDayBoundary(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := newDepositService(repo)

	// 2026-03-10 09:30 IST
	asOf := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	repo.add(1000, models.DepositStatusVerified, asOf.Add(-2*time.Hour))  // today, 07:30 IST
	repo.add(250, models.DepositStatusUnverified, asOf.Add(-1*time.Hour)) // today
	repo.add(5000, models.DepositStatusVerified, asOf.Add(-30*time.Hour)) // yesterday

	stats, err := svc.Stats(context.Background(), asOf)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.TotalDeposits != 3 {
		t.Errorf("totalDeposits = %d, expected 3", stats.TotalDeposits)
	}
	if stats.TodayDeposits != 2 {
		t.Errorf("todayDeposits = %d, expected 2", stats.TodayDeposits)
	}
	if math.Abs(stats.TotalDepositAmount-6250) > 1e-9 {
		t.Errorf("totalDepositAmount = %v, expected 6250", stats.TotalDepositAmount)
	}
	if math.Abs(stats.TodayDepositAmount-1250) > 1e-9 {
		t.Errorf("todayDepositAmount = %v, expected 1250", stats.TodayDepositAmount)
	}
}

func TestDepositStatsDecimalAccumulation(t *testing.T) {
	repo := newFakeDepositRepo()
	svc := newDepositService(repo)

	// 0.1 added ten times drifts under plain float64 accumulation.
	now := time.Now()
	for i := 0; i < 10; i++ {
		repo.add(0.1, models.DepositStatusVerified, now)
	}

	stats, err := svc.Stats(context.Background(), now)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalDepositAmount != 1.0 {
		t.Errorf("totalDepositAmount = %v, expected exactly 1.0", stats.TotalDepositAmount)
	}
}
