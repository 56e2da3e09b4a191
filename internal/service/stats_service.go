package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cryptopay-server/internal/models"
	"cryptopay-server/internal/repository/mongodb"
)

// StatsService aggregates the admin dashboard counters. The underlying
// queries are independent, so they fan out concurrently and the first failure
// cancels the rest.
type StatsService struct {
	users       mongodb.UserRepository
	txs         mongodb.TransactionRepository
	withdrawals mongodb.WithdrawalRepository
	logger      *zap.Logger
}

// DashboardStats is the admin overview panel.
type DashboardStats struct {
	TotalUsers         int64                 `json:"totalUsers"`
	TotalTransactions  int64                 `json:"totalTransactions"`
	PendingWithdrawals int64                 `json:"pendingWithdrawals"`
	RecentTransactions []*models.Transaction `json:"recentTransactions"`
}

// NewStatsService creates the dashboard aggregator.
func NewStatsService(users mongodb.UserRepository, txs mongodb.TransactionRepository, withdrawals mongodb.WithdrawalRepository, logger *zap.Logger) *StatsService {
	return &StatsService{
		users:       users,
		txs:         txs,
		withdrawals: withdrawals,
		logger:      logger,
	}
}

// Dashboard collects user, transaction and withdrawal counters plus the ten
// most recent transactions.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.users.Count(ctx)
		stats.TotalUsers = count
		return err
	})
	g.Go(func() error {
		count, err := s.txs.Count(ctx)
		stats.TotalTransactions = count
		return err
	})
	g.Go(func() error {
		count, err := s.withdrawals.CountByStatus(ctx, models.WithdrawalStatusPending)
		stats.PendingWithdrawals = count
		return err
	})
	g.Go(func() error {
		recent, err := s.txs.ListRecent(ctx, 10)
		stats.RecentTransactions = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.RecentTransactions == nil {
		stats.RecentTransactions = []*models.Transaction{}
	}
	return stats, nil
}
