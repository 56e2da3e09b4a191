package service

import (
	"go.uber.org/zap"

	"cryptopay-server/internal/audit"
	"cryptopay-server/internal/auth"
	"cryptopay-server/internal/client"
	"cryptopay-server/internal/config"
	"cryptopay-server/internal/repository/mongodb"
	"cryptopay-server/internal/repository/redis"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	config         *config.Config
	store          auth.Store
	limiter        *redis.LoginLimiter
	auditPublisher *audit.Publisher
	withdrawalRepo mongodb.WithdrawalRepository
	depositRepo    mongodb.DepositRepository
	userRepo       mongodb.UserRepository
	txRepo         mongodb.TransactionRepository
	cashfree       *client.CashfreeClient
	ifsc           *client.IFSCClient
	logger         *zap.Logger

	authService       *AuthService
	withdrawalService *WithdrawalService
	depositService    *DepositService
	statsService      *StatsService
	userService       *UserService
	paymentService    *PaymentService
	bankService       *BankService
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(
	cfg *config.Config,
	store auth.Store,
	limiter *redis.LoginLimiter,
	auditPublisher *audit.Publisher,
	withdrawalRepo mongodb.WithdrawalRepository,
	depositRepo mongodb.DepositRepository,
	userRepo mongodb.UserRepository,
	txRepo mongodb.TransactionRepository,
	cashfree *client.CashfreeClient,
	ifsc *client.IFSCClient,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		config:         cfg,
		store:          store,
		limiter:        limiter,
		auditPublisher: auditPublisher,
		withdrawalRepo: withdrawalRepo,
		depositRepo:    depositRepo,
		userRepo:       userRepo,
		txRepo:         txRepo,
		cashfree:       cashfree,
		ifsc:           ifsc,
		logger:         logger,
	}
}

// AuthService returns the auth service instance (singleton)
func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(f.store, f.limiter, f.logger)
	}
	return f.authService
}

// WithdrawalService returns the withdrawal service instance (singleton)
func (f *ServiceFactory) WithdrawalService() *WithdrawalService {
	if f.withdrawalService == nil {
		f.withdrawalService = NewWithdrawalService(f.withdrawalRepo, f.auditPublisher, f.logger)
	}
	return f.withdrawalService
}

// DepositService returns the deposit service instance (singleton)
func (f *ServiceFactory) DepositService() *DepositService {
	if f.depositService == nil {
		f.depositService = NewDepositService(f.depositRepo, f.auditPublisher, f.logger)
	}
	return f.depositService
}

// StatsService returns the dashboard stats service instance (singleton)
func (f *ServiceFactory) StatsService() *StatsService {
	if f.statsService == nil {
		f.statsService = NewStatsService(f.userRepo, f.txRepo, f.withdrawalRepo, f.logger)
	}
	return f.statsService
}

// UserService returns the user service instance (singleton)
func (f *ServiceFactory) UserService() *UserService {
	if f.userService == nil {
		f.userService = NewUserService(f.userRepo, f.txRepo, f.logger)
	}
	return f.userService
}

// PaymentService returns the payment service instance (singleton)
func (f *ServiceFactory) PaymentService() *PaymentService {
	if f.paymentService == nil {
		f.paymentService = NewPaymentService(f.cashfree, f.config.Cashfree, f.logger)
	}
	return f.paymentService
}

// BankService returns the bank verification service instance (singleton)
func (f *ServiceFactory) BankService() *BankService {
	if f.bankService == nil {
		f.bankService = NewBankService(f.ifsc, f.logger)
	}
	return f.bankService
}
