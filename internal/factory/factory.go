package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"cryptopay-server/internal/audit"
	"cryptopay-server/internal/auth"
	"cryptopay-server/internal/client"
	"cryptopay-server/internal/config"
	"cryptopay-server/internal/repository/mongodb"
	"cryptopay-server/internal/repository/redis"
	"cryptopay-server/internal/service"
	"cryptopay-server/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	mongoClient    *client.MongoClient
	redisClient    *client.RedisClient
	kafkaProducer  *client.KafkaProducer
	cashfreeClient *client.CashfreeClient
	ifscClient     *client.IFSCClient

	// Admin identity and rate limiting
	adminStore   *auth.StaticStore
	loginLimiter *redis.LoginLimiter

	auditPublisher *audit.Publisher

	// Repositories
	withdrawalRepository  mongodb.WithdrawalRepository
	depositRepository     mongodb.DepositRepository
	userRepository        mongodb.UserRepository
	transactionRepository mongodb.TransactionRepository

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	store, err := auth.LoadStore(cfg.Admin.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin credentials: %w", err)
	}
	factory.adminStore = store

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeRepositories()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("mongo_connected", factory.mongoClient != nil),
		util.Bool("redis_enabled", factory.redisClient != nil),
		util.Bool("kafka_enabled", factory.kafkaProducer != nil),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health
// checks. MongoDB is allowed to fail outside production: the server then runs
// degraded, serving auth and gateway routes while data routes return 503.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// MongoDB
	if mongoClient, err := client.NewMongoClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("mongodb: %w", err))
	} else {
		f.mongoClient = mongoClient
		if err := f.mongoClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("mongodb health check: %w", err))
		} else {
			util.Info("MongoDB client initialized and healthy")
		}
	}

	// Redis (optional, backs the login limiter)
	if f.config.Redis.Enabled {
		if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
			util.Warn("Redis initialization failed - proceeding without login limiter", util.ErrorField(err))
		} else {
			f.redisClient = redisClient
			util.Info("Redis client initialized")
		}
	}

	// Kafka (optional, backs the audit stream)
	if f.config.Kafka.Enabled {
		if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without audit stream", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	f.cashfreeClient = client.NewCashfreeClient(f.config, util.Get())
	f.ifscClient = client.NewIFSCClient(f.config, util.Get())

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializeRepositories wires the document-store repositories. They accept a
// nil database and fail fast with a service-unavailable error per call.
func (f *Factory) initializeRepositories() {
	var db *mongo.Database
	if f.mongoClient != nil {
		db = f.mongoClient.Database()
	}

	f.withdrawalRepository = mongodb.NewWithdrawalRepository(db, util.Get())
	f.depositRepository = mongodb.NewDepositRepository(db, util.Get())
	f.userRepository = mongodb.NewUserRepository(db, util.Get())
	f.transactionRepository = mongodb.NewTransactionRepository(db, util.Get())

	f.loginLimiter = redis.NewLoginLimiter(
		f.redisClient,
		f.config.Admin.LoginAttemptLimit,
		f.config.Admin.LoginAttemptWindow,
	)
	f.auditPublisher = audit.NewPublisher(f.kafkaProducer, f.config.Kafka.AuditTopic, util.Get())
}

// ServiceFactory returns the lazily built service layer.
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.config,
			f.adminStore,
			f.loginLimiter,
			f.auditPublisher,
			f.withdrawalRepository,
			f.depositRepository,
			f.userRepository,
			f.transactionRepository,
			f.cashfreeClient,
			f.ifscClient,
			util.Get(),
		)
	}
	return f.serviceFactory
}

// HealthCheck reports per-dependency health.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.mongoClient != nil {
		if err := f.mongoClient.HealthCheck(ctx); err != nil {
			healthErrors["mongodb"] = err
		}
	} else {
		healthErrors["mongodb"] = fmt.Errorf("mongodb client not initialized")
	}

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

// IsHealthy reports whether the mandatory dependencies are up. Redis and
// Kafka are best-effort and do not gate readiness.
func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "redis")
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

// Close shuts down all clients once.
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.mongoClient != nil {
			if err := f.mongoClient.Close(); err != nil {
				util.Error("Failed to close MongoDB client", util.ErrorField(err))
			} else {
				util.Info("MongoDB client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

// WaitForClose blocks until Close has run.
func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}
