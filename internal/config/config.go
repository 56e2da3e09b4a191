package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment with an
// optional .env file.
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Cashfree    CashfreeConfig
	Bank        BankConfig
	Admin       AdminConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	URL     string
	Enabled bool
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Enabled    bool
}

type CashfreeConfig struct {
	AppID      string
	SecretKey  string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
	// ClientOrigin is used to build the order return URL.
	ClientOrigin string
}

type BankConfig struct {
	IFSCBaseURL string
	Timeout     time.Duration
}

type AdminConfig struct {
	// CredentialsFile points to a JSON array of admin identities. When empty
	// the built-in default roles are used.
	CredentialsFile string
	// LoginAttemptLimit is the number of failed logins per email before the
	// limiter locks the account out for the attempt window.
	LoginAttemptLimit  int
	LoginAttemptWindow time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads configuration from the environment. A missing .env file is
// not an error.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 5000),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("DB_NAME", "CyrptopayDB"),
			Timeout:  getEnvDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			Enabled: getEnv("REDIS_URL", "") != "",
		},
		Kafka: KafkaConfig{
			Brokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "admin-audit-events"),
			Enabled:    getEnv("KAFKA_BROKERS", "") != "",
		},
		Cashfree: CashfreeConfig{
			AppID:        getEnv("CASHFREE_APP_ID", ""),
			SecretKey:    getEnv("CASHFREE_SECRET_KEY", ""),
			APIVersion:   getEnv("CASHFREE_API_VERSION", "2023-08-01"),
			BaseURL:      getEnv("CASHFREE_BASE", "https://sandbox.cashfree.com/pg"),
			Timeout:      getEnvDuration("CASHFREE_TIMEOUT", 15*time.Second),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		},
		Bank: BankConfig{
			IFSCBaseURL: getEnv("IFSC_BASE", "https://ifsc.razorpay.com"),
			Timeout:     getEnvDuration("IFSC_TIMEOUT", 10*time.Second),
		},
		Admin: AdminConfig{
			CredentialsFile:    getEnv("ADMIN_CREDENTIALS_FILE", ""),
			LoginAttemptLimit:  getEnvInt("ADMIN_LOGIN_ATTEMPT_LIMIT", 10),
			LoginAttemptWindow: getEnvDuration("ADMIN_LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins(),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func corsOrigins() []string {
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		return splitAndTrim(v)
	}
	return []string{
		getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		"http://127.0.0.1:3000",
		"http://localhost:3001",
		"https://cryptopay2.netlify.app",
	}
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
