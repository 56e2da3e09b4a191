package redis

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/client"
	"cryptopay-server/internal/util"
)

const (
	loginAttemptPrefix = "admin_login_attempts:"
	loginLockPrefix    = "admin_login_lock:"
)

// LoginLimiter tracks failed admin logins per email and temporarily locks an
// email out once the limit is exceeded. A nil limiter (Redis not configured)
// is valid and never blocks anything.
type LoginLimiter struct {
	client *client.RedisClient
	limit  int
	window time.Duration
}

// NewLoginLimiter builds a limiter over the shared Redis client.
func NewLoginLimiter(redisClient *client.RedisClient, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client: redisClient,
		limit:  limit,
		window: window,
	}
}

// IsLocked reports whether the email is currently locked out. Limiter errors
// fail open: a Redis outage must not block admin logins.
func (l *LoginLimiter) IsLocked(ctx context.Context, email string) bool {
	if l == nil || l.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	locked, err := l.client.Exists(ctx, loginLockPrefix+normalizeEmail(email))
	if err != nil {
		util.Warn("Login limiter check failed", zap.Error(err))
		return false
	}
	return locked
}

// RecordFailure counts a failed login and sets the lock once the limit is
// reached.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := normalizeEmail(email)
	count, err := l.client.IncrWithExpire(ctx, loginAttemptPrefix+key, l.window)
	if err != nil {
		util.Warn("Failed to count login attempt", zap.Error(err))
		return
	}

	if count >= int64(l.limit) {
		if _, err := l.client.SetNX(ctx, loginLockPrefix+key, "locked", l.window); err != nil {
			util.Warn("Failed to set login lock", zap.Error(err))
			return
		}
		util.Warn("Admin login temporarily locked",
			zap.String("email", email),
			zap.Int64("failed_attempts", count),
			zap.Duration("window", l.window),
		)
	}
}

// RecordSuccess clears the failure counter and any lock after a successful
// login.
func (l *LoginLimiter) RecordSuccess(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := normalizeEmail(email)
	if err := l.client.Del(ctx, loginAttemptPrefix+key, loginLockPrefix+key); err != nil {
		util.Warn("Failed to reset login attempts", zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
