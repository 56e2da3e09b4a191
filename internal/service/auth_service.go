package service

import (
	"context"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/auth"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/repository/redis"
	"cryptopay-server/internal/util"
)

// AuthService authenticates admins against the credential store and issues
// their bearer tokens.
type AuthService struct {
	store   auth.Store
	limiter *redis.LoginLimiter
	logger  *zap.Logger
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Admin models.Admin
	Token string
}

// NewAuthService creates the auth service. limiter may be nil when Redis is
// not configured.
func NewAuthService(store auth.Store, limiter *redis.LoginLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:   store,
		limiter: limiter,
		logger:  logger,
	}
}

// Login validates credentials and returns the admin with a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	if s.limiter.IsLocked(ctx, email) {
		return nil, apperrors.ErrTooManyAttempts
	}

	admin, err := s.store.LookupByCredentials(email, password)
	if err != nil {
		s.limiter.RecordFailure(ctx, email)
		s.logger.Warn("Admin login failed", util.String("email", email))
		return nil, err
	}

	s.limiter.RecordSuccess(ctx, email)
	s.logger.Info("Admin login successful",
		util.String("email", admin.Email),
		util.String("role", admin.Role),
	)

	return &LoginResult{
		Admin: admin,
		Token: auth.Token(admin),
	}, nil
}

// VerifyToken resolves a bearer token to its admin identity.
func (s *AuthService) VerifyToken(token string) (models.Admin, error) {
	return s.store.LookupByToken(token)
}

// Authorize checks the admin's permission set against the required tag.
func (s *AuthService) Authorize(admin models.Admin, required string) error {
	return auth.Authorize(admin, required)
}

// Admins returns the role table with password secrets cleared.
func (s *AuthService) Admins() []models.Admin {
	all := s.store.All()
	out := make([]models.Admin, 0, len(all))
	for _, a := range all {
		out = append(out, a.Public())
	}
	return out
}
