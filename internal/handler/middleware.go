package handler

import (
	"context"
	"net/http"
	"strings"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/service"
)

type contextKey string

const adminContextKey contextKey = "admin"

// AdminAuth resolves the Bearer token to an admin identity and stores it on
// the request context. Requests without a valid token never reach the
// protected handlers.
func AdminAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, apperrors.ErrInvalidToken, "Authentication required")
				return
			}

			admin, err := authService.VerifyToken(token)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, err, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route group on one permission tag. Must run after
// AdminAuth.
func RequirePermission(authService *service.AuthService, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := adminFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, apperrors.ErrInvalidToken, "Authentication required")
				return
			}

			if err := authService.Authorize(admin, permission); err != nil {
				handleServiceError(w, err, "Permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func adminFromContext(ctx context.Context) (models.Admin, bool) {
	admin, ok := ctx.Value(adminContextKey).(models.Admin)
	return admin, ok
}
