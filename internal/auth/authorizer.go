package auth

import (
	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

// Authorize grants the action iff the admin's permission set contains the
// required tag or the "all" wildcard. The returned PermissionError names the
// missing permission and the admin's role for audit visibility.
func Authorize(admin models.Admin, required string) error {
	if admin.HasPermission(required) {
		return nil
	}
	return &apperrors.PermissionError{
		Permission: required,
		Role:       admin.Role,
	}
}
