package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services. Handlers map these to HTTP status
// codes with errors.Is, so wrap with fmt.Errorf("%w: ...") rather than
// replacing them.
var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidToken       = errors.New("invalid admin token")
	ErrUnavailable        = errors.New("database not connected")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ValidationError reports missing or malformed input. No side effect has
// occurred when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError for the given field names.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// PermissionError means the caller authenticated but lacks the required
// permission tag. Role is included for audit logs, not for untrusted callers.
type PermissionError struct {
	Permission string
	Role       string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("this action requires '%s' permission", e.Permission)
}

// NotFoundError means no entity with the given id exists.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// InvalidTransitionError means a state-machine guard rejected the requested
// move. Expected is the required source state, Actual the state found.
type InvalidTransitionError struct {
	Entity   string
	ID       string
	Expected string
	Actual   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s is %s, expected %s", e.Entity, e.ID, e.Actual, e.Expected)
}

// UpstreamKind classifies why an outbound call failed so callers can decide
// whether a retry makes sense.
type UpstreamKind string

const (
	UpstreamTimeout UpstreamKind = "timeout"
	UpstreamStatus  UpstreamKind = "status"
	UpstreamNetwork UpstreamKind = "network"
)

// UpstreamError reports a failed payment-gateway or bank-lookup call. The raw
// upstream response body is never carried here; it is logged at the client.
type UpstreamError struct {
	Service string
	Kind    UpstreamKind
	Status  int
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case UpstreamTimeout:
		return fmt.Sprintf("%s request timed out", e.Service)
	case UpstreamStatus:
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	default:
		return fmt.Sprintf("%s request failed", e.Service)
	}
}
