package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

// TokenPrefix is the fixed prefix of admin bearer tokens. The token for an
// admin is TokenPrefix + uid: deterministic, non-expiring and non-revocable.
// That contract is kept for wire compatibility with existing admin clients;
// it is a known weakness, not a pattern to extend.
const TokenPrefix = "admin-token-"

// Store resolves admin identities. Implementations are read-only after
// construction and safe for concurrent use.
type Store interface {
	LookupByCredentials(email, password string) (models.Admin, error)
	LookupByToken(token string) (models.Admin, error)
	All() []models.Admin
}

// StaticStore holds a fixed admin table loaded at process start.
type StaticStore struct {
	admins []models.Admin
}

// NewStaticStore builds a store from an explicit admin table.
func NewStaticStore(admins []models.Admin) *StaticStore {
	copied := make([]models.Admin, len(admins))
	copy(copied, admins)
	return &StaticStore{admins: copied}
}

// LoadStore reads the admin table from a JSON file. An empty path selects the
// built-in default roles.
func LoadStore(path string) (*StaticStore, error) {
	if path == "" {
		return NewStaticStore(DefaultAdmins()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin credentials file: %w", err)
	}

	var admins []models.Admin
	if err := json.Unmarshal(data, &admins); err != nil {
		return nil, fmt.Errorf("failed to parse admin credentials file: %w", err)
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("admin credentials file %s contains no admins", path)
	}
	for i, a := range admins {
		if a.Email == "" || a.Password == "" || a.UID == "" {
			return nil, fmt.Errorf("admin entry %d is missing email, password or uid", i)
		}
	}

	return NewStaticStore(admins), nil
}

// DefaultAdmins returns the built-in role table: one super admin, one deposit
// admin, two withdrawal admins and the legacy super admin kept for backward
// compatibility. Each entry has a distinct uid so that tokens resolve to the
// identity they were issued for.
func DefaultAdmins() []models.Admin {
	return []models.Admin{
		{
			Email:       "super.admin@gmail.com",
			Password:    "SuperAdmin1234",
			UID:         "83HM4RcwD4Ye08PY13dY484EIxm2",
			Role:        "super_admin",
			DisplayName: "Super Admin",
			Permissions: []string{models.PermissionAll},
		},
		{
			Email:       "deposit.admin@gmail.com",
			Password:    "DepositAdmin1234",
			UID:         "deposit_admin_uid_002",
			Role:        "deposit_admin",
			DisplayName: "Deposit Admin",
			Permissions: []string{models.PermissionDeposits, models.PermissionUsers, models.PermissionTransactions},
		},
		{
			Email:       "withdraw1.admin@gmail.com",
			Password:    "Withdraw1Admin1234",
			UID:         "withdraw1_admin_uid_003",
			Role:        "withdrawal_admin",
			DisplayName: "Withdrawal Admin 1",
			Permissions: []string{models.PermissionWithdrawals, models.PermissionUsers},
		},
		{
			Email:       "withdraw2.admin@gmail.com",
			Password:    "Withdraw2Admin1234",
			UID:         "withdraw2_admin_uid_004",
			Role:        "withdrawal_admin",
			DisplayName: "Withdrawal Admin 2",
			Permissions: []string{models.PermissionWithdrawals, models.PermissionUsers},
		},
		{
			Email:       "vaibhav.admin@gmail.com",
			Password:    "Vaibhav1234",
			UID:         "legacy_admin_uid_005",
			Role:        "super_admin",
			DisplayName: "Vaibhav Admin",
			Permissions: []string{models.PermissionAll},
		},
	}
}

// LookupByCredentials scans the whole table regardless of where a match is
// found, comparing in constant time, so response timing does not reveal which
// emails exist.
func (s *StaticStore) LookupByCredentials(email, password string) (models.Admin, error) {
	var (
		found bool
		match models.Admin
	)
	for _, admin := range s.admins {
		emailOK := constantTimeEquals(admin.Email, email)
		passwordOK := constantTimeEquals(admin.Password, password)
		if emailOK && passwordOK && !found {
			found = true
			match = admin
		}
	}
	if !found {
		return models.Admin{}, apperrors.ErrInvalidCredentials
	}
	return match, nil
}

// LookupByToken resolves a bearer token by deriving each admin's token and
// comparing in constant time.
func (s *StaticStore) LookupByToken(token string) (models.Admin, error) {
	var (
		found bool
		match models.Admin
	)
	for _, admin := range s.admins {
		if constantTimeEquals(Token(admin), token) && !found {
			found = true
			match = admin
		}
	}
	if !found {
		return models.Admin{}, apperrors.ErrInvalidToken
	}
	return match, nil
}

// All returns a copy of the admin table.
func (s *StaticStore) All() []models.Admin {
	out := make([]models.Admin, len(s.admins))
	copy(out, s.admins)
	return out
}

// Token derives the bearer token for an admin identity.
func Token(admin models.Admin) string {
	return TokenPrefix + admin.UID
}

// constantTimeEquals compares two strings without leaking their common-prefix
// length. Inputs are hashed first so lengths need not match.
func constantTimeEquals(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
