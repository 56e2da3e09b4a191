package models

// Permission tags recognised by the authorizer. PermissionAll is the wildcard
// that satisfies every permission check.
const (
	PermissionAll          = "all"
	PermissionDeposits     = "deposits"
	PermissionWithdrawals  = "withdrawals"
	PermissionUsers        = "users"
	PermissionTransactions = "transactions"
)

// Admin is a statically configured administrator identity. The permission set
// is authoritative; the role label is informational only.
type Admin struct {
	Email       string   `json:"email"`
	Password    string   `json:"password,omitempty"`
	UID         string   `json:"uid"`
	Role        string   `json:"role"`
	DisplayName string   `json:"displayName"`
	Permissions []string `json:"permissions"`
}

// Public returns a copy safe to expose over the wire, with the password
// secret cleared.
func (a Admin) Public() Admin {
	a.Password = ""
	return a
}

// HasPermission reports whether the admin's permission set contains the
// required tag or the "all" wildcard.
func (a Admin) HasPermission(required string) bool {
	for _, p := range a.Permissions {
		if p == PermissionAll || p == required {
			return true
		}
	}
	return false
}
