package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/models"
)

func TestLookupByCredentials(t *testing.T) {
	store := NewStaticStore(DefaultAdmins())

	admin, err := store.LookupByCredentials("deposit.admin@gmail.com", "DepositAdmin1234")
	if err != nil {
		t.Fatalf("expected successful lookup, got %v", err)
	}
	if admin.Role != "deposit_admin" {
		t.Errorf("expected role deposit_admin, got %s", admin.Role)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "deposit.admin@gmail.com", "nope"},
		{"unknown email", "nobody@gmail.com", "DepositAdmin1234"},
		{"swapped credentials", "super.admin@gmail.com", "DepositAdmin1234"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.LookupByCredentials(tc.email, tc.password)
			if !errors.Is(err, apperrors.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLookupByToken(t *testing.T) {
	store := NewStaticStore(DefaultAdmins())

	admin, err := store.LookupByCredentials("withdraw1.admin@gmail.com", "Withdraw1Admin1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	resolved, err := store.LookupByToken(Token(admin))
	if err != nil {
		t.Fatalf("token lookup failed: %v", err)
	}
	if resolved.Email != admin.Email {
		t.Errorf("token resolved to %s, expected %s", resolved.Email, admin.Email)
	}

	if _, err := store.LookupByToken("admin-token-bogus"); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for unknown uid, got %v", err)
	}
	if _, err := store.LookupByToken(""); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestTokensResolveToDistinctAdmins(t *testing.T) {
	store := NewStaticStore(DefaultAdmins())

	seen := map[string]string{}
	for _, admin := range store.All() {
		token := Token(admin)
		if prev, dup := seen[token]; dup {
			t.Fatalf("token %s issued for both %s and %s", token, prev, admin.Email)
		}
		seen[token] = admin.Email

		resolved, err := store.LookupByToken(token)
		if err != nil {
			t.Fatalf("token for %s did not resolve: %v", admin.Email, err)
		}
		if resolved.Email != admin.Email {
			t.Errorf("token for %s resolved to %s", admin.Email, resolved.Email)
		}
	}
}

func TestLoadStoreFromFile(t *testing.T) {
	admins := []models.Admin{{
		Email:       "ops@example.com",
		Password:    "secret",
		UID:         "uid-1",
		Role:        "super_admin",
		Permissions: []string{models.PermissionAll},
	}}
	data, err := json.Marshal(admins)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if _, err := store.LookupByCredentials("ops@example.com", "secret"); err != nil {
		t.Errorf("configured admin did not authenticate: %v", err)
	}
}

func TestLoadStoreRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(path, []byte(`[{"email":"x@example.com"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStore(path); err == nil {
		t.Error("expected error for entry without password and uid")
	}
}

func TestLoadStoreDefaults(t *testing.T) {
	store, err := LoadStore("")
	if err != nil {
		t.Fatalf("LoadStore with empty path failed: %v", err)
	}
	if len(store.All()) != 5 {
		t.Errorf("expected 5 default admins, got %d", len(store.All()))
	}
}

func TestAllClonesTable(t *testing.T) {
	store := NewStaticStore(DefaultAdmins())
	all := store.All()
	all[0].Password = "mutated"

	if _, err := store.LookupByCredentials("super.admin@gmail.com", "SuperAdmin1234"); err != nil {
		t.Errorf("mutating All() result affected the store: %v", err)
	}
}
