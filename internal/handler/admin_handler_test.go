package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/auth"
	"cryptopay-server/internal/config"
	"cryptopay-server/internal/models"
	"cryptopay-server/internal/service"
)

// memWithdrawalRepo backs the handler tests with the same conditional-update
// contract as the document store.
type memWithdrawalRepo struct {
	byID map[string]*models.Withdrawal
}

func (m *memWithdrawalRepo) Create(_ context.Context, w *models.Withdrawal) (string, error) {
	id := "wd-1"
	m.byID[id] = w
	return id, nil
}

func (m *memWithdrawalRepo) GetByID(_ context.Context, id string) (*models.Withdrawal, error) {
	w, ok := m.byID[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "withdrawal", ID: id}
	}
	return w, nil
}

func (m *memWithdrawalRepo) ListByStatus(_ context.Context, status string) ([]*models.Withdrawal, error) {
	var out []*models.Withdrawal
	for _, w := range m.byID {
		if w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWithdrawalRepo) ListByUser(_ context.Context, userID, status string, limit int64) ([]*models.Withdrawal, error) {
	var out []*models.Withdrawal
	for _, w := range m.byID {
		if w.UserID == userID && (status == "" || w.Status == status) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWithdrawalRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	list, _ := m.ListByStatus(ctx, status)
	return int64(len(list)), nil
}

func (m *memWithdrawalRepo) MarkExecuted(_ context.Context, id, txHash, executedBy string, at time.Time) (bool, error) {
	w, ok := m.byID[id]
	if !ok || w.Status != models.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = models.WithdrawalStatusExecuted
	w.TxHash = txHash
	w.ExecutedBy = executedBy
	w.ExecutedAt = &at
	return true, nil
}

func (m *memWithdrawalRepo) MarkRejected(_ context.Context, id, reason, rejectedBy string, at time.Time) (bool, error) {
	w, ok := m.byID[id]
	if !ok || w.Status != models.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = models.WithdrawalStatusRejected
	w.RejectionReason = reason
	w.RejectedBy = rejectedBy
	w.RejectedAt = &at
	return true, nil
}

func newTestServer(t *testing.T, repo *memWithdrawalRepo) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	authService := service.NewAuthService(auth.NewStaticStore(auth.DefaultAdmins()), nil, logger)
	withdrawalService := service.NewWithdrawalService(repo, nil, logger)

	adminHandler := NewAdminHandler(authService, withdrawalService, nil, nil, nil, logger)
	userHandler := NewUserHandler(nil, withdrawalService, logger)
	paymentHandler := NewPaymentHandler(nil, nil, logger)

	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}}
	server := httptest.NewServer(NewRouter(cfg, adminHandler, userHandler, paymentHandler, logger))
	t.Cleanup(server.Close)
	return server
}

func pendingRepo() *memWithdrawalRepo {
	return &memWithdrawalRepo{byID: map[string]*models.Withdrawal{
		"wd-1": {
			UserID:       "user-1",
			Crypto:       "USDT",
			CryptoAmount: 10,
			InrAmount:    900,
			TokenAddress: "0xdef",
			Type:         "crypto_withdrawal",
			Status:       models.WithdrawalStatusPending,
			CreatedAt:    time.Now().UTC(),
		},
	}}
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()

	body := strings.NewReader(`{"email":"` + email + `","password":"` + password + `"}`)
	resp, err := http.Post(server.URL+"/api/admin/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	var payload struct {
		Success bool `json:"success"`
		Admin   struct {
			Token string `json:"token"`
		} `json:"admin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if !payload.Success || payload.Admin.Token == "" {
		t.Fatal("login response missing token")
	}
	return payload.Admin.Token
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, Response) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("response not decodable: %v", err)
	}
	return resp, envelope
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := newTestServer(t, pendingRepo())

	body := strings.NewReader(`{"email":"super.admin@gmail.com","password":"wrong"}`)
	resp, err := http.Post(server.URL+"/api/admin/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", resp.StatusCode)
	}
}

func TestLoginReturnsTokenInsideAdmin(t *testing.T) {
	server := newTestServer(t, pendingRepo())

	body := strings.NewReader(`{"email":"super.admin@gmail.com","password":"SuperAdmin1234"}`)
	resp, err := http.Post(server.URL+"/api/admin/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	var payload struct {
		Success bool `json:"success"`
		Admin   struct {
			UID         string   `json:"uid"`
			Email       string   `json:"email"`
			Role        string   `json:"role"`
			DisplayName string   `json:"displayName"`
			Permissions []string `json:"permissions"`
			Token       string   `json:"token"`
			Password    string   `json:"password"`
		} `json:"admin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}

	if !payload.Success {
		t.Error("expected success=true")
	}
	if payload.Admin.Token != auth.TokenPrefix+payload.Admin.UID {
		t.Errorf("token %q must appear inside the admin object as prefix+uid", payload.Admin.Token)
	}
	if payload.Admin.Email != "super.admin@gmail.com" || payload.Admin.Role == "" || len(payload.Admin.Permissions) == 0 {
		t.Errorf("admin object incomplete: %+v", payload.Admin)
	}
	if payload.Admin.Password != "" {
		t.Error("login must not echo the password")
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	server := newTestServer(t, pendingRepo())

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/admin/withdrawals", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401 without token", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/admin/withdrawals", "admin-token-bogus", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401 with unknown token", resp.StatusCode)
	}
}

func TestDepositAdminCannotExecuteWithdrawal(t *testing.T) {
	repo := pendingRepo()
	server := newTestServer(t, repo)
	token := login(t, server, "deposit.admin@gmail.com", "DepositAdmin1234")

	resp, envelope := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/execute", token, `{"txHash":"0xhash"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", resp.StatusCode)
	}
	if !strings.Contains(envelope.Error, "withdrawals") {
		t.Errorf("error %q should name the missing permission", envelope.Error)
	}
	if repo.byID["wd-1"].Status != models.WithdrawalStatusPending {
		t.Error("denied request must not change the withdrawal")
	}
}

func TestWithdrawalAdminExecutes(t *testing.T) {
	repo := pendingRepo()
	server := newTestServer(t, repo)
	token := login(t, server, "withdraw1.admin@gmail.com", "Withdraw1Admin1234")

	resp, envelope := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/execute", token, `{"txHash":"0xhash"}`)
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("execute returned %d: %+v", resp.StatusCode, envelope)
	}

	w := repo.byID["wd-1"]
	if w.Status != models.WithdrawalStatusExecuted {
		t.Errorf("status = %s, expected executed", w.Status)
	}
	if w.ExecutedBy != "withdraw1.admin@gmail.com" {
		t.Errorf("executedBy = %q, expected the acting admin's email", w.ExecutedBy)
	}

	// Second execute must surface the conflict.
	resp, _ = doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/execute", token, `{"txHash":"0xother"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second execute status = %d, expected 409", resp.StatusCode)
	}
}

func TestExecuteUnknownWithdrawalIs404(t *testing.T) {
	server := newTestServer(t, pendingRepo())
	token := login(t, server, "super.admin@gmail.com", "SuperAdmin1234")

	resp, _ := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-404/execute", token, `{"txHash":"0xhash"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", resp.StatusCode)
	}
}

func TestRejectWithdrawalDefaultsReason(t *testing.T) {
	repo := pendingRepo()
	server := newTestServer(t, repo)
	token := login(t, server, "withdraw2.admin@gmail.com", "Withdraw2Admin1234")

	resp, _ := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/reject", token, `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject returned %d", resp.StatusCode)
	}
	if repo.byID["wd-1"].RejectionReason != "No reason provided" {
		t.Errorf("rejection reason = %q, expected default", repo.byID["wd-1"].RejectionReason)
	}
}

func TestSuperAdminWildcard(t *testing.T) {
	server := newTestServer(t, pendingRepo())
	token := login(t, server, "super.admin@gmail.com", "SuperAdmin1234")

	resp, envelope := doJSON(t, http.MethodGet, server.URL+"/api/admin/withdrawals", token, "")
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Errorf("super admin should list withdrawals, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/admin/roles", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("super admin should list roles, got %d", resp.StatusCode)
	}
}

func TestRolesHidePasswords(t *testing.T) {
	server := newTestServer(t, pendingRepo())
	token := login(t, server, "super.admin@gmail.com", "SuperAdmin1234")

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/admin/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data struct {
			Roles []models.Admin `json:"roles"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data.Roles) == 0 {
		t.Fatal("expected roles in response")
	}
	for _, role := range envelope.Data.Roles {
		if role.Password != "" {
			t.Errorf("role %s exposes password over the wire", role.Email)
		}
	}
}

func TestCreateWithdrawalValidation(t *testing.T) {
	server := newTestServer(t, &memWithdrawalRepo{byID: map[string]*models.Withdrawal{}})

	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/api/withdrawals", "", `{"userId":"user-1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", resp.StatusCode)
	}
	if !strings.Contains(envelope.Error, "tokenAddress") {
		t.Errorf("error %q should list the missing fields", envelope.Error)
	}
}

func TestCreateWithdrawalResponseShape(t *testing.T) {
	server := newTestServer(t, &memWithdrawalRepo{byID: map[string]*models.Withdrawal{}})

	body := `{"userId":"u1","crypto":"ETH","cryptoAmount":1.5,"inrAmount":50000,"tokenAddress":"0xabc","type":"crypto"}`
	resp, err := http.Post(server.URL+"/api/withdrawals", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200", resp.StatusCode)
	}

	var payload struct {
		Success      bool   `json:"success"`
		WithdrawalID string `json:"withdrawalId"`
		Withdrawal   struct {
			Status string `json:"status"`
		} `json:"withdrawal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if !payload.Success || payload.WithdrawalID != "wd-1" {
		t.Errorf("expected top-level withdrawalId wd-1, got %+v", payload)
	}
	if payload.Withdrawal.Status != models.WithdrawalStatusPending {
		t.Errorf("withdrawal status = %q, expected pending", payload.Withdrawal.Status)
	}
}

func TestRejectWithdrawalAcceptsEmptyBody(t *testing.T) {
	repo := pendingRepo()
	server := newTestServer(t, repo)
	token := login(t, server, "withdraw1.admin@gmail.com", "Withdraw1Admin1234")

	resp, envelope := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/reject", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject with empty body returned %d: %+v", resp.StatusCode, envelope)
	}

	w := repo.byID["wd-1"]
	if w.RejectionReason != "No reason provided" {
		t.Errorf("rejection reason = %q, expected default", w.RejectionReason)
	}
	if w.RejectedBy != "withdraw1.admin@gmail.com" {
		t.Errorf("rejectedBy = %q, expected the acting admin's email", w.RejectedBy)
	}
}

func TestExecuteWithdrawalEmptyBodyReportsMissingTxHash(t *testing.T) {
	server := newTestServer(t, pendingRepo())
	token := login(t, server, "withdraw1.admin@gmail.com", "Withdraw1Admin1234")

	resp, envelope := doJSON(t, http.MethodPost,
		server.URL+"/api/admin/withdrawals/wd-1/execute", token, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", resp.StatusCode)
	}
	if !strings.Contains(envelope.Error, "txHash") {
		t.Errorf("error %q should name txHash, not a decode failure", envelope.Error)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server := newTestServer(t, pendingRepo())

	resp, err := http.Get(server.URL + "/api/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, pendingRepo())

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, expected 200", resp.StatusCode)
	}
}
