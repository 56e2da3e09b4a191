package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cryptopay-server/internal/models"
	"cryptopay-server/internal/service"
	"cryptopay-server/internal/util"
)

// AdminHandler handles the admin console HTTP surface: login, withdrawal
// execution/rejection, deposit review and platform stats.
type AdminHandler struct {
	authService       *service.AuthService
	withdrawalService *service.WithdrawalService
	depositService    *service.DepositService
	statsService      *service.StatsService
	userService       *service.UserService
	logger            *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	authService *service.AuthService,
	withdrawalService *service.WithdrawalService,
	depositService *service.DepositService,
	statsService *service.StatsService,
	userService *service.UserService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:       authService,
		withdrawalService: withdrawalService,
		depositService:    depositService,
		statsService:      statsService,
		userService:       userService,
		logger:            logger,
	}
}

// RegisterRoutes registers the protected admin routes. Login is registered
// separately because it must stay reachable without a token.
func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Use(AdminAuth(h.authService))

	router.Group(func(r chi.Router) {
		r.Use(RequirePermission(h.authService, models.PermissionWithdrawals))
		r.Get("/withdrawals", h.ListPendingWithdrawals)
		r.Post("/withdrawals/{id}/execute", h.ExecuteWithdrawal)
		r.Post("/withdrawals/{id}/reject", h.RejectWithdrawal)
	})

	router.Group(func(r chi.Router) {
		r.Use(RequirePermission(h.authService, models.PermissionDeposits))
		r.Get("/deposits", h.ListDeposits)
		r.Get("/deposit-stats", h.DepositStats)
		r.Post("/deposits/{id}/verify", h.VerifyDeposit)
	})

	router.Group(func(r chi.Router) {
		r.Use(RequirePermission(h.authService, models.PermissionUsers))
		r.Get("/users", h.ListUsers)
	})

	router.Group(func(r chi.Router) {
		r.Use(RequirePermission(h.authService, models.PermissionTransactions))
		r.Get("/transactions", h.ListTransactions)
	})

	router.Group(func(r chi.Router) {
		r.Use(RequirePermission(h.authService, models.PermissionAll))
		r.Get("/roles", h.ListRoles)
		r.Get("/stats", h.DashboardStats)
	})
}

// adminSession is the login payload. The console expects the bearer token as
// a field of the admin object itself, not a sibling.
type adminSession struct {
	models.Admin
	Token string `json:"token"`
}

// Login authenticates an admin and returns the identity with its bearer
// token and permission set at the top level of the response.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err, "Login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"admin": adminSession{
			Admin: result.Admin.Public(),
			Token: result.Token,
		},
	})
}

// ListPendingWithdrawals returns all requests awaiting execution.
func (h *AdminHandler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.withdrawalService.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err, "Failed to list pending withdrawals")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	}, "Pending withdrawals retrieved"))
}

// ExecuteWithdrawal marks a pending withdrawal as executed. The acting admin
// is recorded unless the request names someone explicitly.
func (h *AdminHandler) ExecuteWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	id := chi.URLParam(r, "id")

	var req struct {
		TxHash     string `json:"txHash"`
		ExecutedBy string `json:"executedBy"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.ExecutedBy == "" {
		if admin, ok := adminFromContext(ctx); ok {
			req.ExecutedBy = admin.Email
		}
	}

	if err := h.withdrawalService.Execute(ctx, id, req.TxHash, req.ExecutedBy); err != nil {
		handleServiceError(w, err, "Failed to execute withdrawal")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Withdrawal executed successfully"))
	h.logger.Info("Withdrawal executed via HTTP",
		util.String("withdrawal_id", id),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "ExecuteWithdrawal"),
	)
}

// RejectWithdrawal marks a pending withdrawal as rejected.
func (h *AdminHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req struct {
		Reason     string `json:"reason"`
		RejectedBy string `json:"rejectedBy"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.RejectedBy == "" {
		if admin, ok := adminFromContext(ctx); ok {
			req.RejectedBy = admin.Email
		}
	}

	if err := h.withdrawalService.Reject(ctx, id, req.Reason, req.RejectedBy); err != nil {
		handleServiceError(w, err, "Failed to reject withdrawal")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Withdrawal rejected successfully"))
}

// ListDeposits returns a page of deposit-typed transactions for review.
func (h *AdminHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	depositType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 50)
	skip := queryInt(r, "skip", 0)

	list, err := h.depositService.List(r.Context(), status, depositType, limit, skip)
	if err != nil {
		handleServiceError(w, err, "Failed to list deposits")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(list, "Deposits retrieved"))
}

// DepositStats returns deposit volume counters for the admin dashboard.
func (h *AdminHandler) DepositStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.depositService.Stats(r.Context(), time.Now())
	if err != nil {
		handleServiceError(w, err, "Failed to compute deposit stats")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(stats, "Deposit stats retrieved"))
}

// VerifyDeposit marks a deposit as verified by the acting admin.
func (h *AdminHandler) VerifyDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req struct {
		Notes      string `json:"notes"`
		VerifiedBy string `json:"verifiedBy"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if req.VerifiedBy == "" {
		if admin, ok := adminFromContext(ctx); ok {
			req.VerifiedBy = admin.Email
		}
	}

	if err := h.depositService.Verify(ctx, id, req.VerifiedBy, req.Notes); err != nil {
		handleServiceError(w, err, "Failed to verify deposit")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Deposit verified successfully"))
}

// ListUsers returns a page of platform accounts.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	skip := queryInt(r, "skip", 0)

	list, err := h.userService.List(r.Context(), limit, skip)
	if err != nil {
		handleServiceError(w, err, "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(list, "Users retrieved"))
}

// ListTransactions returns a page of ledger entries across all users.
func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 100)
	skip := queryInt(r, "skip", 0)

	transactions, err := h.userService.ListAllTransactions(r.Context(), txType, limit, skip)
	if err != nil {
		handleServiceError(w, err, "Failed to list transactions")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	}, "Transactions retrieved"))
}

// ListRoles returns the configured admin identities without their secrets.
func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"roles": h.authService.Admins(),
	}, "Roles retrieved"))
}

// DashboardStats returns the platform overview counters.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err, "Failed to compute dashboard stats")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(stats, "Dashboard stats retrieved"))
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
