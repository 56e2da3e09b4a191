package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cryptopay-server/internal/service"
	"cryptopay-server/internal/util"
)

// UserHandler handles the public account, transaction and withdrawal routes.
type UserHandler struct {
	userService       *service.UserService
	withdrawalService *service.WithdrawalService
	logger            *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, withdrawalService *service.WithdrawalService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:       userService,
		withdrawalService: withdrawalService,
		logger:            logger,
	}
}

// RegisterRoutes registers the public routes
func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/email/{email}", h.GetUserByEmail)
		r.Get("/{uid}", h.GetUser)
		r.Put("/{uid}", h.UpdateUser)
		r.Put("/{uid}/balance", h.AdjustBalance)
		r.Get("/{uid}/withdrawals", h.ListUserWithdrawals)
	})

	router.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.CreateTransaction)
		r.Get("/{userID}", h.ListUserTransactions)
	})

	router.Post("/withdrawals", h.CreateWithdrawal)
}

// CreateUser registers a new account.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, err := h.userService.Create(ctx, &req)
	if err != nil {
		handleServiceError(w, err, "Failed to create user")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(user, "User created successfully"))
	h.logger.Info("User created via HTTP",
		util.String("uid", user.UID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "CreateUser"),
	)
}

// GetUser returns an account by uid.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByUID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		handleServiceError(w, err, "Failed to get user")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "User retrieved"))
}

// GetUserByEmail returns an account by email.
func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, err, "Failed to get user")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "User retrieved"))
}

// UpdateUser applies profile changes to an account.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	var updates map[string]interface{}
	if err := decodeBody(r, &updates); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, err := h.userService.Update(ctx, uid, updates)
	if err != nil {
		handleServiceError(w, err, "Failed to update user")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "User updated successfully"))
}

// AdjustBalance applies a signed balance delta.
func (h *UserHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")

	var req struct {
		Currency string  `json:"currency"`
		Amount   float64 `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	user, err := h.userService.AdjustBalance(ctx, uid, req.Currency, req.Amount)
	if err != nil {
		handleServiceError(w, err, "Failed to adjust balance")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "Balance updated successfully"))
}

// CreateTransaction records a ledger entry.
func (h *UserHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	tx, err := h.userService.CreateTransaction(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, "Failed to create transaction")
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(tx, "Transaction recorded"))
}

// ListUserTransactions returns a user's ledger entries.
func (h *UserHandler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	txType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 50)

	transactions, err := h.userService.ListTransactions(r.Context(), userID, txType, limit)
	if err != nil {
		handleServiceError(w, err, "Failed to list transactions")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	}, "Transactions retrieved"))
}

// CreateWithdrawal submits a new withdrawal request for admin review.
func (h *UserHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.CreateWithdrawalRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	id, withdrawal, err := h.withdrawalService.Create(ctx, &req)
	if err != nil {
		handleServiceError(w, err, "Failed to create withdrawal request")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"withdrawalId": id,
		"withdrawal":   withdrawal,
	})
	h.logger.Info("Withdrawal request created via HTTP",
		util.String("user_id", req.UserID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "CreateWithdrawal"),
	)
}

// ListUserWithdrawals returns a user's own withdrawal requests.
func (h *UserHandler) ListUserWithdrawals(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	status := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", 50)

	withdrawals, err := h.withdrawalService.ListForUser(r.Context(), uid, status, limit)
	if err != nil {
		handleServiceError(w, err, "Failed to list withdrawals")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"withdrawals": withdrawals,
		"count":       len(withdrawals),
	}, "Withdrawals retrieved"))
}
