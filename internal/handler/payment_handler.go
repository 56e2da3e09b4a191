package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cryptopay-server/internal/service"
	"cryptopay-server/internal/util"
)

// PaymentHandler handles the payment-gateway and bank verification routes.
type PaymentHandler struct {
	paymentService *service.PaymentService
	bankService    *service.BankService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, bankService *service.BankService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		bankService:    bankService,
		logger:         logger,
	}
}

// RegisterRoutes registers the payment routes
func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Post("/create-order", h.CreateOrder)
	router.Get("/order-status/{orderID}", h.OrderStatus)
	router.Post("/webhook/cashfree", h.Webhook)
	router.Post("/verify-bank", h.VerifyBank)
}

// CreateOrder starts a payment order with the gateway.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	order, err := h.paymentService.CreateOrder(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err, "Failed to create payment order")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(order, "Order created"))
}

// OrderStatus returns the gateway state of an order.
func (h *PaymentHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.paymentService.OrderStatus(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		handleServiceError(w, err, "Failed to fetch order status")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(status, "Order status retrieved"))
}

// Webhook acknowledges gateway notifications. Payment state is pulled via
// OrderStatus rather than pushed, so the body is logged and accepted.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid webhook body")
		return
	}

	h.logger.Info("Payment webhook received",
		util.Int("body_size", len(body)),
		util.String("remote_addr", r.RemoteAddr),
	)
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Webhook received"))
}

// VerifyBank validates an IFSC code and resolves its bank and branch.
func (h *PaymentHandler) VerifyBank(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountNumber string `json:"accountNumber"`
		IFSCCode      string `json:"ifscCode"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	verification, err := h.bankService.Verify(r.Context(), req.AccountNumber, req.IFSCCode)
	if err != nil {
		handleServiceError(w, err, "Bank verification failed")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(verification, "Bank details verified"))
}
