package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/client"
	"cryptopay-server/internal/config"
	"cryptopay-server/internal/util"
)

// Sandbox defaults applied when the caller omits customer details.
const (
	defaultOrderAmount   = 100
	defaultCustomerEmail = "test@cashfree.com"
	defaultCustomerPhone = "9999999999"
)

// PaymentService creates and tracks payment-gateway orders.
type PaymentService struct {
	gateway *client.CashfreeClient
	config  config.CashfreeConfig
	logger  *zap.Logger
}

// CreateOrderRequest starts a payment order. All fields are optional; sandbox
// defaults fill the gaps.
type CreateOrderRequest struct {
	Amount        float64 `json:"amount"`
	CustomerID    string  `json:"customerId"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone"`
}

// NewPaymentService creates the payment service.
func NewPaymentService(gateway *client.CashfreeClient, cfg config.CashfreeConfig, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		config:  cfg,
		logger:  logger,
	}
}

// CreateOrder registers a new order with the gateway and returns the gateway
// response with the generated order id attached.
func (s *PaymentService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (map[string]interface{}, error) {
	orderID := fmt.Sprintf("order_%d", time.Now().UnixMilli())

	amount := req.Amount
	if amount <= 0 {
		amount = defaultOrderAmount
	}
	customerID := req.CustomerID
	if customerID == "" {
		customerID = fmt.Sprintf("cust_%d", time.Now().UnixMilli())
	}
	email := req.CustomerEmail
	if email == "" {
		email = defaultCustomerEmail
	}
	phone := req.CustomerPhone
	if phone == "" {
		phone = defaultCustomerPhone
	}

	order := &client.CashfreeOrderRequest{
		OrderID:       orderID,
		OrderAmount:   amount,
		OrderCurrency: "INR",
		CustomerDetails: client.CashfreeCustomer{
			CustomerID:    customerID,
			CustomerEmail: email,
			CustomerPhone: phone,
		},
		OrderMeta: client.CashfreeOrderMeta{
			ReturnURL: s.config.ClientOrigin + "/return?order_id={order_id}",
		},
	}

	result, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	result["order_id"] = orderID

	s.logger.Info("Payment order created",
		util.String("order_id", orderID),
		util.String("customer_id", customerID),
	)
	return result, nil
}

// OrderStatus fetches the current gateway state of an order.
func (s *PaymentService) OrderStatus(ctx context.Context, orderID string) (map[string]interface{}, error) {
	if orderID == "" {
		return nil, apperrors.NewValidationError("orderId")
	}
	return s.gateway.OrderStatus(ctx, orderID)
}
