package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/config"
)

// CashfreeClient talks to the Cashfree payment-gateway API. Every call is
// bounded by the configured timeout and classified into a typed upstream
// error on failure; raw gateway response bodies are logged here and never
// propagated to callers.
type CashfreeClient struct {
	httpClient *http.Client
	config     config.CashfreeConfig
	logger     *zap.Logger
}

// CashfreeCustomer identifies the paying customer on an order.
type CashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// CashfreeOrderMeta carries the post-payment redirect target.
type CashfreeOrderMeta struct {
	ReturnURL string `json:"return_url"`
}

// CashfreeOrderRequest is the order-creation payload.
type CashfreeOrderRequest struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     float64           `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails CashfreeCustomer  `json:"customer_details"`
	OrderMeta       CashfreeOrderMeta `json:"order_meta"`
}

// NewCashfreeClient builds a gateway client from config.
func NewCashfreeClient(cfg *config.Config, logger *zap.Logger) *CashfreeClient {
	return &CashfreeClient{
		httpClient: &http.Client{Timeout: cfg.Cashfree.Timeout},
		config:     cfg.Cashfree,
		logger:     logger,
	}
}

// CreateOrder posts a new payment order and returns the gateway response
// document.
func (c *CashfreeClient) CreateOrder(ctx context.Context, order *CashfreeOrderRequest) (map[string]interface{}, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "create order")
}

// OrderStatus fetches the current state of an order.
func (c *CashfreeClient) OrderStatus(ctx context.Context, orderID string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order status request: %w", err)
	}
	c.setAuthHeaders(req)

	return c.do(req, "order status")
}

func (c *CashfreeClient) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-client-id", c.config.AppID)
	req.Header.Set("x-client-secret", c.config.SecretKey)
	req.Header.Set("x-api-version", c.config.APIVersion)
}

func (c *CashfreeClient) do(req *http.Request, operation string) (map[string]interface{}, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(operation, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.classify(operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The raw body stays in the logs; callers get a sanitized error.
		c.logger.Warn("Cashfree API returned non-2xx response",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return nil, &apperrors.UpstreamError{
			Service: "cashfree",
			Kind:    apperrors.UpstreamStatus,
			Status:  resp.StatusCode,
		}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(payload, &result); err != nil {
		c.logger.Warn("Cashfree API returned unparseable body",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, &apperrors.UpstreamError{Service: "cashfree", Kind: apperrors.UpstreamNetwork}
	}
	return result, nil
}

func (c *CashfreeClient) classify(operation string, err error) error {
	c.logger.Warn("Cashfree API call failed",
		zap.String("operation", operation),
		zap.Error(err),
	)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &apperrors.UpstreamError{Service: "cashfree", Kind: apperrors.UpstreamTimeout}
	}
	return &apperrors.UpstreamError{Service: "cashfree", Kind: apperrors.UpstreamNetwork}
}
