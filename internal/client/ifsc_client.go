package client

import (
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

// IFSCClient resolves IFSC codes to bank/branch details through the Razorpay
// IFSC API. Lookups are bounded by the configured timeout (10s by default)
// and fail closed.
type IFSCClient struct {
	httpClient *http.Client
	config     config.BankConfig
	logger     *zap.Logger
}

// BankBranch is the subset of the lookup response the platform uses.
type BankBranch struct {
	Bank     string `json:"BANK"`
	Branch   string `json:"BRANCH"`
	IFSC     string `json:"IFSC"`
	City     string `json:"CITY"`
	District string `json:"DISTRICT"`
	State    string `json:"STATE"`
}

// NewIFSCClient builds a lookup client from config.
func NewIFSCClient(cfg *config.Config, logger *zap.Logger) *IFSCClient {
	return &IFSCClient{
		httpClient: &http.Client{Timeout: cfg.Bank.Timeout},
		config:     cfg.Bank,
		logger:     logger,
	}
}

// Lookup fetches bank details for an already-validated IFSC code.
func (c *IFSCClient) Lookup(ctx context.Context, ifsc string) (*BankBranch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.IFSCBaseURL+"/"+ifsc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build IFSC lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("IFSC lookup failed", zap.String("ifsc", ifsc), zap.Error(err))

		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, &apperrors.UpstreamError{Service: "ifsc", Kind: apperrors.UpstreamTimeout}
		}
		return nil, &apperrors.UpstreamError{Service: "ifsc", Kind: apperrors.UpstreamNetwork}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &apperrors.UpstreamError{Service: "ifsc", Kind: apperrors.UpstreamNetwork}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("IFSC lookup returned non-200 response",
			zap.String("ifsc", ifsc),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &apperrors.UpstreamError{
			Service: "ifsc",
			Kind:    apperrors.UpstreamStatus,
			Status:  resp.StatusCode,
		}
	}

	var branch BankBranch
	if err := json.Unmarshal(payload, &branch); err != nil {
		c.logger.Warn("IFSC lookup returned unparseable body", zap.String("ifsc", ifsc), zap.Error(err))
		return nil, &apperrors.UpstreamError{Service: "ifsc", Kind: apperrors.UpstreamNetwork}
	}
	return &branch, nil
}
