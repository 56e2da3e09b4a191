package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/client"
	"cryptopay-server/internal/util"
)

// Bank verification failures the caller can act on.
var (
	ErrInvalidIFSC  = errors.New("invalid IFSC code format")
	ErrBankNotFound = errors.New("bank details not found for IFSC code")
)

// ifscPattern is the standard IFSC shape: four letters, a zero, six
// alphanumerics.
var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// BankService verifies bank account details through the IFSC directory.
type BankService struct {
	ifsc   *client.IFSCClient
	logger *zap.Logger
}

// BankVerification is a successful lookup result.
type BankVerification struct {
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifscCode"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
	City          string `json:"city,omitempty"`
	District      string `json:"district,omitempty"`
	State         string `json:"state,omitempty"`
}

// NewBankService creates the bank verification service.
func NewBankService(ifsc *client.IFSCClient, logger *zap.Logger) *BankService {
	return &BankService{ifsc: ifsc, logger: logger}
}

// Verify validates the IFSC format locally, then resolves the bank and branch
// through the directory. Malformed codes never reach the network.
func (s *BankService) Verify(ctx context.Context, accountNumber, ifscCode string) (*BankVerification, error) {
	var missing []string
	if accountNumber == "" {
		missing = append(missing, "accountNumber")
	}
	if ifscCode == "" {
		missing = append(missing, "ifscCode")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	code := strings.ToUpper(strings.TrimSpace(ifscCode))
	if !ifscPattern.MatchString(code) {
		return nil, ErrInvalidIFSC
	}

	branch, err := s.ifsc.Lookup(ctx, code)
	if err != nil {
		// A 4xx from the directory means the code does not exist; that is a
		// caller problem, not an upstream outage.
		var upstream *apperrors.UpstreamError
		if errors.As(err, &upstream) && upstream.Kind == apperrors.UpstreamStatus &&
			upstream.Status >= 400 && upstream.Status < 500 {
			return nil, ErrBankNotFound
		}
		return nil, err
	}

	if branch.Bank == "" || branch.Branch == "" {
		return nil, ErrBankNotFound
	}

	s.logger.Info("Bank details verified",
		util.String("ifsc", code),
		util.String("bank", branch.Bank),
	)

	return &BankVerification{
		AccountNumber: accountNumber,
		IFSC:          code,
		BankName:      branch.Bank,
		BranchName:    branch.Branch,
		City:          branch.City,
		District:      branch.District,
		State:         branch.State,
	}, nil
}
