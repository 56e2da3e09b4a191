package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"cryptopay-server/internal/apperrors"
	"cryptopay-server/internal/client"
	"cryptopay-server/internal/config"
)

func newBankService(t *testing.T, handler http.HandlerFunc) (*BankService, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Bank: config.BankConfig{
			IFSCBaseURL: server.URL,
			Timeout:     2 * time.Second,
		},
	}
	ifsc := client.NewIFSCClient(cfg, zap.NewNop())
	return NewBankService(ifsc, zap.NewNop()), &calls
}

func TestVerifyBank(t *testing.T) {
	svc, _ := newBankService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/HDFC0001234" {
			t.Errorf("unexpected lookup path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"BANK":"HDFC Bank","BRANCH":"Koramangala","IFSC":"HDFC0001234","CITY":"Bangalore","STATE":"Karnataka"}`))
	})

	result, err := svc.Verify(context.Background(), "1234567890", "hdfc0001234")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.BankName != "HDFC Bank" || result.BranchName != "Koramangala" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.IFSC != "HDFC0001234" {
		t.Errorf("IFSC should be uppercased, got %s", result.IFSC)
	}
}

func TestVerifyBankMalformedIFSCSkipsNetwork(t *testing.T) {
	svc, calls := newBankService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	cases := []string{"HDFC123", "HDFC1001234", "hdfc-001234", "HDFC00012345678"}
	for _, code := range cases {
		_, err := svc.Verify(context.Background(), "1234567890", code)
		if !errors.Is(err, ErrInvalidIFSC) {
			t.Errorf("code %q: expected ErrInvalidIFSC, got %v", code, err)
		}
	}
	if got := atomic.LoadInt32(calls); got != 0 {
		t.Errorf("malformed codes must not hit the directory, saw %d calls", got)
	}
}

func TestVerifyBankMissingFields(t *testing.T) {
	svc, calls := newBankService(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Verify(context.Background(), "", "")
	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Fields) != 2 {
		t.Errorf("expected both fields reported, got %v", validationErr.Fields)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Error("validation failures must not hit the directory")
	}
}

func TestVerifyBankUnknownCode(t *testing.T) {
	svc, _ := newBankService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	_, err := svc.Verify(context.Background(), "1234567890", "HDFC0009999")
	if !errors.Is(err, ErrBankNotFound) {
		t.Errorf("expected ErrBankNotFound for 404, got %v", err)
	}
}

func TestVerifyBankIncompleteDirectoryRecord(t *testing.T) {
	svc, _ := newBankService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IFSC":"HDFC0001234","CITY":"Bangalore"}`))
	})

	_, err := svc.Verify(context.Background(), "1234567890", "HDFC0001234")
	if !errors.Is(err, ErrBankNotFound) {
		t.Errorf("expected ErrBankNotFound for record without BANK/BRANCH, got %v", err)
	}
}

func TestVerifyBankDirectoryOutage(t *testing.T) {
	svc, _ := newBankService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := svc.Verify(context.Background(), "1234567890", "HDFC0001234")
	var upstreamErr *apperrors.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError for 5xx, got %v", err)
	}
	if upstreamErr.Kind != apperrors.UpstreamStatus || upstreamErr.Status != http.StatusBadGateway {
		t.Errorf("unexpected upstream error %+v", upstreamErr)
	}
}
