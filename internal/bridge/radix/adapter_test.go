package radix

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"token-bridge-go/internal/bridge"

	"github.com/shopspring/decimal"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

const testRri = "xrd_rr1qy5wfsfh"

// gatewayHandler routes fake gateway responses by endpoint path.
func gatewayHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			t.Errorf("Unexpected gateway path %q", r.URL.Path)
			http.Error(w, "unknown path", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(Config{
		GatewayURL: server.URL,
		Network:    "stokenet",
		TokenRri:   testRri,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	escrow, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("Failed to derive escrow account: %v", err)
	}
	adapter.escrowAddress = escrow.Address
	adapter.escrowKey = escrow.PrivateKey
	return adapter
}

func TestRestoreAccount_DeterministicWithPrefix(t *testing.T) {
	server := httptest.NewServer(gatewayHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	first, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}
	second, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}

	if first.Address != second.Address {
		t.Errorf("Expected identical address for the same seed phrase")
	}
	if !strings.HasPrefix(first.Address, "rdx1") {
		t.Errorf("Expected rdx1 address prefix, got %q", first.Address)
	}
	if err := validateAddress(first.Address); err != nil {
		t.Errorf("Derived address failed validation: %v", err)
	}
}

func TestGetAccountBalance_FiltersByRri(t *testing.T) {
	server := httptest.NewServer(gatewayHandler(t, map[string]string{
		"/account/balances": fmt.Sprintf(`{
			"account_balances": {
				"liquid_balances": [
					{"value": "5000000000000000000", "token_identifier": {"rri": "other_rr1xyz"}},
					{"value": "1500000000000000000", "token_identifier": {"rri": "%s"}}
				]
			}
		}`, testRri),
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	balance, err := adapter.GetAccountBalance(context.Background(), adapter.EscrowAddress())
	if err != nil {
		t.Fatalf("GetAccountBalance failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Expected 1.5 XRD, got %s", balance.String())
	}
}

func TestGetAccountBalance_UnknownAccountIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	balance, err := adapter.GetAccountBalance(context.Background(), adapter.EscrowAddress())
	if err != nil {
		t.Fatalf("GetAccountBalance failed: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("Expected zero balance for unused account, got %s", balance.String())
	}
}

func TestGetAccountBalance_InvalidAddress(t *testing.T) {
	server := httptest.NewServer(gatewayHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	_, err := adapter.GetAccountBalance(context.Background(), "sol-style-address")
	if !errors.Is(err, bridge.ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
}

func TestWithdraw_BuildFinalizeSubmit(t *testing.T) {
	payload := hex.EncodeToString([]byte("payload-to-sign"))
	server := httptest.NewServer(gatewayHandler(t, map[string]string{
		"/transaction/build": fmt.Sprintf(`{
			"transaction_build": {
				"unsigned_transaction": "deadbeef",
				"payload_to_sign": "%s"
			}
		}`, payload),
		"/transaction/finalize": `{"signed_transaction": "deadbeefcafe"}`,
		"/transaction/submit":   `{"transaction_identifier": {"hash": "txhash-xyz"}}`,
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}

	result, err := adapter.Withdraw(context.Background(), decimal.RequireFromString("2"), adapter.EscrowAddress(), account.PrivateKey)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if result.TransactionId != "txhash-xyz" {
		t.Errorf("Expected txhash-xyz, got %s", result.TransactionId)
	}
}

func TestWithdraw_GatewayDownIsNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}

	result, err := adapter.Withdraw(context.Background(), decimal.RequireFromString("2"), adapter.EscrowAddress(), account.PrivateKey)
	if !errors.Is(err, bridge.ErrNetworkUnavailable) {
		t.Errorf("Expected ErrNetworkUnavailable, got %v", err)
	}
	if result == nil || result.Success {
		t.Errorf("Expected an unsuccessful transfer result")
	}
}

func TestGetTransactionStatus_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected bridge.TransactionStatus
	}{
		{"confirmed", "CONFIRMED", bridge.StatusSucceed},
		{"failed", "FAILED", bridge.StatusFailed},
		{"rejected", "REJECTED", bridge.StatusFailed},
		{"pending", "PENDING", bridge.StatusInProgress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(gatewayHandler(t, map[string]string{
				"/transaction/status": fmt.Sprintf(`{
					"transaction": {"transaction_status": {"status": "%s"}}
				}`, tc.status),
			}))
			defer server.Close()
			adapter := newTestAdapter(t, server)

			status, err := adapter.GetTransactionStatus(context.Background(), "txhash")
			if err != nil {
				t.Fatalf("GetTransactionStatus failed: %v", err)
			}
			if status != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, status)
			}
		})
	}
}

func TestGetTransactionStatus_UnknownHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	status, err := adapter.GetTransactionStatus(context.Background(), "unknown-hash")
	if err != nil {
		t.Fatalf("GetTransactionStatus failed: %v", err)
	}
	if status != bridge.StatusNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", status)
	}
}

func TestGetTransactionStatus_GatewayTimeoutMapsToInProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
	}))
	defer server.Close()

	adapter, err := NewAdapter(Config{
		GatewayURL: server.URL,
		Network:    "stokenet",
		TokenRri:   testRri,
		Timeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	status, err := adapter.GetTransactionStatus(context.Background(), "txhash")
	if err != nil {
		t.Fatalf("Expected a slow gateway to map to IN_PROGRESS, got %v", err)
	}
	if status != bridge.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", status)
	}
}
