package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"token-bridge-go/internal/bridge"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// rpcHandler routes fake JSON-RPC responses by method name.
func rpcHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode rpc request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		result, ok := responses[req.Method]
		if !ok {
			t.Errorf("Unexpected rpc method %q", req.Method)
			http.Error(w, "unknown method", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}
}

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	escrow, err := deriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("Failed to derive escrow account: %v", err)
	}
	adapter, err := NewAdapter(Config{
		RpcURL:           server.URL,
		EscrowAddress:    escrow.Address,
		EscrowPrivateKey: escrow.PrivateKey,
		Timeout:          5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	return adapter
}

func TestRestoreAccount_Deterministic(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
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

	if first.Address != second.Address || first.PrivateKey != second.PrivateKey {
		t.Errorf("Expected identical keypair for the same seed phrase")
	}

	raw, err := base58.Decode(first.Address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		t.Errorf("Expected a 32-byte base58 address, got %q", first.Address)
	}
}

func TestRestoreAccount_InvalidMnemonic(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	_, err := adapter.RestoreAccount("definitely not a mnemonic")
	if !errors.Is(err, bridge.ErrKeyDerivation) {
		t.Errorf("Expected ErrKeyDerivation, got %v", err)
	}
}

func TestCreateAccount_RoundTripsThroughRestore(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	created, err := adapter.CreateAccount()
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	restored, err := adapter.RestoreAccount(created.SeedPhrase)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}
	if restored.Address != created.Address {
		t.Errorf("Restored address %s differs from created %s", restored.Address, created.Address)
	}
}

func TestGetAccountBalance_ConvertsLamports(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":2500000000}`,
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, _ := adapter.RestoreAccount(testMnemonic)
	balance, err := adapter.GetAccountBalance(context.Background(), account.Address)
	if err != nil {
		t.Fatalf("GetAccountBalance failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5 SOL, got %s", balance.String())
	}
}

func TestGetAccountBalance_InvalidAddress(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	_, err := adapter.GetAccountBalance(context.Background(), "not-base58-!!!")
	if !errors.Is(err, bridge.ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
}

func TestGetAccountBalance_ServerErrorIsNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, _ := adapter.RestoreAccount(testMnemonic)
	_, err := adapter.GetAccountBalance(context.Background(), account.Address)
	if !errors.Is(err, bridge.ErrNetworkUnavailable) {
		t.Errorf("Expected ErrNetworkUnavailable, got %v", err)
	}
}

func TestWithdraw_SubmitsSignedTransaction(t *testing.T) {
	blockhash := base58.Encode(make([]byte, 32))
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash": fmt.Sprintf(`{"context":{"slot":1},"value":{"blockhash":"%s"}}`, blockhash),
		"sendTransaction":    `"sig-abc123"`,
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, _ := adapter.RestoreAccount(testMnemonic)
	result, err := adapter.Withdraw(context.Background(), decimal.RequireFromString("0.25"), adapter.EscrowAddress(), account.PrivateKey)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if result.TransactionId != "sig-abc123" {
		t.Errorf("Expected signature sig-abc123, got %s", result.TransactionId)
	}
}

func TestWithdraw_AmountBelowOneLamport(t *testing.T) {
	blockhash := base58.Encode(make([]byte, 32))
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash": fmt.Sprintf(`{"context":{"slot":1},"value":{"blockhash":"%s"}}`, blockhash),
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, _ := adapter.RestoreAccount(testMnemonic)
	result, err := adapter.Withdraw(context.Background(), decimal.RequireFromString("0.0000000001"), adapter.EscrowAddress(), account.PrivateKey)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if result.Success {
		t.Errorf("Expected a rejected sub-lamport transfer")
	}
}

func TestGetTransactionStatus_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		result   string
		expected bridge.TransactionStatus
	}{
		{"unknown hash", `{"value":[null]}`, bridge.StatusNotFound},
		{"finalized", `{"value":[{"confirmationStatus":"finalized","err":null}]}`, bridge.StatusSucceed},
		{"confirmed but not finalized", `{"value":[{"confirmationStatus":"confirmed","err":null}]}`, bridge.StatusInProgress},
		{"on-chain error", `{"value":[{"confirmationStatus":"finalized","err":{"InstructionError":[0,"Custom"]}}]}`, bridge.StatusFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(rpcHandler(t, map[string]string{
				"getSignatureStatuses": tc.result,
			}))
			defer server.Close()
			adapter := newTestAdapter(t, server)

			status, err := adapter.GetTransactionStatus(context.Background(), "some-signature")
			if err != nil {
				t.Fatalf("GetTransactionStatus failed: %v", err)
			}
			if status != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, status)
			}
		})
	}
}

func TestGetTransactionStatus_RpcTimeoutMapsToInProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
	}))
	defer server.Close()

	escrow, err := deriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("Failed to derive escrow account: %v", err)
	}
	adapter, err := NewAdapter(Config{
		RpcURL:           server.URL,
		EscrowAddress:    escrow.Address,
		EscrowPrivateKey: escrow.PrivateKey,
		Timeout:          50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	status, err := adapter.GetTransactionStatus(context.Background(), "some-signature")
	if err != nil {
		t.Fatalf("Expected a slow node to map to IN_PROGRESS, got %v", err)
	}
	if status != bridge.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", status)
	}
}
