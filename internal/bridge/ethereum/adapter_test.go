package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"token-bridge-go/internal/bridge"

	"github.com/shopspring/decimal"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// rpcHandler answers JSON-RPC calls by method, echoing the request id so
// the client can correlate responses.
func rpcHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Id     json.RawMessage `json:"id"`
			Method string          `json:"method"`
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
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.Id, result)
	}
}

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(Config{
		RpcURL:  server.URL,
		ChainId: 11155111,
		Timeout: 5 * time.Second,
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
	if !strings.HasPrefix(first.Address, "0x") || len(first.Address) != 42 {
		t.Errorf("Expected a checksummed 20-byte address, got %q", first.Address)
	}
}

func TestRestoreAccount_InvalidMnemonic(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	_, err := adapter.RestoreAccount("twelve words that are not a mnemonic at all no sir nope")
	if !errors.Is(err, bridge.ErrKeyDerivation) {
		t.Errorf("Expected ErrKeyDerivation, got %v", err)
	}
}

func TestGetAccountBalance_ConvertsWei(t *testing.T) {
	wei, _ := new(big.Int).SetString("2500000000000000000", 10)
	server := httptest.NewServer(rpcHandler(t, map[string]string{
		"eth_getBalance": fmt.Sprintf(`"0x%x"`, wei),
	}))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	account, err := adapter.RestoreAccount(testMnemonic)
	if err != nil {
		t.Fatalf("RestoreAccount failed: %v", err)
	}

	balance, err := adapter.GetAccountBalance(context.Background(), account.Address)
	if err != nil {
		t.Fatalf("GetAccountBalance failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5 ETH, got %s", balance.String())
	}
}

func TestGetAccountBalance_InvalidAddress(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, nil))
	defer server.Close()
	adapter := newTestAdapter(t, server)

	_, err := adapter.GetAccountBalance(context.Background(), "not-an-address")
	if !errors.Is(err, bridge.ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
}
