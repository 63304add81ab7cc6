package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBridgeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write bridge file: %v", err)
	}
	return path
}

func TestLoadBridgeConfig_Valid(t *testing.T) {
	path := writeBridgeFile(t, `
networks:
  - name: solana-mainnet
    type: solana
    rpc_url: https://api.mainnet-beta.solana.com
    escrow_address: 7fUAJdStEuGbc3sM84cKRL6yYaaSstyLSU4ve5oovLS7
    escrow_private_key_env: SOLANA_ESCROW_KEY
    tokens:
      - symbol: SOL
        decimals: 9
  - name: radix-mainnet
    type: radix
    rpc_url: https://mainnet.radixdlt.com
    gateway_network: mainnet
    token_rri: xrd_rr1qy5wfsfh
    tokens:
      - symbol: XRD
        decimals: 18
pairs:
  - from_network: solana-mainnet
    from_token: SOL
    to_network: radix-mainnet
    to_token: XRD
    source_url: https://rates.example.com/sol-xrd
`)

	cfg, err := LoadBridgeConfig(path)
	if err != nil {
		t.Fatalf("LoadBridgeConfig failed: %v", err)
	}
	if len(cfg.Networks) != 2 {
		t.Fatalf("Expected 2 networks, got %d", len(cfg.Networks))
	}
	if cfg.Networks[0].Tokens[0].Decimals != 9 {
		t.Errorf("Expected 9 decimals, got %d", cfg.Networks[0].Tokens[0].Decimals)
	}
	if len(cfg.Pairs) != 1 || cfg.Pairs[0].SourceUrl == "" {
		t.Errorf("Expected one fully populated pair")
	}
}

func TestLoadBridgeConfig_MissingNetworkType(t *testing.T) {
	path := writeBridgeFile(t, `
networks:
  - name: solana-mainnet
`)
	if _, err := LoadBridgeConfig(path); err == nil {
		t.Errorf("Expected a validation error for missing type")
	}
}

func TestLoadBridgeConfig_IncompletePair(t *testing.T) {
	path := writeBridgeFile(t, `
networks:
  - name: solana-mainnet
    type: solana
pairs:
  - from_network: solana-mainnet
    from_token: SOL
`)
	if _, err := LoadBridgeConfig(path); err == nil {
		t.Errorf("Expected a validation error for an incomplete pair")
	}
}

func TestEscrowPrivateKey_ResolvesFromEnv(t *testing.T) {
	t.Setenv("TEST_ESCROW_KEY", "super-secret")

	network := NetworkConfig{EscrowPrivateKeyEnv: "TEST_ESCROW_KEY"}
	if key := network.EscrowPrivateKey(); key != "super-secret" {
		t.Errorf("Expected key from environment, got %q", key)
	}

	empty := NetworkConfig{}
	if key := empty.EscrowPrivateKey(); key != "" {
		t.Errorf("Expected empty key when no env var is declared, got %q", key)
	}
}
