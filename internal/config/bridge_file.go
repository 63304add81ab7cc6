package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// TokenConfig declares one tradeable token on a network.
type TokenConfig struct {
	Symbol      string `yaml:"symbol"`
	Description string `yaml:"description"`
	Decimals    int32  `yaml:"decimals"`
}

// NetworkConfig declares one supported network and its adapter settings.
// The escrow private key is referenced by environment variable name so
// that key material never lives in the file.
type NetworkConfig struct {
	Name                string        `yaml:"name"`
	Type                string        `yaml:"type"`
	Description         string        `yaml:"description"`
	RpcURL              string        `yaml:"rpc_url"`
	ChainId             int64         `yaml:"chain_id"`
	GatewayNetwork      string        `yaml:"gateway_network"`
	TokenRri            string        `yaml:"token_rri"`
	EscrowAddress       string        `yaml:"escrow_address"`
	EscrowPrivateKeyEnv string        `yaml:"escrow_private_key_env"`
	Tokens              []TokenConfig `yaml:"tokens"`
}

// PairConfig declares one exchange rate pair to keep refreshed.
type PairConfig struct {
	FromNetwork string `yaml:"from_network"`
	FromToken   string `yaml:"from_token"`
	ToNetwork   string `yaml:"to_network"`
	ToToken     string `yaml:"to_token"`
	SourceUrl   string `yaml:"source_url"`
}

// BridgeConfig is the parsed bridge.yaml.
type BridgeConfig struct {
	Networks []NetworkConfig `yaml:"networks"`
	Pairs    []PairConfig    `yaml:"pairs"`
}

func LoadBridgeConfig(bridgeFile string) (*BridgeConfig, error) {
	var bridgePath string
	if filepath.IsAbs(bridgeFile) {
		bridgePath = bridgeFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		bridgePath = filepath.Join(wd, bridgeFile)
	}

	data, err := os.ReadFile(bridgePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", bridgeFile, err)
	}

	var config BridgeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", bridgeFile, err)
	}

	for i, network := range config.Networks {
		if network.Name == "" {
			return nil, fmt.Errorf("network at index %d missing name", i)
		}
		if network.Type == "" {
			return nil, fmt.Errorf("network %q missing type", network.Name)
		}
		for j, token := range network.Tokens {
			if token.Symbol == "" {
				return nil, fmt.Errorf("token at index %d of network %q missing symbol", j, network.Name)
			}
		}
	}
	for i, pair := range config.Pairs {
		if pair.FromNetwork == "" || pair.FromToken == "" || pair.ToNetwork == "" || pair.ToToken == "" {
			return nil, fmt.Errorf("pair at index %d is incomplete", i)
		}
		if pair.SourceUrl == "" {
			return nil, fmt.Errorf("pair at index %d missing source_url", i)
		}
	}

	return &config, nil
}

// EscrowPrivateKey resolves the escrow signer key from the environment.
func (n NetworkConfig) EscrowPrivateKey() string {
	if n.EscrowPrivateKeyEnv == "" {
		return ""
	}
	return os.Getenv(n.EscrowPrivateKeyEnv)
}
