package radix

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/models"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"
)

// XRD subunits (attos) per token.
const xrdDecimals = 18

const addressPrefix = "rdx1"

// Compile-time check: *Adapter must satisfy bridge.Adapter.
var _ bridge.Adapter = (*Adapter)(nil)

// Config carries the per-network settings for the Radix adapter.
type Config struct {
	GatewayURL       string
	Network          string // e.g. "mainnet" or "stokenet"
	TokenRri         string
	EscrowAddress    string
	EscrowPrivateKey string
	Timeout          time.Duration
}

type Adapter struct {
	client        *gatewayClient
	tokenRri      string
	escrowAddress string
	escrowKey     string
}

func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client, err := newGatewayClient(cfg.GatewayURL, cfg.Network, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client:        client,
		tokenRri:      cfg.TokenRri,
		escrowAddress: cfg.EscrowAddress,
		escrowKey:     cfg.EscrowPrivateKey,
	}, nil
}

func (a *Adapter) NetworkType() models.NetworkType {
	return models.NetworkTypeRadix
}

func (a *Adapter) EscrowAddress() string {
	return a.escrowAddress
}

func (a *Adapter) CreateAccount() (*bridge.Account, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bridge.ErrKeyDerivation, err.Error())
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bridge.ErrKeyDerivation, err.Error())
	}
	return a.RestoreAccount(mnemonic)
}

func (a *Adapter) RestoreAccount(seedPhrase string) (*bridge.Account, error) {
	if !bip39.IsMnemonicValid(seedPhrase) {
		return nil, fmt.Errorf("%w: invalid mnemonic", bridge.ErrKeyDerivation)
	}

	seed := bip39.NewSeed(seedPhrase, "")
	curveSeed := sha256.Sum256(seed)
	privateKey := ed25519.NewKeyFromSeed(curveSeed[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	return &bridge.Account{
		PublicKey:  hex.EncodeToString(publicKey),
		PrivateKey: hex.EncodeToString(privateKey),
		Address:    addressPrefix + base58.Encode(publicKey),
		SeedPhrase: seedPhrase,
	}, nil
}

func validateAddress(address string) error {
	if !strings.HasPrefix(address, addressPrefix) {
		return fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, address)
	}
	raw, err := base58.Decode(strings.TrimPrefix(address, addressPrefix))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, address)
	}
	return nil
}

func (a *Adapter) GetAccountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := validateAddress(address); err != nil {
		return decimal.Zero, err
	}

	reqBody := map[string]interface{}{
		"network_identifier": map[string]string{"network": a.client.network},
		"account_identifier": map[string]string{"address": address},
	}

	var balanceResp struct {
		AccountBalances struct {
			LiquidBalances []struct {
				Value           string `json:"value"`
				TokenIdentifier struct {
					Rri string `json:"rri"`
				} `json:"token_identifier"`
			} `json:"liquid_balances"`
		} `json:"account_balances"`
	}

	err := a.client.post(ctx, "/account/balances", reqBody, &balanceResp)
	if errors.Is(err, notFoundErr) {
		// Unused accounts have no entity on ledger yet.
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	for _, b := range balanceResp.AccountBalances.LiquidBalances {
		if b.TokenIdentifier.Rri == a.tokenRri {
			subunits, err := decimal.NewFromString(b.Value)
			if err != nil {
				return decimal.Zero, fmt.Errorf("unable to parse balance '%s': %w", b.Value, err)
			}
			return subunits.Shift(-xrdDecimals), nil
		}
	}
	return decimal.Zero, nil
}

func (a *Adapter) Withdraw(ctx context.Context, amount decimal.Decimal, destinationAddress, signerPrivateKey string) (*bridge.TransferResult, error) {
	raw, err := hex.DecodeString(signerPrivateKey)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: malformed signer key", bridge.ErrKeyDerivation)
	}
	return a.submitTransfer(ctx, amount, destinationAddress, ed25519.PrivateKey(raw))
}

func (a *Adapter) Deposit(ctx context.Context, amount decimal.Decimal, accountAddress string) (*bridge.TransferResult, error) {
	raw, err := hex.DecodeString(a.escrowKey)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: malformed escrow key", bridge.ErrKeyDerivation)
	}
	return a.submitTransfer(ctx, amount, accountAddress, ed25519.PrivateKey(raw))
}

// submitTransfer runs the gateway's build/finalize/submit sequence. The
// build request carries a random 32-bit nonce for replay protection. One
// submission attempt only; the caller verifies state before any retry.
func (a *Adapter) submitTransfer(ctx context.Context, amount decimal.Decimal, destination string, signer ed25519.PrivateKey) (*bridge.TransferResult, error) {
	if err := validateAddress(destination); err != nil {
		return nil, err
	}

	publicKey := signer.Public().(ed25519.PublicKey)
	fromAddress := addressPrefix + base58.Encode(publicKey)
	subunits := amount.Shift(xrdDecimals)

	buildBody := map[string]interface{}{
		"network_identifier": map[string]string{"network": a.client.network},
		"nonce":              rand.Uint32(),
		"fee_payer":          map[string]string{"address": fromAddress},
		"actions": []map[string]interface{}{{
			"type":         "TransferTokens",
			"from_account": map[string]string{"address": fromAddress},
			"to_account":   map[string]string{"address": destination},
			"amount": map[string]interface{}{
				"value":            subunits.String(),
				"token_identifier": map[string]string{"rri": a.tokenRri},
			},
		}},
	}

	var buildResp struct {
		TransactionBuild struct {
			UnsignedTransaction string `json:"unsigned_transaction"`
			PayloadToSign       string `json:"payload_to_sign"`
		} `json:"transaction_build"`
	}
	if err := a.client.post(ctx, "/transaction/build", buildBody, &buildResp); err != nil {
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	payload, err := hex.DecodeString(buildResp.TransactionBuild.PayloadToSign)
	if err != nil {
		return nil, fmt.Errorf("malformed payload to sign: %w", err)
	}
	signature := ed25519.Sign(signer, payload)

	finalizeBody := map[string]interface{}{
		"network_identifier":   map[string]string{"network": a.client.network},
		"unsigned_transaction": buildResp.TransactionBuild.UnsignedTransaction,
		"signature": map[string]string{
			"public_key": hex.EncodeToString(publicKey),
			"bytes":      hex.EncodeToString(signature),
		},
	}

	var finalizeResp struct {
		SignedTransaction string `json:"signed_transaction"`
	}
	if err := a.client.post(ctx, "/transaction/finalize", finalizeBody, &finalizeResp); err != nil {
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	submitBody := map[string]interface{}{
		"network_identifier": map[string]string{"network": a.client.network},
		"signed_transaction": finalizeResp.SignedTransaction,
	}

	var submitResp struct {
		TransactionIdentifier struct {
			Hash string `json:"hash"`
		} `json:"transaction_identifier"`
	}
	if err := a.client.post(ctx, "/transaction/submit", submitBody, &submitResp); err != nil {
		// The submission may have landed despite the error; callers
		// must check GetTransactionStatus before retrying.
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	zap.L().Info("Radix transfer submitted",
		zap.String("destination", destination),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", submitResp.TransactionIdentifier.Hash))

	return &bridge.TransferResult{
		TransactionId: submitResp.TransactionIdentifier.Hash,
		Success:       true,
		Data:          map[string]string{"from": fromAddress},
	}, nil
}

func (a *Adapter) GetTransactionStatus(ctx context.Context, txHash string) (bridge.TransactionStatus, error) {
	reqBody := map[string]interface{}{
		"network_identifier":     map[string]string{"network": a.client.network},
		"transaction_identifier": map[string]string{"hash": txHash},
	}

	var statusResp struct {
		Transaction struct {
			TransactionStatus struct {
				Status string `json:"status"`
			} `json:"transaction_status"`
		} `json:"transaction"`
	}

	err := a.client.post(ctx, "/transaction/status", reqBody, &statusResp)
	if errors.Is(err, notFoundErr) {
		return bridge.StatusNotFound, nil
	}
	if err != nil {
		if isTimeout(err) {
			return bridge.StatusInProgress, nil
		}
		return "", err
	}

	switch statusResp.Transaction.TransactionStatus.Status {
	case "CONFIRMED":
		return bridge.StatusSucceed, nil
	case "FAILED", "REJECTED":
		return bridge.StatusFailed, nil
	case "PENDING":
		return bridge.StatusInProgress, nil
	default:
		return bridge.StatusNotFound, nil
	}
}
