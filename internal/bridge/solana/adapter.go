package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/models"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Lamports per SOL.
const solDecimals = 9

// Compile-time check: *Adapter must satisfy bridge.Adapter.
var _ bridge.Adapter = (*Adapter)(nil)

// Config carries the per-network settings for the Solana adapter. The
// escrow account receives withdrawals and signs deposits.
type Config struct {
	RpcURL           string
	EscrowAddress    string
	EscrowPrivateKey string
	Timeout          time.Duration
}

type Adapter struct {
	client        *rpcClient
	escrowAddress string
	escrowKey     string
}

func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client, err := newRpcClient(cfg.RpcURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client:        client,
		escrowAddress: cfg.EscrowAddress,
		escrowKey:     cfg.EscrowPrivateKey,
	}, nil
}

func (a *Adapter) NetworkType() models.NetworkType {
	return models.NetworkTypeSolana
}

func (a *Adapter) EscrowAddress() string {
	return a.escrowAddress
}

func (a *Adapter) CreateAccount() (*bridge.Account, error) {
	return newAccount()
}

func (a *Adapter) RestoreAccount(seedPhrase string) (*bridge.Account, error) {
	return deriveAccount(seedPhrase)
}

func (a *Adapter) GetAccountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if _, err := decodeAddress(address); err != nil {
		return decimal.Zero, err
	}

	result, err := a.client.call(ctx, "getBalance", []interface{}{address})
	if err != nil {
		return decimal.Zero, err
	}

	var balanceResp struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(result, &balanceResp); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode balance response: %w", err)
	}

	return decimal.New(int64(balanceResp.Value), -solDecimals), nil
}

// Withdraw submits exactly one signed transfer to the destination. No
// internal retry: a second submission could double-spend.
func (a *Adapter) Withdraw(ctx context.Context, amount decimal.Decimal, destinationAddress, signerPrivateKey string) (*bridge.TransferResult, error) {
	signer, err := decodePrivateKey(signerPrivateKey)
	if err != nil {
		return nil, err
	}
	return a.submitTransfer(ctx, amount, destinationAddress, signer)
}

// Deposit credits the destination from the bridge escrow account. On
// Solana this is the same system transfer, signed by the escrow key.
func (a *Adapter) Deposit(ctx context.Context, amount decimal.Decimal, accountAddress string) (*bridge.TransferResult, error) {
	signer, err := decodePrivateKey(a.escrowKey)
	if err != nil {
		return nil, err
	}
	return a.submitTransfer(ctx, amount, accountAddress, signer)
}

func (a *Adapter) submitTransfer(ctx context.Context, amount decimal.Decimal, destination string, signer ed25519.PrivateKey) (*bridge.TransferResult, error) {
	toKey, err := decodeAddress(destination)
	if err != nil {
		return nil, err
	}

	blockhash, err := a.latestBlockhash(ctx)
	if err != nil {
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	lamports := amount.Shift(solDecimals).IntPart()
	if lamports <= 0 {
		return &bridge.TransferResult{Success: false, ErrorMessage: "amount rounds to zero lamports"}, nil
	}

	fromKey := signer.Public().(ed25519.PublicKey)
	message := buildTransferMessage(fromKey, toKey, blockhash, uint64(lamports))
	wireTx := base64.StdEncoding.EncodeToString(signTransaction(message, signer))

	result, err := a.client.call(ctx, "sendTransaction",
		[]interface{}{wireTx, map[string]string{"encoding": "base64"}})
	if err != nil {
		// The broadcast may or may not have landed; the caller must
		// verify via GetTransactionStatus before any retry.
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return nil, fmt.Errorf("unable to decode transaction signature: %w", err)
	}

	zap.L().Info("Solana transfer submitted",
		zap.String("destination", destination),
		zap.String("amount", amount.String()),
		zap.String("signature", signature))

	return &bridge.TransferResult{
		TransactionId: signature,
		Success:       true,
		Data:          map[string]string{"blockhash": base58.Encode(blockhash)},
	}, nil
}

func (a *Adapter) latestBlockhash(ctx context.Context) ([]byte, error) {
	result, err := a.client.call(ctx, "getLatestBlockhash", []interface{}{
		map[string]string{"commitment": "finalized"},
	})
	if err != nil {
		return nil, err
	}

	var hashResp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &hashResp); err != nil {
		return nil, fmt.Errorf("unable to decode blockhash response: %w", err)
	}

	raw, err := base58.Decode(hashResp.Value.Blockhash)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("malformed blockhash %q", hashResp.Value.Blockhash)
	}
	return raw, nil
}

func (a *Adapter) GetTransactionStatus(ctx context.Context, txHash string) (bridge.TransactionStatus, error) {
	result, err := a.client.call(ctx, "getSignatureStatuses", []interface{}{
		[]string{txHash},
		map[string]bool{"searchTransactionHistory": true},
	})
	if err != nil {
		if isTimeout(err) {
			// A slow RPC node is not an on-chain failure.
			return bridge.StatusInProgress, nil
		}
		return "", err
	}

	var statusResp struct {
		Value []*struct {
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &statusResp); err != nil {
		return "", fmt.Errorf("unable to decode status response: %w", err)
	}

	if len(statusResp.Value) == 0 || statusResp.Value[0] == nil {
		return bridge.StatusNotFound, nil
	}

	entry := statusResp.Value[0]
	if len(entry.Err) > 0 && string(entry.Err) != "null" {
		return bridge.StatusFailed, nil
	}
	if entry.ConfirmationStatus == "finalized" {
		return bridge.StatusSucceed, nil
	}
	return bridge.StatusInProgress, nil
}
