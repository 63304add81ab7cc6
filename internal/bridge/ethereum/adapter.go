package ethereum

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/models"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"
)

// Wei per ether.
const ethDecimals = 18

// Gas limit for a plain value transfer.
const transferGasLimit = 21000

// Compile-time check: *Adapter must satisfy bridge.Adapter.
var _ bridge.Adapter = (*Adapter)(nil)

// Config carries the per-network settings for the Ethereum adapter.
type Config struct {
	RpcURL           string
	ChainId          int64
	EscrowAddress    string
	EscrowPrivateKey string
	Timeout          time.Duration
}

type Adapter struct {
	client        *ethclient.Client
	chainId       *big.Int
	escrowAddress string
	escrowKey     string
	timeout       time.Duration
}

func NewAdapter(cfg Config) (*Adapter, error) {
	client, err := ethclient.Dial(cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to ethereum rpc: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Adapter{
		client:        client,
		chainId:       big.NewInt(cfg.ChainId),
		escrowAddress: cfg.EscrowAddress,
		escrowKey:     cfg.EscrowPrivateKey,
		timeout:       cfg.Timeout,
	}, nil
}

func (a *Adapter) NetworkType() models.NetworkType {
	return models.NetworkTypeEthereum
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

// RestoreAccount hashes the BIP-39 seed to a secp256k1 private key, so the
// derivation is deterministic for a given phrase.
func (a *Adapter) RestoreAccount(seedPhrase string) (*bridge.Account, error) {
	if !bip39.IsMnemonicValid(seedPhrase) {
		return nil, fmt.Errorf("%w: invalid mnemonic", bridge.ErrKeyDerivation)
	}

	seed := bip39.NewSeed(seedPhrase, "")
	curveSeed := sha256.Sum256(seed)
	privateKey, err := crypto.ToECDSA(curveSeed[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bridge.ErrKeyDerivation, err.Error())
	}

	publicKey := privateKey.Public().(*ecdsa.PublicKey)
	address := crypto.PubkeyToAddress(*publicKey)

	return &bridge.Account{
		PublicKey:  hex.EncodeToString(crypto.FromECDSAPub(publicKey)),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(privateKey)),
		Address:    address.Hex(),
		SeedPhrase: seedPhrase,
	}, nil
}

func (a *Adapter) GetAccountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, address)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	wei, err := a.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", bridge.ErrNetworkUnavailable, err.Error())
	}
	return decimal.NewFromBigInt(wei, -ethDecimals), nil
}

func (a *Adapter) Withdraw(ctx context.Context, amount decimal.Decimal, destinationAddress, signerPrivateKey string) (*bridge.TransferResult, error) {
	signer, err := crypto.HexToECDSA(signerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signer key", bridge.ErrKeyDerivation)
	}
	return a.submitTransfer(ctx, amount, destinationAddress, signer)
}

func (a *Adapter) Deposit(ctx context.Context, amount decimal.Decimal, accountAddress string) (*bridge.TransferResult, error) {
	signer, err := crypto.HexToECDSA(a.escrowKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed escrow key", bridge.ErrKeyDerivation)
	}
	return a.submitTransfer(ctx, amount, accountAddress, signer)
}

// submitTransfer signs and broadcasts exactly one value transfer. No
// internal retry: the nonce makes a blind resubmission a double-spend risk.
func (a *Adapter) submitTransfer(ctx context.Context, amount decimal.Decimal, destination string, signer *ecdsa.PrivateKey) (*bridge.TransferResult, error) {
	if !common.IsHexAddress(destination) {
		return nil, fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, destination)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	fromAddress := crypto.PubkeyToAddress(signer.PublicKey)

	nonce, err := a.client.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()},
			fmt.Errorf("%w: %s", bridge.ErrNetworkUnavailable, err.Error())
	}

	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()},
			fmt.Errorf("%w: %s", bridge.ErrNetworkUnavailable, err.Error())
	}

	wei := amount.Shift(ethDecimals).BigInt()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &[]common.Address{common.HexToAddress(destination)}[0],
		Value:    wei,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(a.chainId), signer)
	if err != nil {
		return nil, fmt.Errorf("unable to sign transaction: %w", err)
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		// The broadcast may have reached the mempool anyway; callers
		// verify via GetTransactionStatus before retrying.
		return &bridge.TransferResult{Success: false, ErrorMessage: err.Error()}, err
	}

	txHash := signedTx.Hash().Hex()
	zap.L().Info("Ethereum transfer submitted",
		zap.String("destination", destination),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash))

	return &bridge.TransferResult{
		TransactionId: txHash,
		Success:       true,
		Data:          map[string]string{"nonce": fmt.Sprintf("%d", nonce)},
	}, nil
}

func (a *Adapter) GetTransactionStatus(ctx context.Context, txHash string) (bridge.TransactionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	receipt, err := a.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err == nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			return bridge.StatusSucceed, nil
		}
		return bridge.StatusFailed, nil
	}

	if errors.Is(err, goethereum.NotFound) {
		// No receipt yet; the transaction may still be in the mempool.
		_, pending, txErr := a.client.TransactionByHash(ctx, common.HexToHash(txHash))
		if txErr == nil && pending {
			return bridge.StatusInProgress, nil
		}
		if errors.Is(txErr, goethereum.NotFound) {
			return bridge.StatusNotFound, nil
		}
		if txErr == nil {
			return bridge.StatusInProgress, nil
		}
		return "", fmt.Errorf("%w: %s", bridge.ErrNetworkUnavailable, txErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return bridge.StatusInProgress, nil
	}
	return "", fmt.Errorf("%w: %s", bridge.ErrNetworkUnavailable, err.Error())
}
