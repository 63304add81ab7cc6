package bridge

import (
	"context"
	"errors"

	"token-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all adapter implementations.
var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrNetworkUnavailable = errors.New("network rpc unavailable")
	ErrKeyDerivation      = errors.New("key derivation failed")
	ErrUnsupportedNetwork = errors.New("no adapter registered for network type")
)

// TransactionStatus is the chain-reported outcome for a transaction hash.
// StatusNotFound means the chain does not know the hash; it is distinct
// from models.OrderStatusNotFound, which is an order lifecycle state.
type TransactionStatus string

const (
	StatusSucceed    TransactionStatus = "SUCCEED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusInProgress TransactionStatus = "IN_PROGRESS"
	StatusNotFound   TransactionStatus = "NOT_FOUND"
)

// Account is a freshly derived or restored keypair. PrivateKey and
// SeedPhrase must never be logged.
type Account struct {
	PublicKey  string
	PrivateKey string
	Address    string
	SeedPhrase string
}

// TransferResult reports a single withdraw or deposit submission.
type TransferResult struct {
	TransactionId string
	Success       bool
	ErrorMessage  string
	Data          map[string]string
}

// Adapter is the uniform capability set every supported chain implements.
// Each chain exposes a different RPC shape; this boundary keeps the
// settlement engine chain-agnostic.
//
// Withdraw and Deposit broadcast irreversible on-chain actions: at most one
// submission attempt per call, the caller owns any retry policy and must
// verify current on-chain state first.
type Adapter interface {
	NetworkType() models.NetworkType

	// EscrowAddress is the bridge custody account on this network.
	// Withdrawals land here; deposits are paid out of it.
	EscrowAddress() string

	// CreateAccount derives a fresh keypair from a cryptographically
	// random seed phrase.
	CreateAccount() (*Account, error)

	// RestoreAccount deterministically re-derives the keypair: the same
	// seed phrase always yields the same keys.
	RestoreAccount(seedPhrase string) (*Account, error)

	GetAccountBalance(ctx context.Context, address string) (decimal.Decimal, error)

	Withdraw(ctx context.Context, amount decimal.Decimal, destinationAddress, signerPrivateKey string) (*TransferResult, error)

	Deposit(ctx context.Context, amount decimal.Decimal, accountAddress string) (*TransferResult, error)

	// GetTransactionStatus maps an unknown hash to StatusNotFound and an
	// RPC timeout to StatusInProgress, never to a failure.
	GetTransactionStatus(ctx context.Context, txHash string) (TransactionStatus, error)
}
