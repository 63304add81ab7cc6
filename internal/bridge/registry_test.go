package bridge

import (
	"context"
	"errors"
	"testing"

	"token-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

type stubAdapter struct {
	netType models.NetworkType
}

func (s stubAdapter) NetworkType() models.NetworkType { return s.netType }
func (s stubAdapter) EscrowAddress() string           { return "" }
func (s stubAdapter) CreateAccount() (*Account, error) {
	return &Account{}, nil
}
func (s stubAdapter) RestoreAccount(seedPhrase string) (*Account, error) {
	return &Account{SeedPhrase: seedPhrase}, nil
}
func (s stubAdapter) GetAccountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s stubAdapter) Withdraw(ctx context.Context, amount decimal.Decimal, destinationAddress, signerPrivateKey string) (*TransferResult, error) {
	return &TransferResult{Success: true}, nil
}
func (s stubAdapter) Deposit(ctx context.Context, amount decimal.Decimal, accountAddress string) (*TransferResult, error) {
	return &TransferResult{Success: true}, nil
}
func (s stubAdapter) GetTransactionStatus(ctx context.Context, txHash string) (TransactionStatus, error) {
	return StatusNotFound, nil
}

func TestRegistry_ResolveRegistered(t *testing.T) {
	registry := NewRegistry()
	registry.Register(stubAdapter{netType: models.NetworkTypeSolana})

	adapter, err := registry.Resolve(models.NetworkTypeSolana)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if adapter.NetworkType() != models.NetworkTypeSolana {
		t.Errorf("Resolved wrong adapter: %s", adapter.NetworkType())
	}
}

func TestRegistry_ResolveUnknownType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve(models.NetworkTypeEthereum)
	if !errors.Is(err, ErrUnsupportedNetwork) {
		t.Errorf("Expected ErrUnsupportedNetwork, got %v", err)
	}
}
