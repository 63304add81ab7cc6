package store

import (
	"context"
	"errors"
	"time"

	"token-bridge-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOrderNotFound          = errors.New("order not found")
	ErrAccountNotFound        = errors.New("virtual account not found")
	ErrNetworkNotFound        = errors.New("network not found")
	ErrTokenNotFound          = errors.New("network token not found")
	ErrRateUnavailable        = errors.New("no exchange rate available for pair")
	ErrDuplicateAccount       = errors.New("virtual account already exists for user and network")
)

// CreateVirtualAccountParams contains the parameters for storing a
// custodial keypair. Key material passes through here exactly once, at
// account creation.
type CreateVirtualAccountParams struct {
	UserId     string
	NetworkId  string
	PublicKey  string
	PrivateKey string
	Address    string
	SeedPhrase string
}

// InsertExchangeRateParams appends one rate observation to the history.
type InsertExchangeRateParams struct {
	FromTokenId string
	ToTokenId   string
	Rate        decimal.Decimal
	SourceUrl   string
}

// CreateOrderParams contains everything fixed at order creation time,
// including the exchange rate snapshot the order is bound to.
type CreateOrderParams struct {
	UserId             string
	ExchangeRateId     string
	FromNetworkId      string
	FromTokenId        string
	ToNetworkId        string
	ToTokenId          string
	DestinationAddress string
	Amount             decimal.Decimal
	RequiredAmount     decimal.Decimal
}

// UpdateOrderParams mutates an order guarded by its version counter. The
// update only applies if the stored version equals FromVersion; otherwise
// the backend returns ErrConcurrentModification.
type UpdateOrderParams struct {
	OrderId         string
	FromVersion     int64
	Status          models.OrderStatus
	TransactionHash string
	ErrorMessage    string
	CompletedAt     *time.Time
}

// BridgeStore defines the contract that every persistence backend must satisfy.
type BridgeStore interface {
	// --- Networks & tokens ---
	CreateNetwork(ctx context.Context, name string, netType models.NetworkType, description string) (*models.Network, error)
	GetNetworkByName(ctx context.Context, name string) (*models.Network, error)
	GetNetworkById(ctx context.Context, id string) (*models.Network, error)
	CreateToken(ctx context.Context, networkId, symbol, description string, decimals int32) (*models.NetworkToken, error)
	GetToken(ctx context.Context, networkId, symbol string) (*models.NetworkToken, error)
	GetTokenById(ctx context.Context, id string) (*models.NetworkToken, error)

	// --- Exchange rates (append-only) ---
	InsertExchangeRate(ctx context.Context, params InsertExchangeRateParams) (*models.ExchangeRate, error)
	GetLatestExchangeRate(ctx context.Context, fromTokenId, toTokenId string) (*models.ExchangeRate, error)
	GetExchangeRateById(ctx context.Context, id string) (*models.ExchangeRate, error)

	// --- Virtual accounts & balance cache ---
	CreateVirtualAccount(ctx context.Context, params CreateVirtualAccountParams) (*models.VirtualAccount, error)
	GetVirtualAccount(ctx context.Context, userId, networkId string) (*models.VirtualAccount, error)
	UpsertAccountBalance(ctx context.Context, accountId, tokenId string, balance decimal.Decimal) error
	GetAccountBalance(ctx context.Context, accountId, tokenId string) (decimal.Decimal, error)

	// --- Orders ---
	CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error)
	GetOrderById(ctx context.Context, orderId string) (*models.Order, error)
	// ListOpenOrdersWithTransaction returns non-terminal orders that have
	// a recorded transaction hash and no recorded settlement error, i.e.
	// the reconciliation work set. Orders carrying a settlement error
	// await an operator decision (re-settle or cancel) and must not be
	// finalized automatically.
	ListOpenOrdersWithTransaction(ctx context.Context) ([]models.Order, error)
	UpdateOrder(ctx context.Context, params UpdateOrderParams) (*models.Order, error)

	// --- Lifecycle ---
	Close()
}
