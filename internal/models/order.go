package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order along its settlement lifecycle.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusInsufficientFunds OrderStatus = "INSUFFICIENT_FUNDS"
	OrderStatusSufficientFunds   OrderStatus = "SUFFICIENT_FUNDS"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
	OrderStatusCanceled          OrderStatus = "CANCELED"
	OrderStatusExpired           OrderStatus = "EXPIRED"
	// OrderStatusNotFound means reconciliation could not locate the
	// account or transaction backing the order. Distinct from the chain
	// reporting an unknown transaction hash (bridge.StatusNotFound).
	OrderStatusNotFound OrderStatus = "NOT_FOUND"
)

// IsTerminal reports whether the status permits no further transition.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCanceled, OrderStatusExpired, OrderStatusNotFound:
		return true
	}
	return false
}

// Order is the unit of settlement work. Created once, mutated only by the
// settlement engine and the reconciliation loop, never deleted. Version
// increments on every mutation and guards concurrent updates.
type Order struct {
	Id                 string          `db:"id"`
	UserId             string          `db:"user_id"`
	ExchangeRateId     string          `db:"exchange_rate_id"`
	FromNetworkId      string          `db:"from_network_id"`
	FromTokenId        string          `db:"from_token_id"`
	ToNetworkId        string          `db:"to_network_id"`
	ToTokenId          string          `db:"to_token_id"`
	DestinationAddress string          `db:"destination_address"`
	Amount             decimal.Decimal `db:"amount"`
	RequiredAmount     decimal.Decimal `db:"required_amount"`
	TransactionHash    string          `db:"transaction_hash"`
	Status             OrderStatus     `db:"status"`
	ErrorMessage       string          `db:"error_message"`
	Version            int64           `db:"version"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
}
