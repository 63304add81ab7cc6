package models

import "github.com/shopspring/decimal"

// CreateOrderRequest is the inbound shape for opening a bridge order.
type CreateOrderRequest struct {
	UserId             string          `json:"user_id"`
	FromNetwork        string          `json:"from_network"`
	FromToken          string          `json:"from_token"`
	ToNetwork          string          `json:"to_network"`
	ToToken            string          `json:"to_token"`
	DestinationAddress string          `json:"destination_address"`
	Amount             decimal.Decimal `json:"amount"`
}

// CreateOrderResponse acknowledges order creation.
type CreateOrderResponse struct {
	OrderId string `json:"order_id"`
	Message string `json:"message"`
}

// CheckBalanceResponse reports the funding state of an order.
type CheckBalanceResponse struct {
	OrderId         string          `json:"order_id"`
	Network         string          `json:"network"`
	Token           string          `json:"token"`
	Balance         decimal.Decimal `json:"balance"`
	RequiredBalance decimal.Decimal `json:"required_balance"`
	Status          OrderStatus     `json:"status"`
	Message         string          `json:"message"`
	TransactionId   string          `json:"transaction_id,omitempty"`
}

// SettleResponse reports the outcome of a settlement dispatch.
type SettleResponse struct {
	OrderId       string      `json:"order_id"`
	Status        OrderStatus `json:"status"`
	TransactionId string      `json:"transaction_id,omitempty"`
	Message       string      `json:"message"`
}
