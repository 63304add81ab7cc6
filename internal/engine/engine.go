/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/events"
	"token-bridge-go/internal/metrics"
	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrSettlementFailure means the chain reported a withdraw or
	// deposit failure. The order stays in SUFFICIENT_FUNDS for an
	// operator decision; it is never retried silently.
	ErrSettlementFailure = errors.New("settlement failure")

	// ErrInvalidTransition means the requested operation is not allowed
	// from the order's current status.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInvalidRequest means the caller supplied an unusable request.
	ErrInvalidRequest = errors.New("invalid request")
)

// Engine orchestrates the order lifecycle: conversion, balance
// verification, cross-chain execution and cancellation. All chain access
// goes through the adapter registry; all state through the bridge store.
type Engine struct {
	store     store.BridgeStore
	adapters  *bridge.Registry
	publisher events.Publisher
	cfg       models.EngineConfig
}

func New(st store.BridgeStore, adapters *bridge.Registry, publisher events.Publisher, cfg models.EngineConfig) *Engine {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 30 * time.Second
	}
	if cfg.OrderExpiryTTL <= 0 {
		cfg.OrderExpiryTTL = 24 * time.Hour
	}
	return &Engine{store: st, adapters: adapters, publisher: publisher, cfg: cfg}
}

func (e *Engine) retryConfig() bridge.RetryConfig {
	return bridge.RetryConfig{Attempts: e.cfg.RetryAttempts, Delay: e.cfg.RetryDelay}
}

// CreateOrder resolves the latest exchange rate for the pair and persists
// a PENDING order bound to that rate snapshot. Later rate rows never
// change this order's required amount.
func (e *Engine) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if req.UserId == "" || req.DestinationAddress == "" {
		return nil, fmt.Errorf("%w: user id and destination address are required", ErrInvalidRequest)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidRequest, req.Amount.String())
	}

	fromNetwork, err := e.store.GetNetworkByName(ctx, req.FromNetwork)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve source network %q: %w", req.FromNetwork, err)
	}
	toNetwork, err := e.store.GetNetworkByName(ctx, req.ToNetwork)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve destination network %q: %w", req.ToNetwork, err)
	}
	fromToken, err := e.store.GetToken(ctx, fromNetwork.Id, req.FromToken)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve source token %q: %w", req.FromToken, err)
	}
	toToken, err := e.store.GetToken(ctx, toNetwork.Id, req.ToToken)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve destination token %q: %w", req.ToToken, err)
	}

	rate, err := e.store.GetLatestExchangeRate(ctx, fromToken.Id, toToken.Id)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", req.FromToken, req.ToToken, err)
	}

	requiredAmount := req.Amount.Mul(rate.Rate)

	order, err := e.store.CreateOrder(ctx, store.CreateOrderParams{
		UserId:             req.UserId,
		ExchangeRateId:     rate.Id,
		FromNetworkId:      fromNetwork.Id,
		FromTokenId:        fromToken.Id,
		ToNetworkId:        toNetwork.Id,
		ToTokenId:          toToken.Id,
		DestinationAddress: req.DestinationAddress,
		Amount:             req.Amount,
		RequiredAmount:     requiredAmount,
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	e.publish(ctx, events.EventOrderCreated, order)

	return &models.CreateOrderResponse{
		OrderId: order.Id,
		Message: fmt.Sprintf("order created, requires %s %s", requiredAmount.String(), fromToken.Symbol),
	}, nil
}

// CheckBalance refreshes the source account balance from the chain,
// caches the snapshot and transitions the order's funding status. The
// caller's virtual account is created on first need.
func (e *Engine) CheckBalance(ctx context.Context, orderId string) (*models.CheckBalanceResponse, error) {
	order, err := e.store.GetOrderById(ctx, orderId)
	if err != nil {
		return nil, err
	}

	fromNetwork, err := e.store.GetNetworkById(ctx, order.FromNetworkId)
	if err != nil {
		return nil, err
	}
	fromToken, err := e.store.GetTokenById(ctx, order.FromTokenId)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return &models.CheckBalanceResponse{
			OrderId:         order.Id,
			Network:         fromNetwork.Name,
			Token:           fromToken.Symbol,
			RequiredBalance: order.RequiredAmount,
			Status:          order.Status,
			Message:         fmt.Sprintf("order is %s, no further balance polling", order.Status),
			TransactionId:   order.TransactionHash,
		}, nil
	}

	adapter, err := e.adapters.Resolve(fromNetwork.Type)
	if err != nil {
		return nil, err
	}

	account, err := e.ensureAccount(ctx, order.UserId, fromNetwork.Id, adapter)
	if err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = bridge.WithRetry(ctx, e.retryConfig(), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.AdapterTimeout)
		defer cancel()
		var callErr error
		balance, callErr = adapter.GetAccountBalance(callCtx, account.Address)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	// Snapshot cache only; the chain stays the source of truth.
	if err := e.store.UpsertAccountBalance(ctx, account.Id, fromToken.Id, balance); err != nil {
		zap.L().Warn("Failed to cache account balance",
			zap.String("order_id", order.Id),
			zap.Error(err))
	}

	// Exact decimal comparison at the token's declared precision.
	sufficient := balance.Truncate(fromToken.Decimals).
		Cmp(order.RequiredAmount.Truncate(fromToken.Decimals)) >= 0

	newStatus := order.Status
	var message string
	switch {
	case sufficient:
		newStatus = models.OrderStatusSufficientFunds
		message = "sufficient funds, order ready for settlement"
	case order.Status == models.OrderStatusSufficientFunds:
		// Funding was already verified; a later balance dip never
		// revokes readiness. Surface the shortfall, keep the status.
		message = fmt.Sprintf("balance dropped below required amount: have %s, need %s %s",
			balance.String(), order.RequiredAmount.String(), fromToken.Symbol)
	case order.Status == models.OrderStatusInsufficientFunds &&
		time.Since(order.CreatedAt) > e.cfg.OrderExpiryTTL:
		newStatus = models.OrderStatusExpired
		message = "order expired waiting for funds"
	default:
		newStatus = models.OrderStatusInsufficientFunds
		message = fmt.Sprintf("insufficient funds: have %s, need %s %s",
			balance.String(), order.RequiredAmount.String(), fromToken.Symbol)
	}

	if newStatus != order.Status {
		order, err = e.store.UpdateOrder(ctx, store.UpdateOrderParams{
			OrderId:         order.Id,
			FromVersion:     order.Version,
			Status:          newStatus,
			TransactionHash: order.TransactionHash,
			ErrorMessage:    order.ErrorMessage,
			CompletedAt:     order.CompletedAt,
		})
		if err != nil {
			return nil, err
		}
		e.publish(ctx, events.EventOrderUpdated, order)
	}

	metrics.BalanceChecks.WithLabelValues(string(order.Status)).Inc()

	return &models.CheckBalanceResponse{
		OrderId:         order.Id,
		Network:         fromNetwork.Name,
		Token:           fromToken.Symbol,
		Balance:         balance,
		RequiredBalance: order.RequiredAmount,
		Status:          order.Status,
		Message:         message,
		TransactionId:   order.TransactionHash,
	}, nil
}

// GetOrder exposes a read-only order lookup for the API layer.
func (e *Engine) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	return e.store.GetOrderById(ctx, orderId)
}

// ensureAccount returns the user's custodial account on the network,
// deriving a fresh keypair on first need. A concurrent creation race
// resolves by re-reading the winner's row.
func (e *Engine) ensureAccount(ctx context.Context, userId, networkId string, adapter bridge.Adapter) (*models.VirtualAccount, error) {
	account, err := e.store.GetVirtualAccount(ctx, userId, networkId)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, err
	}

	derived, err := adapter.CreateAccount()
	if err != nil {
		return nil, err
	}

	account, err = e.store.CreateVirtualAccount(ctx, store.CreateVirtualAccountParams{
		UserId:     userId,
		NetworkId:  networkId,
		PublicKey:  derived.PublicKey,
		PrivateKey: derived.PrivateKey,
		Address:    derived.Address,
		SeedPhrase: derived.SeedPhrase,
	})
	if errors.Is(err, store.ErrDuplicateAccount) {
		return e.store.GetVirtualAccount(ctx, userId, networkId)
	}
	return account, err
}

func (e *Engine) publish(ctx context.Context, eventType string, order *models.Order) {
	event := events.OrderEvent{
		EventType:       eventType,
		OrderId:         order.Id,
		UserId:          order.UserId,
		Status:          string(order.Status),
		TransactionHash: order.TransactionHash,
		Amount:          order.Amount.String(),
		RequiredAmount:  order.RequiredAmount.String(),
		ErrorMessage:    order.ErrorMessage,
		Timestamp:       time.Now().UTC(),
	}
	if err := e.publisher.PublishOrderEvent(ctx, event); err != nil {
		zap.L().Warn("Failed to publish order event",
			zap.String("order_id", order.Id),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
