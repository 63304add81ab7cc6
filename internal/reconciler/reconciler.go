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

package reconciler

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

	"go.uber.org/zap"
)

// Reconciler polls in-flight transactions to a terminal outcome. It only
// talks to the persisted order store and the adapter registry, so it can
// be restarted (or run alongside another instance) without coordination:
// finalization is guarded by the order version and re-finalizing an
// already terminal order is a no-op.
type Reconciler struct {
	store     store.BridgeStore
	adapters  *bridge.Registry
	publisher events.Publisher
	interval  time.Duration
	retryCfg  bridge.RetryConfig
	timeout   time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func New(st store.BridgeStore, adapters *bridge.Registry, publisher events.Publisher, cfg models.ReconcilerConfig, engineCfg models.EngineConfig, logger *zap.Logger) *Reconciler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	timeout := engineCfg.AdapterTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reconciler{
		store:     st,
		adapters:  adapters,
		publisher: publisher,
		interval:  cfg.Interval,
		retryCfg:  bridge.RetryConfig{Attempts: engineCfg.RetryAttempts, Delay: engineCfg.RetryDelay},
		timeout:   timeout,
		logger:    logger,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the reconciliation loop in the background.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("Starting reconciliation loop", zap.Duration("interval", r.interval))
	go r.runLoop(ctx)
}

// Stop gracefully stops the reconciler.
func (r *Reconciler) Stop() {
	r.logger.Info("Stopping reconciliation loop")
	close(r.stopChan)
	<-r.doneChan
	r.logger.Info("Reconciliation loop stopped")
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.ReconcileOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.ReconcileOnce(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ReconcileOnce scans the in-flight work set once. One order's failure
// never stalls the others.
func (r *Reconciler) ReconcileOnce(ctx context.Context) {
	orders, err := r.store.ListOpenOrdersWithTransaction(ctx)
	if err != nil {
		r.logger.Error("Failed to list in-flight orders", zap.Error(err))
		return
	}

	for _, order := range orders {
		if err := r.reconcileOrder(ctx, order); err != nil {
			r.logger.Error("Failed to reconcile order",
				zap.String("order_id", order.Id),
				zap.String("tx_hash", order.TransactionHash),
				zap.Error(err))
		}
	}

	metrics.ReconciliationPasses.Inc()
	if len(orders) > 0 {
		r.logger.Debug("Reconciliation pass finished", zap.Int("orders", len(orders)))
	}
}

func (r *Reconciler) reconcileOrder(ctx context.Context, order models.Order) error {
	network, err := r.store.GetNetworkById(ctx, order.FromNetworkId)
	if err != nil {
		return err
	}
	adapter, err := r.adapters.Resolve(network.Type)
	if err != nil {
		return err
	}

	var status bridge.TransactionStatus
	err = bridge.WithRetry(ctx, r.retryCfg, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		var callErr error
		status, callErr = adapter.GetTransactionStatus(callCtx, order.TransactionHash)
		return callErr
	})
	if err != nil {
		return err
	}

	switch status {
	case bridge.StatusSucceed:
		now := time.Now().UTC()
		return r.finalize(ctx, order, models.OrderStatusCompleted, "", &now)
	case bridge.StatusFailed:
		return r.finalize(ctx, order, models.OrderStatusCanceled, "on-chain transaction failed", nil)
	case bridge.StatusNotFound:
		return r.finalize(ctx, order, models.OrderStatusNotFound, "transaction not found on chain", nil)
	case bridge.StatusInProgress:
		// Re-poll next cycle.
		return nil
	default:
		return fmt.Errorf("unexpected transaction status %q", status)
	}
}

func (r *Reconciler) finalize(ctx context.Context, order models.Order, status models.OrderStatus, annotation string, completedAt *time.Time) error {
	errorMessage := order.ErrorMessage
	if annotation != "" {
		errorMessage = annotation
	}

	updated, err := r.store.UpdateOrder(ctx, store.UpdateOrderParams{
		OrderId:         order.Id,
		FromVersion:     order.Version,
		Status:          status,
		TransactionHash: order.TransactionHash,
		ErrorMessage:    errorMessage,
		CompletedAt:     completedAt,
	})
	if errors.Is(err, store.ErrConcurrentModification) {
		// Someone else finalized first; the next pass sees the
		// terminal state and skips the order.
		r.logger.Debug("Order already finalized elsewhere", zap.String("order_id", order.Id))
		return nil
	}
	if err != nil {
		return err
	}

	metrics.OrdersFinalized.WithLabelValues(string(status)).Inc()

	eventType := events.EventOrderUpdated
	if status == models.OrderStatusCompleted {
		eventType = events.EventOrderCompleted
	}
	event := events.OrderEvent{
		EventType:       eventType,
		OrderId:         updated.Id,
		UserId:          updated.UserId,
		Status:          string(updated.Status),
		TransactionHash: updated.TransactionHash,
		Amount:          updated.Amount.String(),
		RequiredAmount:  updated.RequiredAmount.String(),
		ErrorMessage:    updated.ErrorMessage,
		Timestamp:       time.Now().UTC(),
	}
	if err := r.publisher.PublishOrderEvent(ctx, event); err != nil {
		r.logger.Warn("Failed to publish reconciliation event",
			zap.String("order_id", updated.Id),
			zap.Error(err))
	}

	r.logger.Info("Order finalized",
		zap.String("order_id", order.Id),
		zap.String("status", string(status)),
		zap.String("tx_hash", order.TransactionHash))
	return nil
}
