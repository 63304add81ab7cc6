package engine

import (
	"context"
	"fmt"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/events"
	"token-bridge-go/internal/metrics"
	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"go.uber.org/zap"
)

// Settle dispatches the withdraw-then-deposit pair for an order in
// SUFFICIENT_FUNDS. Exactly one caller wins the dispatch: the order is
// claimed with a version bump before any chain call, so a concurrent
// Settle fails with store.ErrConcurrentModification. On a chain-reported
// failure the order stays in SUFFICIENT_FUNDS with the error recorded,
// and the caller decides between re-invoking Settle and Cancel.
func (e *Engine) Settle(ctx context.Context, orderId string) (*models.SettleResponse, error) {
	order, err := e.store.GetOrderById(ctx, orderId)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusCompleted {
		return &models.SettleResponse{
			OrderId:       order.Id,
			Status:        order.Status,
			TransactionId: order.TransactionHash,
			Message:       "order already completed",
		}, nil
	}
	if order.Status != models.OrderStatusSufficientFunds {
		return nil, fmt.Errorf("%w: cannot settle from %s", ErrInvalidTransition, order.Status)
	}

	fromNetwork, err := e.store.GetNetworkById(ctx, order.FromNetworkId)
	if err != nil {
		return nil, err
	}
	toNetwork, err := e.store.GetNetworkById(ctx, order.ToNetworkId)
	if err != nil {
		return nil, err
	}
	sourceAdapter, err := e.adapters.Resolve(fromNetwork.Type)
	if err != nil {
		return nil, err
	}
	destAdapter, err := e.adapters.Resolve(toNetwork.Type)
	if err != nil {
		return nil, err
	}

	account, err := e.store.GetVirtualAccount(ctx, order.UserId, fromNetwork.Id)
	if err != nil {
		return nil, err
	}

	// Claim the order before touching the chain. The version bump
	// serializes concurrent settle attempts.
	order, err = e.store.UpdateOrder(ctx, store.UpdateOrderParams{
		OrderId:         order.Id,
		FromVersion:     order.Version,
		Status:          models.OrderStatusSufficientFunds,
		TransactionHash: order.TransactionHash,
		ErrorMessage:    order.ErrorMessage,
		CompletedAt:     order.CompletedAt,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Dispatching settlement",
		zap.String("order_id", order.Id),
		zap.String("from_network", fromNetwork.Name),
		zap.String("to_network", toNetwork.Name),
		zap.String("required_amount", order.RequiredAmount.String()))

	// A hash on a SUFFICIENT_FUNDS order means an earlier attempt
	// already landed the withdraw; dispatching it again would move the
	// user's funds to escrow twice. Resume at the deposit instead.
	withdrawTxId := order.TransactionHash
	if withdrawTxId == "" {
		// Withdraw the converted amount from the user's custodial account
		// into the bridge escrow on the source network. One attempt only.
		withdrawCtx, cancelWithdraw := context.WithTimeout(ctx, e.cfg.AdapterTimeout)
		withdrawal, err := sourceAdapter.Withdraw(withdrawCtx, order.RequiredAmount, sourceAdapter.EscrowAddress(), account.PrivateKey)
		cancelWithdraw()
		if err != nil || !withdrawal.Success {
			// An ambiguous outcome (e.g. cancellation mid-broadcast) must
			// be verified via GetTransactionStatus, never blindly retried.
			return e.recordSettlementFailure(ctx, order, withdrawalTransactionId(withdrawal), "withdraw", err, withdrawal)
		}
		withdrawTxId = withdrawal.TransactionId

		// Record the transaction hash before the deposit so the
		// reconciliation loop can pick the order up after a crash.
		order, err = e.store.UpdateOrder(ctx, store.UpdateOrderParams{
			OrderId:         order.Id,
			FromVersion:     order.Version,
			Status:          models.OrderStatusSufficientFunds,
			TransactionHash: withdrawTxId,
			ErrorMessage:    "",
			CompletedAt:     nil,
		})
		if err != nil {
			return nil, err
		}
	} else {
		zap.L().Info("Resuming settlement at deposit",
			zap.String("order_id", order.Id),
			zap.String("withdraw_tx", withdrawTxId))
	}

	depositCtx, cancelDeposit := context.WithTimeout(ctx, e.cfg.AdapterTimeout)
	deposit, err := destAdapter.Deposit(depositCtx, order.Amount, order.DestinationAddress)
	cancelDeposit()
	if err != nil || !deposit.Success {
		return e.recordSettlementFailure(ctx, order, withdrawTxId, "deposit", err, deposit)
	}

	now := time.Now().UTC()
	order, err = e.store.UpdateOrder(ctx, store.UpdateOrderParams{
		OrderId:         order.Id,
		FromVersion:     order.Version,
		Status:          models.OrderStatusCompleted,
		TransactionHash: withdrawTxId,
		ErrorMessage:    "",
		CompletedAt:     &now,
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlements.WithLabelValues("success").Inc()
	e.publish(ctx, events.EventOrderCompleted, order)

	zap.L().Info("Settlement completed",
		zap.String("order_id", order.Id),
		zap.String("withdraw_tx", withdrawTxId),
		zap.String("deposit_tx", deposit.TransactionId))

	return &models.SettleResponse{
		OrderId:       order.Id,
		Status:        order.Status,
		TransactionId: withdrawTxId,
		Message:       "settlement completed",
	}, nil
}

// Cancel moves a non-terminal order to CANCELED. Canceling an already
// canceled order is a no-op, not an error.
func (e *Engine) Cancel(ctx context.Context, orderId string) error {
	order, err := e.store.GetOrderById(ctx, orderId)
	if err != nil {
		return err
	}

	if order.Status == models.OrderStatusCanceled {
		return nil
	}
	if order.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, order.Status)
	}

	order, err = e.store.UpdateOrder(ctx, store.UpdateOrderParams{
		OrderId:         order.Id,
		FromVersion:     order.Version,
		Status:          models.OrderStatusCanceled,
		TransactionHash: order.TransactionHash,
		ErrorMessage:    order.ErrorMessage,
		CompletedAt:     order.CompletedAt,
	})
	if err != nil {
		return err
	}

	e.publish(ctx, events.EventOrderCanceled, order)
	zap.L().Info("Order canceled", zap.String("order_id", orderId))
	return nil
}

func (e *Engine) recordSettlementFailure(ctx context.Context, order *models.Order, txHash, phase string, callErr error, result *bridge.TransferResult) (*models.SettleResponse, error) {
	message := fmt.Sprintf("%s failed", phase)
	if result != nil && result.ErrorMessage != "" {
		message = fmt.Sprintf("%s failed: %s", phase, result.ErrorMessage)
	} else if callErr != nil {
		message = fmt.Sprintf("%s failed: %s", phase, callErr.Error())
	}

	updated, err := e.store.UpdateOrder(ctx, store.UpdateOrderParams{
		OrderId:         order.Id,
		FromVersion:     order.Version,
		Status:          models.OrderStatusSufficientFunds,
		TransactionHash: txHash,
		ErrorMessage:    message,
		CompletedAt:     nil,
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlements.WithLabelValues("failure").Inc()
	e.publish(ctx, events.EventOrderUpdated, updated)

	zap.L().Error("Settlement failure recorded",
		zap.String("order_id", order.Id),
		zap.String("phase", phase),
		zap.String("message", message))

	return &models.SettleResponse{
			OrderId:       updated.Id,
			Status:        updated.Status,
			TransactionId: updated.TransactionHash,
			Message:       message,
		}, fmt.Errorf("%w: %s", ErrSettlementFailure, message)
}

func withdrawalTransactionId(result *bridge.TransferResult) string {
	if result == nil {
		return ""
	}
	return result.TransactionId
}
