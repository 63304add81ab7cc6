package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateOrder(ctx context.Context, params store.CreateOrderParams) (*models.Order, error) {
	now := time.Now().UTC()
	order := &models.Order{
		Id:                 uuid.New().String(),
		UserId:             params.UserId,
		ExchangeRateId:     params.ExchangeRateId,
		FromNetworkId:      params.FromNetworkId,
		FromTokenId:        params.FromTokenId,
		ToNetworkId:        params.ToNetworkId,
		ToTokenId:          params.ToTokenId,
		DestinationAddress: params.DestinationAddress,
		Amount:             params.Amount,
		RequiredAmount:     params.RequiredAmount,
		Status:             models.OrderStatusPending,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertOrder,
		order.Id, order.UserId, order.ExchangeRateId,
		order.FromNetworkId, order.FromTokenId, order.ToNetworkId, order.ToTokenId,
		order.DestinationAddress, order.Amount.String(), order.RequiredAmount.String(),
		string(order.Status), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		zap.L().Error("Failed to insert order",
			zap.String("user_id", params.UserId),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert order: %w", err)
	}

	zap.L().Info("Order created",
		zap.String("order_id", order.Id),
		zap.String("user_id", order.UserId),
		zap.String("amount", order.Amount.String()),
		zap.String("required_amount", order.RequiredAmount.String()))
	return order, nil
}

func (s *Service) GetOrderById(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, queryGetOrderById, orderId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrOrderNotFound
	}
	return order, err
}

func (s *Service) ListOpenOrdersWithTransaction(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryListOpenOrdersWithTransaction)
	if err != nil {
		return nil, fmt.Errorf("unable to query open orders: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// UpdateOrder applies a version-guarded mutation. The version counter
// increments on success; a stale FromVersion yields
// store.ErrConcurrentModification without touching the row.
func (s *Service) UpdateOrder(ctx context.Context, params store.UpdateOrderParams) (*models.Order, error) {
	var completedAt interface{}
	if params.CompletedAt != nil {
		completedAt = params.CompletedAt.UTC()
	}

	result, err := s.db.ExecContext(ctx, queryUpdateOrder,
		string(params.Status), params.TransactionHash, params.ErrorMessage, completedAt,
		time.Now().UTC(), params.OrderId, params.FromVersion)
	if err != nil {
		zap.L().Error("Failed to update order",
			zap.String("order_id", params.OrderId),
			zap.Error(err))
		return nil, fmt.Errorf("unable to update order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to read update result: %w", err)
	}
	if affected == 0 {
		// Either the order is gone or someone got there first.
		if _, getErr := s.GetOrderById(ctx, params.OrderId); getErr != nil {
			return nil, getErr
		}
		zap.L().Warn("Order version conflict",
			zap.String("order_id", params.OrderId),
			zap.Int64("from_version", params.FromVersion))
		return nil, store.ErrConcurrentModification
	}

	zap.L().Info("Order updated",
		zap.String("order_id", params.OrderId),
		zap.String("status", string(params.Status)),
		zap.Int64("from_version", params.FromVersion))
	return s.GetOrderById(ctx, params.OrderId)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var amountStr, requiredStr, status string
	var completedAt sql.NullTime
	err := row.Scan(
		&order.Id, &order.UserId, &order.ExchangeRateId,
		&order.FromNetworkId, &order.FromTokenId, &order.ToNetworkId, &order.ToTokenId,
		&order.DestinationAddress, &amountStr, &requiredStr,
		&order.TransactionHash, &status, &order.ErrorMessage, &order.Version,
		&order.CreatedAt, &order.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("unable to scan order: %w", err)
	}

	order.Status = models.OrderStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}
	if order.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("unable to parse amount '%s': %w", amountStr, err)
	}
	if order.RequiredAmount, err = decimal.NewFromString(requiredStr); err != nil {
		return nil, fmt.Errorf("unable to parse required amount '%s': %w", requiredStr, err)
	}
	return &order, nil
}
