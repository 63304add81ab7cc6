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

// InsertExchangeRate appends one observation to the rate history. Rows are
// never updated or deleted; consumers read the newest row for a pair.
func (s *Service) InsertExchangeRate(ctx context.Context, params store.InsertExchangeRateParams) (*models.ExchangeRate, error) {
	rate := &models.ExchangeRate{
		Id:          uuid.New().String(),
		FromTokenId: params.FromTokenId,
		ToTokenId:   params.ToTokenId,
		Rate:        params.Rate,
		SourceUrl:   params.SourceUrl,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertExchangeRate,
		rate.Id, rate.FromTokenId, rate.ToTokenId, rate.Rate.String(), rate.SourceUrl, rate.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to insert exchange rate",
			zap.String("from_token_id", params.FromTokenId),
			zap.String("to_token_id", params.ToTokenId),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert exchange rate: %w", err)
	}

	zap.L().Debug("Exchange rate recorded",
		zap.String("from_token_id", params.FromTokenId),
		zap.String("to_token_id", params.ToTokenId),
		zap.String("rate", params.Rate.String()))
	return rate, nil
}

func (s *Service) GetLatestExchangeRate(ctx context.Context, fromTokenId, toTokenId string) (*models.ExchangeRate, error) {
	rate, err := s.scanExchangeRate(s.db.QueryRowContext(ctx, queryGetLatestExchangeRate, fromTokenId, toTokenId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRateUnavailable
	}
	return rate, err
}

func (s *Service) GetExchangeRateById(ctx context.Context, id string) (*models.ExchangeRate, error) {
	rate, err := s.scanExchangeRate(s.db.QueryRowContext(ctx, queryGetExchangeRateById, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrRateUnavailable
	}
	return rate, err
}

func (s *Service) scanExchangeRate(row *sql.Row) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	var rateStr string
	err := row.Scan(&rate.Id, &rate.FromTokenId, &rate.ToTokenId, &rateStr, &rate.SourceUrl, &rate.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query exchange rate: %w", err)
	}

	rate.Rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse rate '%s': %w", rateStr, err)
	}
	return &rate, nil
}
