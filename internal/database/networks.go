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
	"go.uber.org/zap"
)

func (s *Service) CreateNetwork(ctx context.Context, name string, netType models.NetworkType, description string) (*models.Network, error) {
	network := &models.Network{
		Id:          uuid.New().String(),
		Name:        name,
		Type:        netType,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertNetwork,
		network.Id, network.Name, string(network.Type), network.Description, network.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to insert network", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert network: %w", err)
	}

	zap.L().Info("Network created",
		zap.String("id", network.Id),
		zap.String("name", name),
		zap.String("type", string(netType)))
	return network, nil
}

func (s *Service) GetNetworkByName(ctx context.Context, name string) (*models.Network, error) {
	return s.scanNetwork(s.db.QueryRowContext(ctx, queryGetNetworkByName, name))
}

func (s *Service) GetNetworkById(ctx context.Context, id string) (*models.Network, error) {
	return s.scanNetwork(s.db.QueryRowContext(ctx, queryGetNetworkById, id))
}

func (s *Service) scanNetwork(row *sql.Row) (*models.Network, error) {
	var network models.Network
	var netType string
	err := row.Scan(&network.Id, &network.Name, &netType, &network.Description, &network.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNetworkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query network: %w", err)
	}
	network.Type = models.NetworkType(netType)
	return &network, nil
}

func (s *Service) CreateToken(ctx context.Context, networkId, symbol, description string, decimals int32) (*models.NetworkToken, error) {
	token := &models.NetworkToken{
		Id:          uuid.New().String(),
		NetworkId:   networkId,
		Symbol:      symbol,
		Description: description,
		Decimals:    decimals,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertToken,
		token.Id, token.NetworkId, token.Symbol, token.Description, token.Decimals, token.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to insert token",
			zap.String("network_id", networkId),
			zap.String("symbol", symbol),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert token: %w", err)
	}

	zap.L().Info("Token created",
		zap.String("id", token.Id),
		zap.String("network_id", networkId),
		zap.String("symbol", symbol))
	return token, nil
}

func (s *Service) GetToken(ctx context.Context, networkId, symbol string) (*models.NetworkToken, error) {
	return s.scanToken(s.db.QueryRowContext(ctx, queryGetToken, networkId, symbol))
}

func (s *Service) GetTokenById(ctx context.Context, id string) (*models.NetworkToken, error) {
	return s.scanToken(s.db.QueryRowContext(ctx, queryGetTokenById, id))
}

func (s *Service) scanToken(row *sql.Row) (*models.NetworkToken, error) {
	var token models.NetworkToken
	err := row.Scan(&token.Id, &token.NetworkId, &token.Symbol, &token.Description, &token.Decimals, &token.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query token: %w", err)
	}
	return &token, nil
}
