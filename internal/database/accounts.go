package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateVirtualAccount stores a custodial keypair. Key material is never
// logged; only the public address appears in log output.
func (s *Service) CreateVirtualAccount(ctx context.Context, params store.CreateVirtualAccountParams) (*models.VirtualAccount, error) {
	account := &models.VirtualAccount{
		Id:         uuid.New().String(),
		UserId:     params.UserId,
		NetworkId:  params.NetworkId,
		PublicKey:  params.PublicKey,
		PrivateKey: params.PrivateKey,
		Address:    params.Address,
		SeedPhrase: params.SeedPhrase,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertVirtualAccount,
		account.Id, account.UserId, account.NetworkId,
		account.PublicKey, account.PrivateKey, account.Address, account.SeedPhrase,
		account.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, store.ErrDuplicateAccount
		}
		zap.L().Error("Failed to insert virtual account",
			zap.String("user_id", params.UserId),
			zap.String("network_id", params.NetworkId),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert virtual account: %w", err)
	}

	zap.L().Info("Virtual account created",
		zap.String("id", account.Id),
		zap.String("user_id", params.UserId),
		zap.String("network_id", params.NetworkId),
		zap.String("address", params.Address))
	return account, nil
}

func (s *Service) GetVirtualAccount(ctx context.Context, userId, networkId string) (*models.VirtualAccount, error) {
	var account models.VirtualAccount
	err := s.db.QueryRowContext(ctx, queryGetVirtualAccount, userId, networkId).Scan(
		&account.Id, &account.UserId, &account.NetworkId,
		&account.PublicKey, &account.PrivateKey, &account.Address, &account.SeedPhrase,
		&account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query virtual account: %w", err)
	}
	return &account, nil
}

// UpsertAccountBalance overwrites the cached snapshot for the pair.
// Last write wins; the chain is the source of truth.
func (s *Service) UpsertAccountBalance(ctx context.Context, accountId, tokenId string, balance decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, queryUpsertAccountBalance,
		uuid.New().String(), accountId, tokenId, balance.String(), time.Now().UTC())
	if err != nil {
		zap.L().Error("Failed to upsert account balance",
			zap.String("account_id", accountId),
			zap.String("token_id", tokenId),
			zap.Error(err))
		return fmt.Errorf("unable to upsert account balance: %w", err)
	}

	zap.L().Debug("Account balance cached",
		zap.String("account_id", accountId),
		zap.String("token_id", tokenId),
		zap.String("balance", balance.String()))
	return nil
}

func (s *Service) GetAccountBalance(ctx context.Context, accountId, tokenId string) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetAccountBalance, accountId, tokenId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No snapshot yet means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to query account balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse balance '%s': %w", balanceStr, err)
	}
	return balance, nil
}
