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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.BridgeStore.
var _ store.BridgeStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000"
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Supported blockchain networks
	CREATE TABLE IF NOT EXISTS networks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	-- Tradeable tokens, unique per (network, symbol)
	CREATE TABLE IF NOT EXISTS network_tokens (
		id TEXT PRIMARY KEY,
		network_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		decimals INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (network_id, symbol),
		FOREIGN KEY (network_id) REFERENCES networks(id)
	);

	-- Append-only exchange rate history; never updated or deleted
	CREATE TABLE IF NOT EXISTS exchange_rates (
		id TEXT PRIMARY KEY,
		from_token_id TEXT NOT NULL,
		to_token_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		source_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (from_token_id) REFERENCES network_tokens(id),
		FOREIGN KEY (to_token_id) REFERENCES network_tokens(id)
	);
	CREATE INDEX IF NOT EXISTS idx_exchange_rates_pair
		ON exchange_rates(from_token_id, to_token_id, created_at);

	-- Custodial keypairs, one per (user, network)
	CREATE TABLE IF NOT EXISTS virtual_accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		network_id TEXT NOT NULL,
		public_key TEXT NOT NULL,
		private_key TEXT NOT NULL,
		address TEXT NOT NULL,
		seed_phrase TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, network_id),
		FOREIGN KEY (network_id) REFERENCES networks(id)
	);

	-- Cached balance snapshots; re-querying overwrites
	CREATE TABLE IF NOT EXISTS account_balances (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		token_id TEXT NOT NULL,
		balance TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (account_id, token_id),
		FOREIGN KEY (account_id) REFERENCES virtual_accounts(id),
		FOREIGN KEY (token_id) REFERENCES network_tokens(id)
	);

	-- Bridge orders; soft lifecycle via status, version guards mutation
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		exchange_rate_id TEXT NOT NULL,
		from_network_id TEXT NOT NULL,
		from_token_id TEXT NOT NULL,
		to_network_id TEXT NOT NULL,
		to_token_id TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		amount TEXT NOT NULL,
		required_amount TEXT NOT NULL,
		transaction_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		FOREIGN KEY (exchange_rate_id) REFERENCES exchange_rates(id)
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("unable to create schema: %w", err)
	}

	return nil
}
