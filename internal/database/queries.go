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

const (
	// Network queries
	queryInsertNetwork = `
		INSERT INTO networks (id, name, type, description, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetNetworkByName = `
		SELECT id, name, type, description, created_at
		FROM networks
		WHERE name = ?`

	queryGetNetworkById = `
		SELECT id, name, type, description, created_at
		FROM networks
		WHERE id = ?`

	// Token queries
	queryInsertToken = `
		INSERT INTO network_tokens (id, network_id, symbol, description, decimals, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetToken = `
		SELECT id, network_id, symbol, description, decimals, created_at
		FROM network_tokens
		WHERE network_id = ? AND symbol = ?`

	queryGetTokenById = `
		SELECT id, network_id, symbol, description, decimals, created_at
		FROM network_tokens
		WHERE id = ?`

	// Exchange rate queries
	queryInsertExchangeRate = `
		INSERT INTO exchange_rates (id, from_token_id, to_token_id, rate, source_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetLatestExchangeRate = `
		SELECT id, from_token_id, to_token_id, rate, source_url, created_at
		FROM exchange_rates
		WHERE from_token_id = ? AND to_token_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`

	queryGetExchangeRateById = `
		SELECT id, from_token_id, to_token_id, rate, source_url, created_at
		FROM exchange_rates
		WHERE id = ?`

	// Virtual account queries
	queryInsertVirtualAccount = `
		INSERT INTO virtual_accounts (id, user_id, network_id, public_key, private_key, address, seed_phrase, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetVirtualAccount = `
		SELECT id, user_id, network_id, public_key, private_key, address, seed_phrase, created_at
		FROM virtual_accounts
		WHERE user_id = ? AND network_id = ?`

	// Balance cache queries
	queryUpsertAccountBalance = `
		INSERT INTO account_balances (id, account_id, token_id, balance, version, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (account_id, token_id) DO UPDATE SET
			balance = excluded.balance,
			version = account_balances.version + 1,
			updated_at = excluded.updated_at`

	queryGetAccountBalance = `
		SELECT balance
		FROM account_balances
		WHERE account_id = ? AND token_id = ?`

	// Order queries
	queryInsertOrder = `
		INSERT INTO orders (id, user_id, exchange_rate_id, from_network_id, from_token_id,
			to_network_id, to_token_id, destination_address, amount, required_amount,
			transaction_hash, status, error_message, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, '', 1, ?, ?)`

	queryGetOrderById = `
		SELECT id, user_id, exchange_rate_id, from_network_id, from_token_id,
			to_network_id, to_token_id, destination_address, amount, required_amount,
			transaction_hash, status, error_message, version, created_at, updated_at, completed_at
		FROM orders
		WHERE id = ?`

	queryListOpenOrdersWithTransaction = `
		SELECT id, user_id, exchange_rate_id, from_network_id, from_token_id,
			to_network_id, to_token_id, destination_address, amount, required_amount,
			transaction_hash, status, error_message, version, created_at, updated_at, completed_at
		FROM orders
		WHERE transaction_hash != ''
		  AND error_message = ''
		  AND status NOT IN ('COMPLETED', 'CANCELED', 'EXPIRED', 'NOT_FOUND')
		ORDER BY created_at`

	queryUpdateOrder = `
		UPDATE orders SET
			status = ?,
			transaction_hash = ?,
			error_message = ?,
			completed_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?`
)
