package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetworkType identifies which adapter implementation serves a network.
type NetworkType string

const (
	NetworkTypeSolana   NetworkType = "solana"
	NetworkTypeRadix    NetworkType = "radix"
	NetworkTypeEthereum NetworkType = "ethereum"
)

// Network represents a supported blockchain network. Immutable after
// creation except for the description.
type Network struct {
	Id          string      `db:"id"`
	Name        string      `db:"name"`
	Type        NetworkType `db:"type"`
	Description string      `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
}

// NetworkToken is a tradeable unit on a network, unique per (network, symbol).
type NetworkToken struct {
	Id          string    `db:"id"`
	NetworkId   string    `db:"network_id"`
	Symbol      string    `db:"symbol"`
	Description string    `db:"description"`
	Decimals    int32     `db:"decimals"`
	CreatedAt   time.Time `db:"created_at"`
}

// ExchangeRate is an append-only conversion record between two tokens.
// The current rate for a pair is the most recently created row.
type ExchangeRate struct {
	Id          string          `db:"id"`
	FromTokenId string          `db:"from_token_id"`
	ToTokenId   string          `db:"to_token_id"`
	Rate        decimal.Decimal `db:"rate"`
	SourceUrl   string          `db:"source_url"`
	CreatedAt   time.Time       `db:"created_at"`
}

// VirtualAccount is a custodial keypair held on a user's behalf for one
// network. Key material is read-only outside the custody store and must
// never be logged.
type VirtualAccount struct {
	Id         string    `db:"id"`
	UserId     string    `db:"user_id"`
	NetworkId  string    `db:"network_id"`
	PublicKey  string    `db:"public_key"`
	PrivateKey string    `db:"private_key"`
	Address    string    `db:"address"`
	SeedPhrase string    `db:"seed_phrase"`
	CreatedAt  time.Time `db:"created_at"`
}

// AccountBalance is a cached snapshot of one token holding of a virtual
// account. The chain is the source of truth; re-querying overwrites.
type AccountBalance struct {
	Id        string          `db:"id"`
	AccountId string          `db:"account_id"`
	TokenId   string          `db:"token_id"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}
