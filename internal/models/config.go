package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	API        APIConfig
	Kafka      KafkaConfig
	RateFeed   RateFeedConfig
	Reconciler ReconcilerConfig
	Engine     EngineConfig
	// BridgeFile points at the YAML file describing networks, tokens
	// and rate-feed pairs.
	BridgeFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port int
}

// KafkaConfig holds order event publishing settings
type KafkaConfig struct {
	Enabled bool
	Broker  string
	Topic   string
}

// RateFeedConfig holds exchange rate refresh settings
type RateFeedConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

// ReconcilerConfig holds transaction reconciliation settings
type ReconcilerConfig struct {
	Interval time.Duration
}

// EngineConfig holds settlement engine settings
type EngineConfig struct {
	// OrderExpiryTTL is how long an order may sit in INSUFFICIENT_FUNDS
	// before a re-check expires it.
	OrderExpiryTTL time.Duration
	AdapterTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}
