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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"token-bridge-go/internal/models"
)

func Load() (*models.Config, error) {
	rateFeedInterval, err := getEnvDuration("RATE_FEED_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	rateFetchTimeout, err := getEnvDuration("RATE_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := getEnvDuration("RECONCILE_INTERVAL", 1*time.Minute)
	if err != nil {
		return nil, err
	}

	orderExpiryTTL, err := getEnvDuration("ORDER_EXPIRY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	adapterTimeout, err := getEnvDuration("ADAPTER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	retryDelay, err := getEnvDuration("ADAPTER_RETRY_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "bridge.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		API: models.APIConfig{
			Port: getEnvInt("API_PORT", 8080),
		},
		Kafka: models.KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Broker:  getEnvString("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnvString("KAFKA_TOPIC", "bridge-order-events"),
		},
		RateFeed: models.RateFeedConfig{
			Interval:     rateFeedInterval,
			FetchTimeout: rateFetchTimeout,
		},
		Reconciler: models.ReconcilerConfig{
			Interval: reconcileInterval,
		},
		Engine: models.EngineConfig{
			OrderExpiryTTL: orderExpiryTTL,
			AdapterTimeout: adapterTimeout,
			RetryAttempts:  getEnvInt("ADAPTER_RETRY_ATTEMPTS", 3),
			RetryDelay:     retryDelay,
		},
		BridgeFile: getEnvString("BRIDGE_FILE", "bridge.yaml"),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
