package common

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"token-bridge-go/internal/bridge"
	"token-bridge-go/internal/bridge/ethereum"
	"token-bridge-go/internal/bridge/radix"
	"token-bridge-go/internal/bridge/solana"
	"token-bridge-go/internal/config"
	"token-bridge-go/internal/database"
	"token-bridge-go/internal/events"
	"token-bridge-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from a .env file if one exists.
// Environment variables can also be set via shell export, docker, etc.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService *database.Service
	Adapters  *bridge.Registry
	Publisher events.Publisher
	Bridge    *config.BridgeConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bridgeCfg, err := config.LoadBridgeConfig(cfg.BridgeFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	adapters, err := buildAdapterRegistry(bridgeCfg, cfg.Engine.AdapterTimeout)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	zap.L().Info("Network adapters registered", zap.Any("types", adapters.Types()))

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, zap.L())
		if err != nil {
			dbService.Close()
			return nil, err
		}
		publisher = kafkaPublisher
		zap.L().Info("Kafka event publishing enabled",
			zap.String("broker", cfg.Kafka.Broker),
			zap.String("topic", cfg.Kafka.Topic))
	}

	return &Services{
		DbService: dbService,
		Adapters:  adapters,
		Publisher: publisher,
		Bridge:    bridgeCfg,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for offline operations like seeding reference data.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.Publisher != nil {
		cs.Publisher.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// buildAdapterRegistry constructs one adapter per configured network type.
// Two networks of the same type share an adapter slot, so the file must
// not declare conflicting settings for the same type.
func buildAdapterRegistry(bridgeCfg *config.BridgeConfig, timeout time.Duration) (*bridge.Registry, error) {
	registry := bridge.NewRegistry()

	for _, network := range bridgeCfg.Networks {
		var (
			adapter bridge.Adapter
			err     error
		)
		switch models.NetworkType(network.Type) {
		case models.NetworkTypeSolana:
			adapter, err = solana.NewAdapter(solana.Config{
				RpcURL:           network.RpcURL,
				EscrowAddress:    network.EscrowAddress,
				EscrowPrivateKey: network.EscrowPrivateKey(),
				Timeout:          timeout,
			})
		case models.NetworkTypeRadix:
			adapter, err = radix.NewAdapter(radix.Config{
				GatewayURL:       network.RpcURL,
				Network:          network.GatewayNetwork,
				TokenRri:         network.TokenRri,
				EscrowAddress:    network.EscrowAddress,
				EscrowPrivateKey: network.EscrowPrivateKey(),
				Timeout:          timeout,
			})
		case models.NetworkTypeEthereum:
			adapter, err = ethereum.NewAdapter(ethereum.Config{
				RpcURL:           network.RpcURL,
				ChainId:          network.ChainId,
				EscrowAddress:    network.EscrowAddress,
				EscrowPrivateKey: network.EscrowPrivateKey(),
				Timeout:          timeout,
			})
		default:
			return nil, fmt.Errorf("%w: %s", bridge.ErrUnsupportedNetwork, network.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to build %s adapter for network %q: %w", network.Type, network.Name, err)
		}
		registry.Register(adapter)

		zap.L().Info("Registered network adapter",
			zap.String("network", network.Name),
			zap.String("type", network.Type))
	}

	return registry, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
