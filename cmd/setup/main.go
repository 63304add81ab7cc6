package main

import (
	"context"
	"errors"

	"token-bridge-go/internal/common"
	"token-bridge-go/internal/config"
	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"go.uber.org/zap"
)

// Seeds the networks and tokens declared in the bridge file. Safe to run
// repeatedly: rows that already exist are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	bridgeCfg, err := config.LoadBridgeConfig(cfg.BridgeFile)
	if err != nil {
		zap.L().Fatal("Failed to load bridge file", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	for _, networkCfg := range bridgeCfg.Networks {
		network, err := dbService.GetNetworkByName(ctx, networkCfg.Name)
		if errors.Is(err, store.ErrNetworkNotFound) {
			network, err = dbService.CreateNetwork(ctx, networkCfg.Name, models.NetworkType(networkCfg.Type), networkCfg.Description)
			if err != nil {
				zap.L().Fatal("Failed to create network",
					zap.String("network", networkCfg.Name),
					zap.Error(err))
			}
			zap.L().Info("Created network",
				zap.String("network", network.Name),
				zap.String("type", string(network.Type)))
		} else if err != nil {
			zap.L().Fatal("Failed to look up network",
				zap.String("network", networkCfg.Name),
				zap.Error(err))
		} else {
			zap.L().Info("Network already exists", zap.String("network", network.Name))
		}

		for _, tokenCfg := range networkCfg.Tokens {
			_, err := dbService.GetToken(ctx, network.Id, tokenCfg.Symbol)
			if errors.Is(err, store.ErrTokenNotFound) {
				token, err := dbService.CreateToken(ctx, network.Id, tokenCfg.Symbol, tokenCfg.Description, tokenCfg.Decimals)
				if err != nil {
					zap.L().Fatal("Failed to create token",
						zap.String("network", network.Name),
						zap.String("token", tokenCfg.Symbol),
						zap.Error(err))
				}
				zap.L().Info("Created token",
					zap.String("network", network.Name),
					zap.String("token", token.Symbol),
					zap.Int32("decimals", token.Decimals))
			} else if err != nil {
				zap.L().Fatal("Failed to look up token",
					zap.String("network", network.Name),
					zap.String("token", tokenCfg.Symbol),
					zap.Error(err))
			} else {
				zap.L().Info("Token already exists",
					zap.String("network", network.Name),
					zap.String("token", tokenCfg.Symbol))
			}
		}
	}

	zap.L().Info("Setup complete",
		zap.Int("networks", len(bridgeCfg.Networks)),
		zap.Int("pairs", len(bridgeCfg.Pairs)))
}
