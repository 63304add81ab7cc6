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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-bridge-go/internal/api"
	"token-bridge-go/internal/common"
	"token-bridge-go/internal/config"
	"token-bridge-go/internal/engine"
	"token-bridge-go/internal/ratefeed"
	"token-bridge-go/internal/reconciler"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting token bridge")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	eng := engine.New(services.DbService, services.Adapters, services.Publisher, cfg.Engine)

	pairs := make([]ratefeed.Pair, 0, len(services.Bridge.Pairs))
	for _, p := range services.Bridge.Pairs {
		pairs = append(pairs, ratefeed.Pair{
			FromNetwork: p.FromNetwork,
			FromToken:   p.FromToken,
			ToNetwork:   p.ToNetwork,
			ToToken:     p.ToToken,
			SourceUrl:   p.SourceUrl,
		})
	}

	feed := ratefeed.NewFeed(services.DbService, pairs, cfg.RateFeed, logger)
	feed.Start(ctx)
	defer feed.Stop()

	rec := reconciler.New(services.DbService, services.Adapters, services.Publisher, cfg.Reconciler, cfg.Engine, logger)
	rec.Start(ctx)
	defer rec.Stop()

	server := api.NewServer(eng, cfg.API, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			zap.L().Error("API server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down API server cleanly", zap.Error(err))
	}

	zap.L().Info("Token bridge stopped")
}
