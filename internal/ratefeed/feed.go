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

package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"token-bridge-go/internal/metrics"
	"token-bridge-go/internal/models"
	"token-bridge-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Pair names one token conversion to keep refreshed, with the external
// source that quotes it.
type Pair struct {
	FromNetwork string
	FromToken   string
	ToNetwork   string
	ToToken     string
	SourceUrl   string
}

// Feed appends fresh exchange rates on a fixed interval. A failing pair
// is logged and skipped; the next tick is the retry mechanism. Consumers
// never block on this loop, they read the latest persisted row.
type Feed struct {
	store      store.BridgeStore
	pairs      []Pair
	interval   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	stopChan   chan struct{}
	doneChan   chan struct{}
}

func NewFeed(st store.BridgeStore, pairs []Pair, cfg models.RateFeedConfig, logger *zap.Logger) *Feed {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Feed{
		store:      st,
		pairs:      pairs,
		interval:   cfg.Interval,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start begins the refresh loop in the background.
func (f *Feed) Start(ctx context.Context) {
	f.logger.Info("Starting exchange rate feed",
		zap.Duration("interval", f.interval),
		zap.Int("pairs", len(f.pairs)))
	go f.runLoop(ctx)
}

// Stop gracefully stops the feed.
func (f *Feed) Stop() {
	f.logger.Info("Stopping exchange rate feed")
	close(f.stopChan)
	<-f.doneChan
	f.logger.Info("Exchange rate feed stopped")
}

func (f *Feed) runLoop(ctx context.Context) {
	defer close(f.doneChan)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.refreshAll(ctx)

	for {
		select {
		case <-ticker.C:
			f.refreshAll(ctx)
		case <-f.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshAll fetches every configured pair. One pair's failure never
// aborts the remaining pairs or the loop.
func (f *Feed) refreshAll(ctx context.Context) {
	for _, pair := range f.pairs {
		if err := f.refreshPair(ctx, pair); err != nil {
			metrics.RateRefreshes.WithLabelValues("failure").Inc()
			f.logger.Error("Failed to refresh exchange rate",
				zap.String("from_token", pair.FromToken),
				zap.String("to_token", pair.ToToken),
				zap.String("source_url", pair.SourceUrl),
				zap.Error(err))
			continue
		}
		metrics.RateRefreshes.WithLabelValues("success").Inc()
	}
}

func (f *Feed) refreshPair(ctx context.Context, pair Pair) error {
	fromNetwork, err := f.store.GetNetworkByName(ctx, pair.FromNetwork)
	if err != nil {
		return fmt.Errorf("unable to resolve network %q: %w", pair.FromNetwork, err)
	}
	toNetwork, err := f.store.GetNetworkByName(ctx, pair.ToNetwork)
	if err != nil {
		return fmt.Errorf("unable to resolve network %q: %w", pair.ToNetwork, err)
	}
	fromToken, err := f.store.GetToken(ctx, fromNetwork.Id, pair.FromToken)
	if err != nil {
		return fmt.Errorf("unable to resolve token %q: %w", pair.FromToken, err)
	}
	toToken, err := f.store.GetToken(ctx, toNetwork.Id, pair.ToToken)
	if err != nil {
		return fmt.Errorf("unable to resolve token %q: %w", pair.ToToken, err)
	}

	rate, err := f.fetchRate(ctx, pair.SourceUrl)
	if err != nil {
		return err
	}

	if _, err := f.store.InsertExchangeRate(ctx, store.InsertExchangeRateParams{
		FromTokenId: fromToken.Id,
		ToTokenId:   toToken.Id,
		Rate:        rate,
		SourceUrl:   pair.SourceUrl,
	}); err != nil {
		return err
	}

	f.logger.Debug("Exchange rate refreshed",
		zap.String("from_token", pair.FromToken),
		zap.String("to_token", pair.ToToken),
		zap.String("rate", rate.String()))
	return nil
}

func (f *Feed) fetchRate(ctx context.Context, sourceUrl string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceUrl, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to create rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate source unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var quote struct {
		Rate string `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode rate response: %w", err)
	}

	rate, err := decimal.NewFromString(quote.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate %q: %w", quote.Rate, err)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("rate source returned non-positive rate %s", rate.String())
	}
	return rate, nil
}
