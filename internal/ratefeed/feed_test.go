package ratefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"token-bridge-go/internal/database"
	"token-bridge-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func setupFeedTest(t *testing.T) (*database.Service, func()) {
	t.Helper()

	dbService, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return dbService, dbService.Close
}

func seedPairTokens(t *testing.T, dbService *database.Service) (fromTokenId, toTokenId string) {
	t.Helper()
	ctx := context.Background()

	fromNetwork, err := dbService.CreateNetwork(ctx, "solana-mainnet", models.NetworkTypeSolana, "")
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	toNetwork, err := dbService.CreateNetwork(ctx, "radix-mainnet", models.NetworkTypeRadix, "")
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	fromToken, err := dbService.CreateToken(ctx, fromNetwork.Id, "SOL", "", 9)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}
	toToken, err := dbService.CreateToken(ctx, toNetwork.Id, "XRD", "", 18)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}
	return fromToken.Id, toToken.Id
}

func TestRefreshAll_PersistsQuotedRate(t *testing.T) {
	dbService, cleanup := setupFeedTest(t)
	defer cleanup()
	fromTokenId, toTokenId := seedPairTokens(t, dbService)

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rate":"0.42"}`)
	}))
	defer source.Close()

	feed := NewFeed(dbService, []Pair{{
		FromNetwork: "solana-mainnet",
		FromToken:   "SOL",
		ToNetwork:   "radix-mainnet",
		ToToken:     "XRD",
		SourceUrl:   source.URL,
	}}, models.RateFeedConfig{Interval: time.Hour, FetchTimeout: 5 * time.Second}, zap.NewNop())

	feed.refreshAll(context.Background())

	rate, err := dbService.GetLatestExchangeRate(context.Background(), fromTokenId, toTokenId)
	if err != nil {
		t.Fatalf("GetLatestExchangeRate failed: %v", err)
	}
	if !rate.Rate.Equal(decimal.RequireFromString("0.42")) {
		t.Errorf("Expected rate 0.42, got %s", rate.Rate.String())
	}
	if rate.SourceUrl != source.URL {
		t.Errorf("Expected source url %s, got %s", source.URL, rate.SourceUrl)
	}
}

func TestRefreshAll_FailingPairDoesNotBlockOthers(t *testing.T) {
	dbService, cleanup := setupFeedTest(t)
	defer cleanup()
	fromTokenId, toTokenId := seedPairTokens(t, dbService)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rate":"0.5"}`)
	}))
	defer healthy.Close()

	feed := NewFeed(dbService, []Pair{
		{
			// Same direction as the healthy pair but quoted by a dead
			// source; it must fail without aborting the pass.
			FromNetwork: "solana-mainnet",
			FromToken:   "SOL",
			ToNetwork:   "radix-mainnet",
			ToToken:     "XRD",
			SourceUrl:   broken.URL,
		},
		{
			FromNetwork: "solana-mainnet",
			FromToken:   "SOL",
			ToNetwork:   "radix-mainnet",
			ToToken:     "XRD",
			SourceUrl:   healthy.URL,
		},
	}, models.RateFeedConfig{Interval: time.Hour, FetchTimeout: 5 * time.Second}, zap.NewNop())

	feed.refreshAll(context.Background())

	rate, err := dbService.GetLatestExchangeRate(context.Background(), fromTokenId, toTokenId)
	if err != nil {
		t.Fatalf("Expected the healthy pair to be persisted: %v", err)
	}
	if !rate.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Expected rate 0.5, got %s", rate.Rate.String())
	}
}

func TestFetchRate_RejectsNonPositive(t *testing.T) {
	dbService, cleanup := setupFeedTest(t)
	defer cleanup()

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rate":"0"}`)
	}))
	defer source.Close()

	feed := NewFeed(dbService, nil, models.RateFeedConfig{Interval: time.Hour, FetchTimeout: 5 * time.Second}, zap.NewNop())

	if _, err := feed.fetchRate(context.Background(), source.URL); err == nil {
		t.Errorf("Expected a zero rate to be rejected")
	}
}

func TestStartStop_Terminates(t *testing.T) {
	dbService, cleanup := setupFeedTest(t)
	defer cleanup()

	feed := NewFeed(dbService, nil, models.RateFeedConfig{Interval: 10 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	feed.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	feed.Stop()
}
