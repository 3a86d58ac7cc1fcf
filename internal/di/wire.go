//go:build wireinject
// +build wireinject

package di

import (
	"MarketRadar/pkg/config"
	"MarketRadar/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the API server.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRateLimiter,
		ProvideCache,

		// Repositories
		ProvideMarketData,
		ProvideRawStore,
		ProvideCuratedStore,
		ProvideSignalSource,

		// Use cases
		ProvideUniverseIngestor,
		ProvidePriceIngestor,
		ProvideCuratedBuilder,
		ProvideScreener,
		ProvideReporter,
		ProvideRefresher,

		// HTTP layer
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializePipeline wires the use cases for CLI-driven runs (no HTTP).
func InitializePipeline(cfg *config.Config) (*Pipeline, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRateLimiter,
		ProvideCache,
		ProvideMarketData,
		ProvideRawStore,
		ProvideCuratedStore,
		ProvideSignalSource,
		ProvideUniverseIngestor,
		ProvidePriceIngestor,
		ProvideCuratedBuilder,
		ProvideScreener,
		ProvideReporter,
		ProvideRefresher,
		ProvidePipeline,
	)
	return &Pipeline{}, nil
}
