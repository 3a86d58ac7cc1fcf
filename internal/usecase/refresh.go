package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketRadar/internal/domain/repository"
	applogger "MarketRadar/pkg/logger"
)

// ErrRefreshRunning is returned when a refresh is requested while one is
// already in flight. The pipeline rebuilds silver wholesale, so overlapping
// runs would race on the table replacements.
var ErrRefreshRunning = fmt.Errorf("refresh already running")

// RefreshResult summarizes one full pipeline run.
type RefreshResult struct {
	UniverseRows   int           `json:"universe_rows"`
	SymbolsOK      int           `json:"symbols_ok"`
	PriceRows      int           `json:"price_rows"`
	SilverUniverse int           `json:"silver_universe_rows"`
	SilverPrices   int           `json:"silver_price_rows"`
	Duration       time.Duration `json:"duration_ns"`
}

// Refresher runs the full pipeline: universe ingestion, price ingestion,
// silver rebuild. At most one refresh runs at a time.
type Refresher struct {
	mu       sync.Mutex
	universe *UniverseIngestor
	prices   *PriceIngestor
	builder  *CuratedBuilder
	metrics  repository.Metrics
	l        *applogger.Logger
}

func NewRefresher(universe *UniverseIngestor, prices *PriceIngestor, builder *CuratedBuilder, metrics repository.Metrics, l *applogger.Logger) *Refresher {
	return &Refresher{universe: universe, prices: prices, builder: builder, metrics: metrics, l: l}
}

// Running reports whether a refresh is currently in flight.
func (r *Refresher) Running() bool {
	if r.mu.TryLock() {
		r.mu.Unlock()
		return false
	}
	return true
}

// Run executes the full pipeline. Returns ErrRefreshRunning when one is
// already in progress.
func (r *Refresher) Run(ctx context.Context) (*RefreshResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrRefreshRunning
	}
	defer r.mu.Unlock()

	start := time.Now()
	r.l.Info("full refresh starting")

	universeRows, err := r.universe.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe ingestion: %w", err)
	}

	symbolsOK, priceRows, err := r.prices.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("price ingestion: %w", err)
	}

	silverUniverse, silverPrices, err := r.builder.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("silver build: %w", err)
	}

	r.metrics.RecordRefresh(float64(time.Now().Unix()))
	r.l.Info("full refresh complete",
		applogger.Int("universe_rows", universeRows),
		applogger.Int("price_rows", priceRows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return &RefreshResult{
		UniverseRows:   universeRows,
		SymbolsOK:      symbolsOK,
		PriceRows:      priceRows,
		SilverUniverse: silverUniverse,
		SilverPrices:   silverPrices,
		Duration:       time.Since(start),
	}, nil
}
