package usecase

import (
	"context"
	"time"

	"MarketRadar/internal/domain/repository"
	applogger "MarketRadar/pkg/logger"
)

// CuratedBuilder rebuilds the silver tables from bronze. Both rebuilds are
// full replacements, so re-running after a partial ingestion is always safe.
type CuratedBuilder struct {
	store   repository.CuratedStore
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewCuratedBuilder(store repository.CuratedStore, metrics repository.Metrics, l *applogger.Logger) *CuratedBuilder {
	return &CuratedBuilder{store: store, metrics: metrics, l: l}
}

// Run rebuilds silver_universe then silver_price_daily and returns their row
// counts. A loud failure here means bronze has no data to curate.
func (b *CuratedBuilder) Run(ctx context.Context) (int, int, error) {
	start := time.Now()

	universeRows, err := b.store.RebuildUniverse(ctx)
	if err != nil {
		b.metrics.RecordError("build_silver")
		return 0, 0, err
	}

	priceRows, err := b.store.RebuildPriceDaily(ctx)
	if err != nil {
		b.metrics.RecordError("build_silver")
		return 0, 0, err
	}

	b.metrics.RecordDuration("build_silver", time.Since(start).Seconds())
	b.l.Info("silver build complete",
		applogger.Int("universe_rows", universeRows),
		applogger.Int("price_rows", priceRows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return universeRows, priceRows, nil
}
