package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketRadar/internal/domain/models"
	"MarketRadar/internal/domain/repository"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// PriceIngestor pulls full EOD history for every symbol in the latest bronze
// universe snapshot and appends the bars to bronze_prices under one batch
// tag. Symbols are fetched by a bounded worker pool; a failed symbol is
// logged and skipped, and the run fails only when nothing was ingested.
type PriceIngestor struct {
	source  repository.MarketData
	store   repository.RawStore
	metrics repository.Metrics
	workers int
	l       *applogger.Logger
}

func NewPriceIngestor(source repository.MarketData, store repository.RawStore, metrics repository.Metrics, workers int, l *applogger.Logger) *PriceIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &PriceIngestor{source: source, store: store, metrics: metrics, workers: workers, l: l}
}

type fetchResult struct {
	symbol string
	bars   []models.PriceBar
	err    error
}

// Run ingests price history for the latest universe. Returns the number of
// symbols that succeeded and the total bar count written.
func (p *PriceIngestor) Run(ctx context.Context) (int, int, error) {
	start := time.Now()

	symbols, err := p.store.LatestUniverseSymbols(ctx)
	if err != nil {
		p.metrics.RecordError("ingest_prices")
		return 0, 0, err
	}
	p.l.Info("price ingestion starting",
		applogger.Int("symbols", len(symbols)),
		applogger.Int("workers", p.workers),
	)

	jobs := make(chan string)
	results := make(chan fetchResult)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				bars, err := p.source.DailyHistory(ctx, sym)
				results <- fetchResult{symbol: sym, bars: bars, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sym := range symbols {
			select {
			case jobs <- sym:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ingestionDate := util.Today()
	ingestedAt := time.Now().UTC()

	var rows []models.RawPriceRow
	succeeded, done := 0, 0
	for res := range results {
		done++
		if res.err != nil {
			p.metrics.RecordSymbolFetched(false)
			p.l.Warn("symbol fetch failed, skipping",
				applogger.String("symbol", res.symbol),
				applogger.Error(res.err),
			)
			continue
		}
		p.metrics.RecordSymbolFetched(true)
		succeeded++
		for _, bar := range res.bars {
			rows = append(rows, models.RawPriceRow{
				PriceBar:      bar,
				IngestionDate: ingestionDate,
				IngestedAt:    ingestedAt,
			})
		}
		if done%25 == 0 {
			p.l.Info("price ingestion progress",
				applogger.Int("done", done),
				applogger.Int("total", len(symbols)),
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if succeeded == 0 {
		p.metrics.RecordError("ingest_prices")
		return 0, 0, fmt.Errorf("no historical price data ingested for any symbol")
	}

	if err := p.store.InsertPriceSnapshot(ctx, rows); err != nil {
		p.metrics.RecordError("ingest_prices")
		return 0, 0, err
	}

	p.metrics.RecordRowsIngested("bronze_prices", len(rows))
	p.metrics.RecordDuration("ingest_prices", time.Since(start).Seconds())
	p.l.Info("price ingestion complete",
		applogger.Int("symbols_ok", succeeded),
		applogger.Int("symbols_failed", len(symbols)-succeeded),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return succeeded, len(rows), nil
}
