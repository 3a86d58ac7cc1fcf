package repository

import (
	"context"
	"time"

	"MarketRadar/internal/domain/models"
)

// MarketData is the upstream market-data boundary (constituents, EOD
// history, news). Implementations apply the shared rate limit internally.
type MarketData interface {
	Constituents(ctx context.Context) ([]models.UniverseMember, error)
	DailyHistory(ctx context.Context, symbol string) ([]models.PriceBar, error)
	News(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// RawStore is the bronze layer: append-only, batch-tagged snapshots.
type RawStore interface {
	InsertUniverseSnapshot(ctx context.Context, rows []models.RawUniverseRow) error
	InsertPriceSnapshot(ctx context.Context, rows []models.RawPriceRow) error

	// LatestUniverseSymbols returns the symbols of the most recent bronze
	// universe snapshot. Errors when no snapshot exists.
	LatestUniverseSymbols(ctx context.Context) ([]string, error)
}

// CuratedStore is the silver layer: canonical tables rebuilt from bronze.
type CuratedStore interface {
	// RebuildUniverse replaces silver_universe from the latest bronze
	// snapshot. Returns the row count; errors when bronze is empty.
	RebuildUniverse(ctx context.Context) (int, error)

	// RebuildPriceDaily replaces silver_price_daily, keeping one row per
	// (symbol, date) from the latest ingestion. Returns the row count;
	// errors when bronze is empty.
	RebuildPriceDaily(ctx context.Context) (int, error)

	ActiveUniverse(ctx context.Context) ([]models.UniverseMember, error)
	Dates(ctx context.Context) ([]time.Time, error)
}

// SignalSource provides the windowed base statistics the screener ranks.
type SignalSource interface {
	// MaxDate returns the latest trading date in silver_price_daily.
	// Errors when the table is empty or missing.
	MaxDate(ctx context.Context) (time.Time, error)

	// BaseRows returns one windowed-statistics row per active symbol for
	// runDate. An empty result is not an error here; the screener decides.
	BaseRows(ctx context.Context, runDate time.Time) ([]models.SignalBase, error)
}

// Metrics records pipeline and query instrumentation.
type Metrics interface {
	RecordSymbolFetched(ok bool)
	RecordRowsIngested(table string, n int)
	RecordError(kind string)
	RecordDuration(op string, seconds float64)
	RecordRefresh(unixSeconds float64)
	RecordSignalRows(n int)
}
