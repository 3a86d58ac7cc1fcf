package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"MarketRadar/internal/domain/models"
	domrepo "MarketRadar/internal/domain/repository"
	pkgch "MarketRadar/pkg/clickhouse"
	applogger "MarketRadar/pkg/logger"
)

// CHCuratedStore builds and serves the silver layer. Rebuilds are full
// replacements (CREATE OR REPLACE TABLE ... AS SELECT) derived from bronze;
// silver tables are never mutated in place.
type CHCuratedStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHCuratedStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHCuratedStore {
	return &CHCuratedStore{db: ch.DB(), database: database, l: l}
}

func (s *CHCuratedStore) count(ctx context.Context, table string) (int, error) {
	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s.%s", s.database, table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return int(n), nil
}

// RebuildUniverse replaces silver_universe from the latest bronze snapshot
// only. Historical snapshots stay in bronze; the silver view is always the
// most recent membership, all rows active.
func (s *CHCuratedStore) RebuildUniverse(ctx context.Context) (int, error) {
	n, err := s.count(ctx, "bronze_universe")
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("bronze_universe is empty; run universe ingestion first")
	}

	q := fmt.Sprintf(`
CREATE OR REPLACE TABLE %[1]s.silver_universe
ENGINE = MergeTree
ORDER BY symbol
AS
SELECT DISTINCT
    symbol,
    name,
    sector,
    sub_sector,
    true AS is_active
FROM %[1]s.bronze_universe
WHERE ingestion_date = (SELECT max(ingestion_date) FROM %[1]s.bronze_universe)`, s.database)

	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return 0, fmt.Errorf("rebuild silver_universe: %w", err)
	}

	rows, err := s.count(ctx, "silver_universe")
	if err != nil {
		return 0, err
	}
	if s.l != nil {
		s.l.Info("silver_universe rebuilt", applogger.Int("rows", rows))
	}
	return rows, nil
}

// RebuildPriceDaily replaces silver_price_daily with one row per
// (symbol, date). When a bar was re-ingested the newest batch wins:
// greatest ingestion_date, then latest ingested_at.
func (s *CHCuratedStore) RebuildPriceDaily(ctx context.Context) (int, error) {
	n, err := s.count(ctx, "bronze_prices")
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("bronze_prices is empty; run price ingestion first")
	}

	start := time.Now()
	q := fmt.Sprintf(`
CREATE OR REPLACE TABLE %[1]s.silver_price_daily
ENGINE = MergeTree
ORDER BY (symbol, date)
AS
SELECT symbol, date, open, high, low, close, adj_close, volume
FROM (
    SELECT
        symbol, date, open, high, low, close, adj_close, volume,
        ROW_NUMBER() OVER (
            PARTITION BY symbol, date
            ORDER BY ingestion_date DESC, ingested_at DESC
        ) AS rn
    FROM %[1]s.bronze_prices
)
WHERE rn = 1`, s.database)

	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return 0, fmt.Errorf("rebuild silver_price_daily: %w", err)
	}

	rows, err := s.count(ctx, "silver_price_daily")
	if err != nil {
		return 0, err
	}
	if s.l != nil {
		s.l.Info("silver_price_daily rebuilt",
			applogger.Int("rows", rows),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return rows, nil
}

// latestBatchWins reports whether bronze row a supersedes b for the same
// (symbol, date): greater ingestion_date first, ingested_at breaking ties
// within a batch. RebuildPriceDaily's ROW_NUMBER ordering implements the
// same precedence.
func latestBatchWins(a, b models.RawPriceRow) bool {
	if a.IngestionDate != b.IngestionDate {
		return a.IngestionDate > b.IngestionDate
	}
	return a.IngestedAt.After(b.IngestedAt)
}

// DedupePriceRows reduces bronze price rows to one bar per (symbol, date),
// keeping the row from the newest ingestion batch. It mirrors the
// silver_price_daily rebuild so the precedence rule is testable without a
// database.
func DedupePriceRows(rows []models.RawPriceRow) []models.PriceBar {
	best := make(map[string]models.RawPriceRow, len(rows))
	for _, r := range rows {
		key := r.Symbol + "|" + r.Date.Format("2006-01-02")
		if cur, ok := best[key]; !ok || latestBatchWins(r, cur) {
			best[key] = r
		}
	}

	out := make([]models.PriceBar, 0, len(best))
	for _, r := range best {
		out = append(out, r.PriceBar)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (s *CHCuratedStore) ActiveUniverse(ctx context.Context) ([]models.UniverseMember, error) {
	q := fmt.Sprintf(`
        SELECT symbol, name, sector, sub_sector
        FROM %s.silver_universe
        WHERE is_active
        ORDER BY symbol
    `, s.database)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query silver_universe: %w", err)
	}
	defer rows.Close()

	var out []models.UniverseMember
	for rows.Next() {
		m := models.UniverseMember{IsActive: true}
		if err := rows.Scan(&m.Symbol, &m.Name, &m.Sector, &m.SubSector); err != nil {
			return nil, fmt.Errorf("scan universe member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHCuratedStore) Dates(ctx context.Context) ([]time.Time, error) {
	q := fmt.Sprintf("SELECT DISTINCT date FROM %s.silver_price_daily ORDER BY date DESC", s.database)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.CuratedStore = (*CHCuratedStore)(nil)
