package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketRadar/internal/domain/models"
	domrepo "MarketRadar/internal/domain/repository"
	pkgch "MarketRadar/pkg/clickhouse"
	applogger "MarketRadar/pkg/logger"
)

// CHRawStore implements the bronze layer on ClickHouse. Inserts are
// append-only; rows carry their ingestion batch tag and never mutate.
type CHRawStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHRawStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHRawStore {
	return &CHRawStore{db: ch.DB(), database: database, l: l}
}

func (s *CHRawStore) InsertUniverseSnapshot(ctx context.Context, rows []models.RawUniverseRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("universe snapshot is empty")
	}

	const chunkSize = 2000
	table := s.database + ".bronze_universe"
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, r.Symbol, r.Name, r.Sector, r.SubSector, r.IngestionDate, r.IngestedAt)
		}

		q := fmt.Sprintf("INSERT INTO %s (symbol, name, sector, sub_sector, ingestion_date, ingested_at) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bronze universe: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("bronze universe snapshot written",
			applogger.Int("rows", len(rows)),
			applogger.String("ingestion_date", rows[0].IngestionDate),
		)
	}
	return nil
}

func (s *CHRawStore) InsertPriceSnapshot(ctx context.Context, rows []models.RawPriceRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("price snapshot is empty")
	}

	start := time.Now()
	const chunkSize = 2000
	table := s.database + ".bronze_prices"
	for lo := 0; lo < len(rows); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*10)
		for _, r := range rows[lo:hi] {
			if r.Symbol == "" || r.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Symbol, r.Date, r.Open, r.High, r.Low, r.Close, r.AdjClose, r.Volume,
				r.IngestionDate, r.IngestedAt,
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, adj_close, volume, ingestion_date, ingested_at) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bronze prices: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("bronze price snapshot written",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHRawStore) LatestUniverseSymbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`
        SELECT DISTINCT symbol
        FROM %[1]s.bronze_universe
        WHERE ingestion_date = (SELECT max(ingestion_date) FROM %[1]s.bronze_universe)
        ORDER BY symbol
    `, s.database)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("latest universe symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no bronze universe snapshot found; run universe ingestion first")
	}
	return out, nil
}

var _ domrepo.RawStore = (*CHRawStore)(nil)
