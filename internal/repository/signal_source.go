package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketRadar/internal/domain/models"
	domrepo "MarketRadar/internal/domain/repository"
	pkgch "MarketRadar/pkg/clickhouse"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// CHSignalSource computes the windowed base statistics in ClickHouse and
// returns one row per active symbol for the run date. All windows are per
// symbol ordered by date over the full silver history; the outer filter to
// the run date happens last so the frames see every prior bar.
type CHSignalSource struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSignalSource(ch *pkgch.Client, database string, l *applogger.Logger) *CHSignalSource {
	return &CHSignalSource{db: ch.DB(), database: database, l: l}
}

func (s *CHSignalSource) MaxDate(ctx context.Context) (time.Time, error) {
	var n uint64
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT count() FROM %s.silver_price_daily", s.database)).Scan(&n); err != nil {
		return time.Time{}, fmt.Errorf("count silver_price_daily: %w", err)
	}
	if n == 0 {
		return time.Time{}, fmt.Errorf("silver_price_daily is empty; run the silver build first")
	}

	var d time.Time
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT max(date) FROM %s.silver_price_daily", s.database)).Scan(&d); err != nil {
		return time.Time{}, fmt.Errorf("max date: %w", err)
	}
	return d, nil
}

// baseQuery is the windowed statistics over silver_price_daily, computed per
// symbol ordered by date. The lookback windows (close/volume 60d, high/low
// 252d, previous close/volume, previous above-200 state) end at the previous
// row; the SMAs include the current row. Frames with no prior rows surface
// as NULL via the row-number guard, matching an empty-window aggregate.
const baseQuery = `
SELECT
    symbol,
    date,
    open, high, low, close, volume,
    CAST(if(rn = 1, NULL, close_d2)     AS Nullable(Float64)) AS close_d2,
    CAST(if(rn = 1, NULL, volume_d2)    AS Nullable(Float64)) AS volume_d2,
    sma_50,
    sma_200,
    CAST(if(rn = 1, NULL, close_60_mean) AS Nullable(Float64)) AS close_60_mean,
    CAST(if(rn = 1, NULL, close_60_std)  AS Nullable(Float64)) AS close_60_std,
    CAST(if(rn = 1, NULL, vol_60_median) AS Nullable(Float64)) AS vol_60_median,
    CAST(if(rn = 1, NULL, high_252_max)  AS Nullable(Float64)) AS high_252_max,
    CAST(if(rn = 1, NULL, low_252_min)   AS Nullable(Float64)) AS low_252_min,
    CAST(if(rn = 1, NULL, above_200_prev) AS Nullable(Bool))   AS above_200_prev
FROM (
    SELECT
        symbol, date, open, high, low, close, volume,
        rn, close_d2, volume_d2, sma_50, sma_200,
        close_60_mean, close_60_std, vol_60_median,
        high_252_max, low_252_min,
        lagInFrame(close > sma_200, 1) OVER (
            PARTITION BY symbol ORDER BY date
            ROWS BETWEEN 1 PRECEDING AND CURRENT ROW
        ) AS above_200_prev
    FROM (
        SELECT
            p.symbol AS symbol,
            p.date AS date,
            p.open AS open, p.high AS high, p.low AS low,
            p.close AS close, p.volume AS volume,
            ROW_NUMBER() OVER w AS rn,
            lagInFrame(p.close, 1) OVER (
                PARTITION BY p.symbol ORDER BY p.date
                ROWS BETWEEN 1 PRECEDING AND CURRENT ROW
            ) AS close_d2,
            lagInFrame(p.volume, 1) OVER (
                PARTITION BY p.symbol ORDER BY p.date
                ROWS BETWEEN 1 PRECEDING AND CURRENT ROW
            ) AS volume_d2,
            avg(p.close) OVER (w ROWS BETWEEN 49 PRECEDING AND CURRENT ROW)   AS sma_50,
            avg(p.close) OVER (w ROWS BETWEEN 199 PRECEDING AND CURRENT ROW)  AS sma_200,
            avg(p.close) OVER (w ROWS BETWEEN 59 PRECEDING AND 1 PRECEDING)   AS close_60_mean,
            stddevPop(p.close) OVER (w ROWS BETWEEN 59 PRECEDING AND 1 PRECEDING) AS close_60_std,
            medianExact(p.volume) OVER (w ROWS BETWEEN 59 PRECEDING AND 1 PRECEDING) AS vol_60_median,
            max(p.high) OVER (w ROWS BETWEEN 251 PRECEDING AND 1 PRECEDING)   AS high_252_max,
            min(p.low) OVER (w ROWS BETWEEN 251 PRECEDING AND 1 PRECEDING)    AS low_252_min
        FROM %[1]s.silver_price_daily AS p
        INNER JOIN %[1]s.silver_universe AS u ON u.symbol = p.symbol
        WHERE u.is_active
        WINDOW w AS (PARTITION BY p.symbol ORDER BY p.date)
    )
)
WHERE date = toDate(?)
ORDER BY symbol`

func (s *CHSignalSource) BaseRows(ctx context.Context, runDate time.Time) ([]models.SignalBase, error) {
	start := time.Now()
	q := fmt.Sprintf(baseQuery, s.database)

	rows, err := s.db.QueryContext(ctx, q, util.FormatDay(runDate))
	if err != nil {
		return nil, fmt.Errorf("query base signals: %w", err)
	}
	defer rows.Close()

	var out []models.SignalBase
	for rows.Next() {
		var b models.SignalBase
		if err := rows.Scan(
			&b.Symbol, &b.Date,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.CloseD2, &b.VolumeD2,
			&b.SMA50, &b.SMA200,
			&b.Close60Mean, &b.Close60Std, &b.Vol60Median,
			&b.High252Max, &b.Low252Min,
			&b.Above200Prev,
		); err != nil {
			return nil, fmt.Errorf("scan base signal row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("base signal query complete",
			applogger.String("run_date", util.FormatDay(runDate)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.SignalSource = (*CHSignalSource)(nil)
