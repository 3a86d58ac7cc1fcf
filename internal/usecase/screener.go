package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"MarketRadar/internal/domain/models"
	"MarketRadar/internal/domain/repository"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// ScreenerConfig holds the thresholds the signal derivation uses.
type ScreenerConfig struct {
	// RunDate pins evaluation to an explicit trading date; empty means the
	// latest date in the curated price table.
	RunDate    string
	MinAbsRetZ float64
	MinRVol    float64
}

// Screener turns windowed base statistics into ranked signal rows. The
// database computes the rolling windows; everything derived from them
// (returns, z-scores, flags, the composite score) happens here so the
// edge-case handling is explicit and testable.
type Screener struct {
	source  repository.SignalSource
	cfg     ScreenerConfig
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewScreener(source repository.SignalSource, cfg ScreenerConfig, metrics repository.Metrics, l *applogger.Logger) *Screener {
	if cfg.MinAbsRetZ <= 0 {
		cfg.MinAbsRetZ = 2.0
	}
	if cfg.MinRVol <= 0 {
		cfg.MinRVol = 2.0
	}
	return &Screener{source: source, cfg: cfg, metrics: metrics, l: l}
}

// ResolveRunDate returns the trading date to evaluate: the configured date
// when set, otherwise the latest date present in the curated prices.
func (s *Screener) ResolveRunDate(ctx context.Context) (time.Time, error) {
	if s.cfg.RunDate != "" {
		d, ok := util.ParseDay(s.cfg.RunDate)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid run date %q, want YYYY-MM-DD", s.cfg.RunDate)
		}
		return d, nil
	}
	return s.source.MaxDate(ctx)
}

// Run computes the ranked signal rows for the resolved run date, highest
// interestingness first, one row per symbol.
func (s *Screener) Run(ctx context.Context) ([]models.SignalRow, time.Time, error) {
	runDate, err := s.ResolveRunDate(ctx)
	if err != nil {
		s.metrics.RecordError("screener")
		return nil, time.Time{}, err
	}
	rows, err := s.RunAt(ctx, runDate)
	return rows, runDate, err
}

// RunAt computes the ranked signal rows for an explicit run date.
func (s *Screener) RunAt(ctx context.Context, runDate time.Time) ([]models.SignalRow, error) {
	start := time.Now()

	base, err := s.source.BaseRows(ctx, runDate)
	if err != nil {
		s.metrics.RecordError("screener")
		return nil, fmt.Errorf("base signal query: %w", err)
	}
	if len(base) == 0 {
		s.metrics.RecordError("screener")
		return nil, fmt.Errorf("no price rows for run date %s; check ingestion and the silver build", util.FormatDay(runDate))
	}

	rows := make([]models.SignalRow, 0, len(base))
	for _, b := range base {
		rows = append(rows, s.derive(b))
	}

	// Highest score first; symbol breaks ties so output order is stable.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	rows = dedupeBySymbol(rows)

	s.metrics.RecordSignalRows(len(rows))
	s.metrics.RecordDuration("screener", time.Since(start).Seconds())
	s.l.Info("screener run complete",
		applogger.String("run_date", util.FormatDay(runDate)),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return rows, nil
}

// derive computes the signal row for one symbol from its windowed base
// statistics. A statistic whose divisor is zero or whose window was empty
// stays null and contributes nothing to flags or the score.
func (s *Screener) derive(b models.SignalBase) models.SignalRow {
	row := models.SignalRow{
		Symbol:  b.Symbol,
		RunDate: b.Date,
		Open:    b.Open,
		High:    b.High,
		Low:     b.Low,
		Close:   b.Close,
		Volume:  b.Volume,
		SMA50:   b.SMA50,
		SMA200:  b.SMA200,
	}

	if b.CloseD2.Valid && b.CloseD2.Float64 != 0 {
		ret := b.Close/b.CloseD2.Float64 - 1
		row.Ret1D = &ret
	}

	if b.Close60Mean.Valid && b.Close60Std.Valid && b.Close60Std.Float64 != 0 {
		z := (b.Close - b.Close60Mean.Float64) / b.Close60Std.Float64
		row.ZRet1D = &z
	}

	if b.Vol60Median.Valid && b.Vol60Median.Float64 != 0 {
		rvol := b.Volume / b.Vol60Median.Float64
		row.RVol60 = &rvol
	}

	row.Is52wHigh = b.High252Max.Valid && b.High >= b.High252Max.Float64
	row.Is52wLow = b.Low252Min.Valid && b.Low <= b.Low252Min.Float64

	row.FlagLargeMove = row.ZRet1D != nil && math.Abs(*row.ZRet1D) >= s.cfg.MinAbsRetZ
	row.FlagHighRVol = row.RVol60 != nil && *row.RVol60 >= s.cfg.MinRVol
	row.Flag52wHigh = row.Is52wHigh && row.FlagHighRVol
	row.Flag52wLow = row.Is52wLow && row.FlagHighRVol

	above200 := b.Close > b.SMA200
	if b.Above200Prev.Valid {
		row.Flag200dCrossUp = !b.Above200Prev.Bool && above200
		row.Flag200dCrossDown = b.Above200Prev.Bool && !above200
	}

	for _, f := range []bool{
		row.FlagLargeMove, row.FlagHighRVol,
		row.Flag52wHigh, row.Flag52wLow,
		row.Flag200dCrossUp, row.Flag200dCrossDown,
	} {
		if f {
			row.EventFlagCount++
		}
	}

	var absZ, rvol float64
	if row.ZRet1D != nil {
		absZ = math.Abs(*row.ZRet1D)
	}
	if row.RVol60 != nil {
		rvol = *row.RVol60
	}
	row.Score = 0.5*math.Min(absZ, 4) + 0.3*math.Min(rvol, 5) + 0.2*float64(row.EventFlagCount)

	return row
}

// dedupeBySymbol keeps the first occurrence of each symbol; the input is
// already sorted best-first, so a duplicate keeps its highest-scoring row.
func dedupeBySymbol(rows []models.SignalRow) []models.SignalRow {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r)
	}
	return out
}
