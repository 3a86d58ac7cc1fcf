package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketRadar/internal/domain/models"
	applogger "MarketRadar/pkg/logger"
)

// nopMetrics satisfies the metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordSymbolFetched(bool)       {}
func (nopMetrics) RecordRowsIngested(string, int) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordDuration(string, float64) {}
func (nopMetrics) RecordRefresh(float64)          {}
func (nopMetrics) RecordSignalRows(int)           {}

func newTestLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

// memSignalSource computes the windowed base statistics in memory over
// chronologically sorted bars, matching the analytical query's framing:
// SMAs include the current row, every other window ends at the previous row.
type memSignalSource struct {
	bars map[string][]models.PriceBar
}

func (m *memSignalSource) MaxDate(_ context.Context) (time.Time, error) {
	var max time.Time
	for _, bars := range m.bars {
		for _, b := range bars {
			if b.Date.After(max) {
				max = b.Date
			}
		}
	}
	if max.IsZero() {
		return time.Time{}, fmt.Errorf("silver_price_daily is empty; run the silver build first")
	}
	return max, nil
}

func (m *memSignalSource) BaseRows(_ context.Context, runDate time.Time) ([]models.SignalBase, error) {
	var out []models.SignalBase
	for sym, bars := range m.bars {
		sorted := append([]models.PriceBar(nil), bars...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		for i, b := range sorted {
			if !b.Date.Equal(runDate) {
				continue
			}
			out = append(out, baseAt(sym, sorted, i))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func baseAt(symbol string, bars []models.PriceBar, i int) models.SignalBase {
	cur := bars[i]
	base := models.SignalBase{
		Symbol: symbol,
		Date:   cur.Date,
		Open:   cur.Open,
		High:   cur.High,
		Low:    cur.Low,
		Close:  cur.Close,
		Volume: cur.Volume,
		SMA50:  meanClose(bars[maxInt(0, i-49) : i+1]),
		SMA200: meanClose(bars[maxInt(0, i-199) : i+1]),
	}
	if i == 0 {
		return base
	}

	prev := bars[i-1]
	base.CloseD2 = sql.NullFloat64{Float64: prev.Close, Valid: true}
	base.VolumeD2 = sql.NullFloat64{Float64: prev.Volume, Valid: true}

	win60 := bars[maxInt(0, i-59):i]
	base.Close60Mean = sql.NullFloat64{Float64: meanClose(win60), Valid: true}
	base.Close60Std = sql.NullFloat64{Float64: stddevPopClose(win60), Valid: true}
	base.Vol60Median = sql.NullFloat64{Float64: medianVolume(win60), Valid: true}

	win252 := bars[maxInt(0, i-251):i]
	hi, lo := win252[0].High, win252[0].Low
	for _, b := range win252[1:] {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	base.High252Max = sql.NullFloat64{Float64: hi, Valid: true}
	base.Low252Min = sql.NullFloat64{Float64: lo, Valid: true}

	prevSMA200 := meanClose(bars[maxInt(0, i-1-199) : i])
	base.Above200Prev = sql.NullBool{Bool: prev.Close > prevSMA200, Valid: true}
	return base
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func meanClose(bars []models.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}

func stddevPopClose(bars []models.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	mean := meanClose(bars)
	var sum float64
	for _, b := range bars {
		d := b.Close - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(bars)))
}

func medianVolume(bars []models.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	sort.Float64s(vols)
	n := len(vols)
	if n%2 == 1 {
		return vols[n/2]
	}
	return (vols[n/2-1] + vols[n/2]) / 2
}

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// risingBars builds n chronological bars with close rising linearly from
// start by step, constant volume.
func risingBars(symbol string, n int, start, step, volume float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		c := start + float64(i)*step
		bars[i] = models.PriceBar{
			Symbol: symbol,
			Date:   day(i),
			Open:   c - 0.2,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func newTestScreener(src *memSignalSource, runDate string) *Screener {
	return NewScreener(src, ScreenerConfig{RunDate: runDate, MinAbsRetZ: 2.0, MinRVol: 2.0}, nopMetrics{}, newTestLogger())
}

func TestScreenerRisingSeries(t *testing.T) {
	// 70 bars rising 100 -> 169: one row, positive return and z-score, a
	// fresh 52-week high, positive score.
	src := &memSignalSource{bars: map[string][]models.PriceBar{
		"AAA": risingBars("AAA", 70, 100, 1, 1000),
	}}
	s := newTestScreener(src, "")

	rows, runDate, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, day(69), runDate)

	row := rows[0]
	assert.Equal(t, "AAA", row.Symbol)
	require.NotNil(t, row.Ret1D)
	assert.Greater(t, *row.Ret1D, 0.0)
	require.NotNil(t, row.ZRet1D)
	assert.Greater(t, *row.ZRet1D, 0.0)
	assert.True(t, row.Is52wHigh)
	assert.False(t, row.Is52wLow)
	assert.Greater(t, row.Score, 0.0)
}

func TestScreenerConstantSeriesZIsNull(t *testing.T) {
	bars := risingBars("BBB", 70, 100, 0, 1000) // constant closes
	src := &memSignalSource{bars: map[string][]models.PriceBar{"BBB": bars}}
	s := newTestScreener(src, "")

	rows, _, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ZRet1D, "zero stddev must yield null z, not a divide")
	assert.False(t, rows[0].FlagLargeMove)
}

func TestScreenerZeroVolumeMedianRVolIsNull(t *testing.T) {
	bars := risingBars("CCC", 70, 100, 1, 0) // all volumes zero
	src := &memSignalSource{bars: map[string][]models.PriceBar{"CCC": bars}}
	s := newTestScreener(src, "")

	rows, _, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].RVol60)
	assert.False(t, rows[0].FlagHighRVol)
}

func TestScreenerNoRowsForRunDate(t *testing.T) {
	src := &memSignalSource{bars: map[string][]models.PriceBar{
		"AAA": risingBars("AAA", 10, 100, 1, 1000),
	}}
	// Pin a date no bar trades on.
	s := newTestScreener(src, "2030-01-01")

	_, _, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price rows for run date")
}

func TestScreenerEmptySource(t *testing.T) {
	s := newTestScreener(&memSignalSource{bars: map[string][]models.PriceBar{}}, "")
	_, _, err := s.Run(context.Background())
	require.Error(t, err)
}

func TestScreenerInvalidRunDate(t *testing.T) {
	s := newTestScreener(&memSignalSource{}, "not-a-date")
	_, _, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run date")
}

func TestScreenerRanksByScoreDescending(t *testing.T) {
	quiet := risingBars("QUI", 70, 100, 0.01, 1000)

	// Loud symbol: flat for 69 days, then a big close and volume spike.
	loud := risingBars("LOU", 70, 100, 0.05, 1000)
	loud[69].Close = 130
	loud[69].High = 131
	loud[69].Volume = 10000

	src := &memSignalSource{bars: map[string][]models.PriceBar{"QUI": quiet, "LOU": loud}}
	s := newTestScreener(src, "")

	rows, _, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "LOU", rows[0].Symbol)
	assert.GreaterOrEqual(t, rows[0].Score, rows[1].Score)
	assert.True(t, rows[0].FlagLargeMove)
	assert.True(t, rows[0].FlagHighRVol)
}

func TestDeriveEventFlagCount(t *testing.T) {
	s := newTestScreener(&memSignalSource{}, "")

	valid := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

	// Large up move with volume spike onto a new high: large_move,
	// high_rvol, 52w_high, cross_up.
	b := models.SignalBase{
		Symbol: "DDD", Date: day(0),
		High: 131, Low: 129, Close: 130, Volume: 10000,
		CloseD2:      valid(100),
		SMA200:       120,
		Close60Mean:  valid(100),
		Close60Std:   valid(2),
		Vol60Median:  valid(1000),
		High252Max:   valid(110),
		Low252Min:    valid(90),
		Above200Prev: sql.NullBool{Bool: false, Valid: true},
	}

	row := s.derive(b)
	assert.True(t, row.FlagLargeMove)
	assert.True(t, row.FlagHighRVol)
	assert.True(t, row.Flag52wHigh)
	assert.False(t, row.Flag52wLow)
	assert.True(t, row.Flag200dCrossUp)
	assert.False(t, row.Flag200dCrossDown)
	assert.Equal(t, 4, row.EventFlagCount)

	// Score caps: |z| clipped at 4, rvol at 5.
	want := 0.5*4 + 0.3*5 + 0.2*4
	assert.InDelta(t, want, row.Score, 1e-9)
}

func TestDeriveCrossDown(t *testing.T) {
	s := newTestScreener(&memSignalSource{}, "")

	b := models.SignalBase{
		Symbol: "EEE", Date: day(0),
		High: 101, Low: 99, Close: 100, Volume: 500,
		SMA200:       110,
		Above200Prev: sql.NullBool{Bool: true, Valid: true},
	}
	row := s.derive(b)
	assert.True(t, row.Flag200dCrossDown)
	assert.False(t, row.Flag200dCrossUp)
}

func TestDeriveNullWindowsContributeNothing(t *testing.T) {
	s := newTestScreener(&memSignalSource{}, "")

	// First row of a symbol's history: every lookback window is empty.
	b := models.SignalBase{
		Symbol: "FFF", Date: day(0),
		High: 101, Low: 99, Close: 100, Volume: 500,
		SMA50: 100, SMA200: 100,
	}
	row := s.derive(b)
	assert.Nil(t, row.Ret1D)
	assert.Nil(t, row.ZRet1D)
	assert.Nil(t, row.RVol60)
	assert.False(t, row.Is52wHigh)
	assert.False(t, row.Is52wLow)
	assert.Equal(t, 0, row.EventFlagCount)
	assert.Equal(t, 0.0, row.Score)
}

func TestDeriveScoreMonotoneInFlagCount(t *testing.T) {
	s := newTestScreener(&memSignalSource{}, "")
	valid := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

	base := models.SignalBase{
		Symbol: "GGG", Date: day(0),
		High: 101, Low: 99, Close: 100, Volume: 1000,
		CloseD2:     valid(100),
		SMA200:      90,
		Close60Mean: valid(100),
		Close60Std:  valid(10),
		Vol60Median: valid(1000),
	}
	noFlags := s.derive(base)

	flagged := base
	flagged.Above200Prev = sql.NullBool{Bool: false, Valid: true} // cross up
	withFlag := s.derive(flagged)

	assert.Equal(t, noFlags.EventFlagCount+1, withFlag.EventFlagCount)
	assert.Greater(t, withFlag.Score, noFlags.Score)
	assert.GreaterOrEqual(t, noFlags.Score, 0.0)
}

func TestDedupeBySymbolKeepsFirst(t *testing.T) {
	rows := []models.SignalRow{
		{Symbol: "AAA", Score: 3},
		{Symbol: "BBB", Score: 2},
		{Symbol: "AAA", Score: 1},
	}
	out := dedupeBySymbol(rows)
	require.Len(t, out, 2)
	assert.Equal(t, 3.0, out[0].Score)
	assert.Equal(t, "BBB", out[1].Symbol)
}
