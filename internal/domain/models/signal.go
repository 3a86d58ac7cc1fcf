package models

import (
	"database/sql"
	"time"
)

// SignalBase is one row of the windowed base-statistics query over
// silver_price_daily, restricted to the run date. All rolling windows except
// the SMAs exclude the current day; the SMAs include it. Nullable columns are
// null when the window had no prior observations.
type SignalBase struct {
	Symbol string
	Date   time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	CloseD2  sql.NullFloat64 // previous trading day's close
	VolumeD2 sql.NullFloat64

	SMA50  float64 // 50 rows ending at current
	SMA200 float64 // 200 rows ending at current

	Close60Mean sql.NullFloat64 // 60 rows ending at previous
	Close60Std  sql.NullFloat64 // population stddev, same window
	Vol60Median sql.NullFloat64

	High252Max sql.NullFloat64 // 252 rows ending at previous
	Low252Min  sql.NullFloat64

	Above200Prev sql.NullBool // close > sma_200 on the previous trading day
}

// SignalRow is one ranked screener row for (Symbol, RunDate). Pointer fields
// are null when the statistic is undefined (zero divisor or empty window);
// null inputs contribute zero to the score.
type SignalRow struct {
	Symbol  string    `json:"symbol"`
	RunDate time.Time `json:"run_date"`

	Open   float64 `json:"open_d1"`
	High   float64 `json:"high_d1"`
	Low    float64 `json:"low_d1"`
	Close  float64 `json:"close_d1"`
	Volume float64 `json:"volume_d1"`

	SMA50  float64 `json:"sma_50"`
	SMA200 float64 `json:"sma_200"`

	Ret1D  *float64 `json:"ret_1d"`
	ZRet1D *float64 `json:"z_ret_1d"`
	RVol60 *float64 `json:"rvol_60"`

	Is52wHigh bool `json:"is_52w_high"`
	Is52wLow  bool `json:"is_52w_low"`

	FlagLargeMove     bool `json:"flag_large_move"`
	FlagHighRVol      bool `json:"flag_high_rvol"`
	Flag52wHigh       bool `json:"flag_52w_high"`
	Flag52wLow        bool `json:"flag_52w_low"`
	Flag200dCrossUp   bool `json:"flag_200d_cross_up"`
	Flag200dCrossDown bool `json:"flag_200d_cross_down"`

	EventFlagCount int     `json:"event_flag_count"`
	Score          float64 `json:"interestingness_score"`
}
