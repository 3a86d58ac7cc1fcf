package models

import "time"

// PriceBar is one daily OHLCV bar. Natural key is (Symbol, Date); the silver
// table holds at most one bar per key.
type PriceBar struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`
}

// RawPriceRow is a bronze price row: a bar as ingested, tagged with its batch.
// Bronze is append-only; the same (symbol, date) may appear in many batches
// and the silver build keeps the row with the greatest (IngestionDate,
// IngestedAt).
type RawPriceRow struct {
	PriceBar
	IngestionDate string
	IngestedAt    time.Time
}
