package repository

import (
	"reflect"
	"testing"
	"time"

	"MarketRadar/internal/domain/models"
)

func tradingDay(n int) time.Time {
	return time.Date(2025, 8, n, 0, 0, 0, 0, time.UTC)
}

func bronzeRow(symbol string, date time.Time, close float64, batch string, at time.Time) models.RawPriceRow {
	return models.RawPriceRow{
		PriceBar: models.PriceBar{
			Symbol: symbol,
			Date:   date,
			Open:   close - 1,
			High:   close + 1,
			Low:    close - 2,
			Close:  close,
			Volume: 1000,
		},
		IngestionDate: batch,
		IngestedAt:    at,
	}
}

func TestDedupePriceRowsLatestBatchWins(t *testing.T) {
	day := tradingDay(18)
	rows := []models.RawPriceRow{
		bronzeRow("AAA", day, 100, "2025-08-20", time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)),
		bronzeRow("AAA", day, 101, "2025-08-21", time.Date(2025, 8, 21, 6, 0, 0, 0, time.UTC)),
		bronzeRow("BBB", day, 50, "2025-08-20", time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)),
	}

	got := DedupePriceRows(rows)
	if len(got) != 2 {
		t.Fatalf("expected one row per (symbol, date), got %d rows", len(got))
	}
	if got[0].Symbol != "AAA" || got[0].Close != 101 {
		t.Fatalf("expected AAA from the newest batch (close 101), got %+v", got[0])
	}
	if got[1].Symbol != "BBB" || got[1].Close != 50 {
		t.Fatalf("row present in only one batch must survive, got %+v", got[1])
	}
}

func TestDedupePriceRowsIngestedAtBreaksTies(t *testing.T) {
	day := tradingDay(18)
	rows := []models.RawPriceRow{
		bronzeRow("AAA", day, 100, "2025-08-21", time.Date(2025, 8, 21, 6, 0, 0, 0, time.UTC)),
		bronzeRow("AAA", day, 102, "2025-08-21", time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC)),
	}

	got := DedupePriceRows(rows)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Close != 102 {
		t.Fatalf("within one ingestion_date the latest ingested_at must win, got close %v", got[0].Close)
	}
}

func TestDedupePriceRowsKeepsDistinctDates(t *testing.T) {
	rows := []models.RawPriceRow{
		bronzeRow("AAA", tradingDay(18), 100, "2025-08-20", time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)),
		bronzeRow("AAA", tradingDay(19), 103, "2025-08-20", time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)),
	}

	got := DedupePriceRows(rows)
	if len(got) != 2 {
		t.Fatalf("distinct dates must not collapse, got %d rows", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Fatalf("output must be ordered by (symbol, date): %v vs %v", got[0].Date, got[1].Date)
	}
}

func TestDedupePriceRowsRebuildIsIdempotent(t *testing.T) {
	rows := []models.RawPriceRow{
		bronzeRow("AAA", tradingDay(18), 100, "2025-08-20", time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)),
		bronzeRow("AAA", tradingDay(18), 101, "2025-08-21", time.Date(2025, 8, 21, 6, 0, 0, 0, time.UTC)),
		bronzeRow("BBB", tradingDay(18), 50, "2025-08-21", time.Date(2025, 8, 21, 6, 0, 0, 0, time.UTC)),
		bronzeRow("BBB", tradingDay(19), 51, "2025-08-21", time.Date(2025, 8, 21, 6, 5, 0, 0, time.UTC)),
	}

	first := DedupePriceRows(rows)
	second := DedupePriceRows(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rebuild over fixed bronze must be deterministic:\n%+v\nvs\n%+v", first, second)
	}

	// Bronze insertion order is an artifact of ingestion; it must not change
	// the curated result.
	reversed := make([]models.RawPriceRow, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		reversed = append(reversed, rows[i])
	}
	if got := DedupePriceRows(reversed); !reflect.DeepEqual(first, got) {
		t.Fatalf("row order must not affect the curated result:\n%+v\nvs\n%+v", first, got)
	}
}
