package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketRadar/internal/service/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("test-key", srv.URL, ratelimit.New(1000, time.Minute), 5*time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestDailyHistoryBareListShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("apikey not injected")
		}
		if r.URL.Query().Get("symbol") != "AAA" {
			t.Errorf("symbol param missing")
		}
		_, _ = w.Write([]byte(`[
			{"date":"2025-01-03","open":101,"high":102,"low":100,"close":101.5,"adjClose":101.0,"volume":1200},
			{"date":"2025-01-02","open":100,"high":101,"low":99,"close":100.5,"adjClose":100.1,"volume":1000}
		]`))
	})

	bars, err := c.DailyHistory(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	// Chronological order regardless of upstream ordering.
	if !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("bars not chronological: %v then %v", bars[0].Date, bars[1].Date)
	}
	if bars[0].AdjClose != 100.1 {
		t.Fatalf("adjClose not taken: %v", bars[0].AdjClose)
	}
}

func TestDailyHistoryWrappedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"AAA","historical":[
			{"date":"2025-01-02","open":100,"high":101,"low":99,"close":100.5,"volume":1000}
		]}`))
	})

	bars, err := c.DailyHistory(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	// No adjClose upstream: falls back to close.
	if bars[0].AdjClose != 100.5 {
		t.Fatalf("adjClose fallback not applied: %v", bars[0].AdjClose)
	}
}

func TestDailyHistoryDropsRecordsMissingClose(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"date":"2025-01-02","open":100,"high":101,"low":99,"volume":1000},
			{"date":"2025-01-03","open":101,"high":102,"low":100,"close":101.5,"volume":1100}
		]`))
	})

	bars, err := c.DailyHistory(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected record without close dropped, got %d bars", len(bars))
	}
}

func TestDailyHistoryEmptyIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := c.DailyHistory(context.Background(), "AAA"); err == nil {
		t.Fatalf("expected error for empty history")
	}
}

func TestConstituents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol":"AAA","name":"AAA Corp","sector":"Tech","subSector":"Software"},
			{"symbol":"","name":"ghost"}
		]`))
	})

	members, err := c.Constituents(context.Background())
	if err != nil {
		t.Fatalf("constituents: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected blank symbol dropped, got %d", len(members))
	}
	if !members[0].IsActive || members[0].SubSector != "Software" {
		t.Fatalf("unexpected member: %+v", members[0])
	}
}

func TestNews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit param missing")
		}
		_, _ = w.Write([]byte(`[{"title":"AAA beats estimates","text":"...","site":"wire","url":"http://x","publishedDate":"2025-01-02 10:00:00"}]`))
	})

	articles, err := c.News(context.Background(), "AAA", 5)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if len(articles) != 1 || articles[0].Title == "" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", "http://x", ratelimit.New(1, time.Minute), time.Second, nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
