package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"MarketRadar/internal/domain/models"
	"MarketRadar/pkg/cache"
)

func TestClassifySentiment(t *testing.T) {
	cases := []struct {
		title string
		text  string
		want  int // sign only
	}{
		{"ACME beats estimates, raises guidance", "", 2},
		{"ACME downgraded after weak quarter", "", -2},
		{"ACME announces annual shareholder meeting", "", 0},
		{"Record quarter but lawsuit looms", "", 0},
		{"Analyst issues buy rating", "shares surge on strong demand", 3},
	}
	for _, tc := range cases {
		got := classifySentiment(tc.title, tc.text)
		switch {
		case tc.want > 0 && got <= 0:
			t.Errorf("%q: expected positive, got %d", tc.title, got)
		case tc.want < 0 && got >= 0:
			t.Errorf("%q: expected negative, got %d", tc.title, got)
		case tc.want == 0 && got != 0:
			t.Errorf("%q: expected neutral, got %d", tc.title, got)
		}
	}
}

func signalRowForReport() models.SignalRow {
	ret := 0.083
	z := 3.1
	rvol := 4.2
	return models.SignalRow{
		Symbol:  "AAA",
		RunDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Close:   130, High: 131, Low: 128, Volume: 9000,
		Ret1D: &ret, ZRet1D: &z, RVol60: &rvol,
		Is52wHigh:     true,
		FlagLargeMove: true, FlagHighRVol: true, Flag52wHigh: true,
		EventFlagCount: 3, Score: 4.1,
	}
}

func TestSummarizeMentionsMoveFlagsAndSkew(t *testing.T) {
	r := NewReporter(&fakeMarketData{}, nil, time.Minute, nopMetrics{}, newTestLogger())

	articles := []models.NewsArticle{
		{Title: "AAA beats estimates", Text: "strong quarter", PublishedDate: "2025-06-02 09:30:00"},
		{Title: "AAA rally continues", PublishedDate: "2025-06-01 15:00:00"},
		{Title: "AAA schedules investor day", PublishedDate: "2025-05-30 10:00:00"},
	}

	out := r.Summarize(signalRowForReport(), articles)

	for _, want := range []string{
		"2025-06-02",
		"**AAA**",
		"a large move",
		"+8.30%",
		"52-week high",
		"**positive**",
		"2 positive, 0 negative, 1 neutral",
		"AAA beats estimates",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeWithoutNews(t *testing.T) {
	r := NewReporter(&fakeMarketData{}, nil, time.Minute, nopMetrics{}, newTestLogger())
	out := r.Summarize(signalRowForReport(), nil)
	if !strings.Contains(out, "No recent headlines were available") {
		t.Fatalf("expected no-headlines clause:\n%s", out)
	}
}

func TestSummarizeNullStatsRenderNA(t *testing.T) {
	r := NewReporter(&fakeMarketData{}, nil, time.Minute, nopMetrics{}, newTestLogger())
	row := models.SignalRow{Symbol: "BBB", RunDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)}
	out := r.Summarize(row, nil)
	if !strings.Contains(out, "n/a") {
		t.Fatalf("null statistics should render as n/a:\n%s", out)
	}
}

func TestBuildExportTextSections(t *testing.T) {
	r := NewReporter(&fakeMarketData{}, nil, time.Minute, nopMetrics{}, newTestLogger())

	articles := []models.NewsArticle{
		{Title: "AAA beats estimates", Site: "wire", URL: "http://example.com/a", PublishedDate: "2025-06-02 09:30:00", Text: "details"},
	}
	out := r.BuildExportText(signalRowForReport(), articles)

	for _, want := range []string{
		"INSTRUCTIONS FOR AI TOOL",
		"PRICE & SIGNAL CONTEXT",
		"Symbol: AAA",
		"Run date (trading day): 2025-06-02",
		"1-day z-score (vs 60D closes): 3.10",
		"Relative volume (vs 60D median): 4.20x",
		"Reached a new 52-week high",
		"NEWS ARTICLES (LAST FEW DAYS)",
		"Article 1:",
		"Title    : AAA beats estimates",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestBuildExportTextNoArticles(t *testing.T) {
	r := NewReporter(&fakeMarketData{}, nil, time.Minute, nopMetrics{}, newTestLogger())
	out := r.BuildExportText(signalRowForReport(), nil)
	if !strings.Contains(out, "no obvious news catalyst") {
		t.Fatalf("expected explicit no-catalyst instruction")
	}
}

func TestNewsIsCached(t *testing.T) {
	source := &fakeMarketData{news: map[string][]models.NewsArticle{
		"AAA": {{Title: "first fetch"}},
	}}
	mem := cache.NewMemoryCache(16)
	r := NewReporter(source, mem, time.Minute, nopMetrics{}, newTestLogger())

	first, err := r.News(context.Background(), "AAA", 10)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 article, got %d", len(first))
	}

	// Mutate the source; a cached read must not see it.
	source.news["AAA"] = []models.NewsArticle{{Title: "second fetch"}}
	second, err := r.News(context.Background(), "AAA", 10)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if second[0].Title != "first fetch" {
		t.Fatalf("expected cached article, got %q", second[0].Title)
	}
}
