package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"MarketRadar/internal/domain/models"
	"MarketRadar/internal/domain/repository"
	"MarketRadar/pkg/cache"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// Reporter builds the human-readable artifacts around a signal row: recent
// news (cached), a heuristic markdown summary, and a plain-text block a user
// can paste into an external LLM. No model is called here; sentiment is a
// keyword heuristic.
type Reporter struct {
	source  repository.MarketData
	cache   cache.Service
	ttl     time.Duration
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewReporter(source repository.MarketData, c cache.Service, ttl time.Duration, metrics repository.Metrics, l *applogger.Logger) *Reporter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Reporter{source: source, cache: c, ttl: ttl, metrics: metrics, l: l}
}

// News returns recent articles for a symbol, served from cache when fresh.
func (r *Reporter) News(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	key := fmt.Sprintf("news:%s:%d", strings.ToUpper(symbol), limit)

	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, key); err == nil {
			var articles []models.NewsArticle
			if err := json.Unmarshal([]byte(raw), &articles); err == nil {
				return articles, nil
			}
		}
	}

	articles, err := r.source.News(ctx, symbol, limit)
	if err != nil {
		r.metrics.RecordError("news_fetch")
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(articles); err == nil {
			if err := r.cache.Set(ctx, key, string(raw), r.ttl); err != nil {
				r.l.Warn("news cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
	}
	return articles, nil
}

var positiveKeywords = []string{
	"beat estimates", "beats estimates", "beat earnings", "beats earnings",
	"raises guidance", "raise guidance", "upgraded", "upgrade",
	"record", "strong", "surge", "rally",
	"buy rating", "overweight", "positive",
}

var negativeKeywords = []string{
	"misses estimates", "missed estimates", "miss earnings", "missed earnings",
	"cuts guidance", "cut guidance", "downgraded", "downgrade",
	"lawsuit", "probe", "investigation",
	"weak", "slump", "plunge",
	"sell rating", "underweight", "negative",
}

// classifySentiment scores a headline by keyword hits: >0 positive,
// <0 negative, 0 neutral.
func classifySentiment(title, text string) int {
	content := strings.ToLower(title + " " + text)
	score := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(content, kw) {
			score++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(content, kw) {
			score--
		}
	}
	return score
}

type scoredArticle struct {
	article   models.NewsArticle
	sentiment int
	published time.Time
}

func scoreArticles(articles []models.NewsArticle) (pos, neg, neu int, scored []scoredArticle) {
	for _, a := range articles {
		s := classifySentiment(a.Title, a.Text)
		switch {
		case s > 0:
			pos++
		case s < 0:
			neg++
		default:
			neu++
		}
		published, _ := util.ParseTime(a.PublishedDate)
		scored = append(scored, scoredArticle{article: a, sentiment: s, published: published})
	}

	// Newest first, then by sentiment magnitude.
	sort.SliceStable(scored, func(i, j int) bool {
		if !scored[i].published.Equal(scored[j].published) {
			return scored[i].published.After(scored[j].published)
		}
		return abs(scored[i].sentiment) > abs(scored[j].sentiment)
	})
	return pos, neg, neu, scored
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *v*100)
}

func formatFloat(v *float64, decimals int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func magnitudeLabel(z *float64) string {
	if z == nil {
		return "a move"
	}
	switch abs := math.Abs(*z); {
	case abs >= 4:
		return "an extreme move"
	case abs >= 2.5:
		return "a large move"
	case abs >= 1.5:
		return "a moderate move"
	case abs >= 0.5:
		return "a small move"
	default:
		return "a very small move"
	}
}

func technicalFlags(row models.SignalRow) []string {
	var flags []string
	if row.Is52wHigh {
		flags = append(flags, "reached a new 52-week high")
	}
	if row.Is52wLow {
		flags = append(flags, "hit a new 52-week low")
	}
	if row.Flag200dCrossUp {
		flags = append(flags, "crossed up through its 200-day moving average")
	}
	if row.Flag200dCrossDown {
		flags = append(flags, "crossed down through its 200-day moving average")
	}
	return flags
}

// Summarize renders a short markdown brief for one signal row: the move, its
// technical context, and the news skew with up to three notable headlines.
func (r *Reporter) Summarize(row models.SignalRow, articles []models.NewsArticle) string {
	var b strings.Builder

	flags := technicalFlags(row)
	flagsClause := ""
	if len(flags) == 1 {
		flagsClause = " and " + flags[0]
	} else if len(flags) > 1 {
		flagsClause = " and " + strings.Join(flags, "; ")
	}

	fmt.Fprintf(&b, "On **%s**, **%s** made %s: **%s (%sσ)** on **%s×** its 60-day median volume%s.",
		util.FormatDay(row.RunDate), row.Symbol, magnitudeLabel(row.ZRet1D),
		formatPct(row.Ret1D), formatFloat(row.ZRet1D, 2), formatFloat(row.RVol60, 1),
		flagsClause,
	)
	b.WriteString("\n\n")

	pos, neg, neu, scored := scoreArticles(articles)
	total := pos + neg + neu
	if total == 0 {
		b.WriteString("No recent headlines were available in the last few days.")
	} else {
		skew := "mixed"
		if pos > neg {
			skew = "positive"
		} else if neg > pos {
			skew = "negative"
		}
		plural := "s"
		if total == 1 {
			plural = ""
		}
		fmt.Fprintf(&b, "News flow over the last few days was **%s** (%d positive, %d negative, %d neutral headline%s).",
			skew, pos, neg, neu, plural)

		var notable []string
		for _, s := range scored {
			if s.article.Title == "" {
				continue
			}
			notable = append(notable, strings.TrimRight(s.article.Title, " .–—-"))
			if len(notable) == 3 {
				break
			}
		}
		if len(notable) > 0 {
			fmt.Fprintf(&b, " Notable themes include: %s.", strings.Join(notable, "; "))
		}
	}

	if len(flags) > 0 {
		b.WriteString("\n\n**Key technical context:**\n")
		for _, f := range flags {
			fmt.Fprintf(&b, "- %s\n", strings.ToUpper(f[:1])+f[1:])
		}
	}

	return b.String()
}

// BuildExportText renders the plain-text prompt block a user pastes into an
// external LLM: instructions, the price/signal context, then the articles.
func (r *Reporter) BuildExportText(row models.SignalRow, articles []models.NewsArticle) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	b.WriteString("INSTRUCTIONS FOR AI TOOL\n\n")
	b.WriteString("You are helping me write a daily stock market recap article.\n")
	b.WriteString("The article is part of a recurring series built on a tool called the \"S&P 500 Daily Anomaly Radar\".\n")
	b.WriteString("This tool scans the S&P 500 for unusual price and volume behavior and aggregates recent news headlines for each stock.\n\n")
	b.WriteString("Your job: Based on the price/volume context and the news articles below, write a concise, neutral explanation of what may have driven the move in this stock.\n\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- Do NOT give investment advice, recommendations, or price targets.\n")
	b.WriteString("- Do NOT claim certainty about causality; say things \"may have contributed\".\n")
	b.WriteString("- Assume the reader is a financially literate investor.\n")
	b.WriteString("- Focus on linking news themes to the price/volume move.\n\n")
	b.WriteString("Desired output:\n")
	b.WriteString("- 2-4 short paragraphs covering the price move, volume, and any key technical context (52-week highs/lows, 200-day moving average crosses).\n")
	b.WriteString("- Then describe the main themes from the recent news.\n\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("PRICE & SIGNAL CONTEXT\n")
	b.WriteString("----------------------\n")
	fmt.Fprintf(&b, "Symbol: %s\n", row.Symbol)
	fmt.Fprintf(&b, "Run date (trading day): %s\n", util.FormatDay(row.RunDate))
	if row.Ret1D != nil {
		fmt.Fprintf(&b, "1-day return: %+.4f (%s)\n", *row.Ret1D, formatPct(row.Ret1D))
	} else {
		b.WriteString("1-day return: n/a\n")
	}
	if row.ZRet1D != nil {
		fmt.Fprintf(&b, "1-day z-score (vs 60D closes): %.2f\n", *row.ZRet1D)
	} else {
		b.WriteString("1-day z-score: n/a\n")
	}
	if row.RVol60 != nil {
		fmt.Fprintf(&b, "Relative volume (vs 60D median): %.2fx\n", *row.RVol60)
	} else {
		b.WriteString("Relative volume: n/a\n")
	}

	if flags := technicalFlags(row); len(flags) > 0 {
		b.WriteString("Technical flags:\n")
		for _, f := range flags {
			fmt.Fprintf(&b, "  - %s\n", strings.ToUpper(f[:1])+f[1:])
		}
	} else {
		b.WriteString("Technical flags: none of the tracked events triggered.\n")
	}

	b.WriteString("\n" + rule + "\n\n")
	b.WriteString("NEWS ARTICLES (LAST FEW DAYS)\n")
	b.WriteString("-----------------------------\n")

	if len(articles) == 0 {
		b.WriteString("No recent news articles were retrieved for this symbol in the last few days. ")
		b.WriteString("Please explicitly mention that there was no obvious news catalyst, and that ")
		b.WriteString("the move may have been driven by broader market factors or positioning.\n")
	} else {
		for i, a := range articles {
			fmt.Fprintf(&b, "Article %d:\n", i+1)
			title := a.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Fprintf(&b, "  Title    : %s\n", title)
			if a.Site != "" {
				fmt.Fprintf(&b, "  Source   : %s\n", a.Site)
			}
			if a.PublishedDate != "" {
				fmt.Fprintf(&b, "  Published: %s\n", a.PublishedDate)
			}
			if a.URL != "" {
				fmt.Fprintf(&b, "  URL      : %s\n", a.URL)
			}
			if a.Text != "" {
				snippet := a.Text
				if len(snippet) > 1000 {
					snippet = snippet[:1000] + "..."
				}
				b.WriteString("  Snippet  :\n")
				for _, line := range strings.Split(snippet, "\n") {
					fmt.Fprintf(&b, "    %s\n", line)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("Use these articles to infer the main themes (e.g., earnings results, guidance changes, product launches, regulatory issues, analyst upgrades/downgrades, macro commentary, etc.).\n")
	}

	b.WriteString("\n" + rule + "\n\n")
	b.WriteString("Now, please write the summary as described in the constraints above.\n")

	return b.String()
}
