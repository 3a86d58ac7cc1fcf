package di

import (
	"context"
	"fmt"
	"time"

	"MarketRadar/internal/domain/repository"
	"MarketRadar/internal/handler/api"
	internalrepo "MarketRadar/internal/repository"
	"MarketRadar/internal/service/fmp"
	"MarketRadar/internal/service/ratelimit"
	"MarketRadar/internal/usecase"
	"MarketRadar/pkg/cache"
	pkgch "MarketRadar/pkg/clickhouse"
	"MarketRadar/pkg/config"
	xhttp "MarketRadar/pkg/http"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/metrics"
	"MarketRadar/pkg/server"
)

// Pipeline bundles the use cases the CLI subcommands drive directly,
// without the HTTP server.
type Pipeline struct {
	Cfg       *config.Config
	Logger    *applogger.Logger
	CH        *pkgch.Client
	Universe  *usecase.UniverseIngestor
	Prices    *usecase.PriceIngestor
	Builder   *usecase.CuratedBuilder
	Screener  *usecase.Screener
	Reporter  *usecase.Reporter
	Refresher *usecase.Refresher
}

// Close releases the pipeline's infrastructure clients.
func (p *Pipeline) Close() error {
	if p.CH != nil {
		return p.CH.Close()
	}
	return nil
}

// ProvideLogger creates the application logger with the in-memory
// warn/error collector attached.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{MaxEntries: 200})
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the bronze
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the sliding-window limiter shared by every
// upstream call.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.SlidingWindow {
	return ratelimit.New(cfg.FMP.RateLimitPerMinute, time.Minute)
}

// ProvideMarketData creates the FMP client.
func ProvideMarketData(cfg *config.Config, limiter *ratelimit.SlidingWindow, l *applogger.Logger) (repository.MarketData, error) {
	return fmp.New(cfg.FMP.APIKey, cfg.FMP.BaseURL, limiter, cfg.FMP.Timeout, l)
}

// ProvideRawStore creates the bronze-layer store.
func ProvideRawStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.RawStore {
	return internalrepo.NewCHRawStore(ch, cfg.ClickHouse.Database, l)
}

// ProvideCuratedStore creates the silver-layer store.
func ProvideCuratedStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.CuratedStore {
	return internalrepo.NewCHCuratedStore(ch, cfg.ClickHouse.Database, l)
}

// ProvideSignalSource creates the windowed base-statistics source.
func ProvideSignalSource(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.SignalSource {
	return internalrepo.NewCHSignalSource(ch, cfg.ClickHouse.Database, l)
}

// ProvideCache creates the news cache: layered memory+redis when redis is
// enabled, plain memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			l.Warn("redis unavailable, falling back to memory cache", applogger.Error(err))
		} else {
			return cache.NewLayeredCache(rc, 1000)
		}
	}
	return cache.NewMemoryCache(1000)
}

// ProvideUniverseIngestor creates the universe ingestion use case.
func ProvideUniverseIngestor(md repository.MarketData, rs repository.RawStore, m repository.Metrics, l *applogger.Logger) *usecase.UniverseIngestor {
	return usecase.NewUniverseIngestor(md, rs, m, l)
}

// ProvidePriceIngestor creates the price ingestion use case.
func ProvidePriceIngestor(md repository.MarketData, rs repository.RawStore, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.PriceIngestor {
	return usecase.NewPriceIngestor(md, rs, m, cfg.Screener.MaxWorkers, l)
}

// ProvideCuratedBuilder creates the silver build use case.
func ProvideCuratedBuilder(cs repository.CuratedStore, m repository.Metrics, l *applogger.Logger) *usecase.CuratedBuilder {
	return usecase.NewCuratedBuilder(cs, m, l)
}

// ProvideScreener creates the signal engine.
func ProvideScreener(src repository.SignalSource, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Screener {
	return usecase.NewScreener(src, usecase.ScreenerConfig{
		RunDate:    cfg.Screener.RunDate,
		MinAbsRetZ: cfg.Screener.MinAbsRetZ,
		MinRVol:    cfg.Screener.MinRVol,
	}, m, l)
}

// ProvideReporter creates the news/summary/export use case.
func ProvideReporter(md repository.MarketData, c cache.Service, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Reporter {
	return usecase.NewReporter(md, c, cfg.Screener.NewsCacheTTL, m, l)
}

// ProvideRefresher creates the exclusive full-pipeline runner.
func ProvideRefresher(u *usecase.UniverseIngestor, p *usecase.PriceIngestor, b *usecase.CuratedBuilder, m repository.Metrics, l *applogger.Logger) *usecase.Refresher {
	return usecase.NewRefresher(u, p, b, m, l)
}

// ProvideHandler creates the Echo API handler.
func ProvideHandler(
	s *usecase.Screener,
	r *usecase.Reporter,
	rf *usecase.Refresher,
	cs repository.CuratedStore,
	ch *pkgch.Client,
	cfg *config.Config,
	l *applogger.Logger,
) xhttp.Handler {
	return api.NewScreenerHandler(s, r, rf, cs, ch, cfg.Screener.NewsLimit, l)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, ch *pkgch.Client, h xhttp.Handler) *server.App {
	return server.New(cfg, l, ch, h)
}

// ProvidePipeline bundles the use cases for CLI-driven runs.
func ProvidePipeline(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	u *usecase.UniverseIngestor,
	p *usecase.PriceIngestor,
	b *usecase.CuratedBuilder,
	s *usecase.Screener,
	r *usecase.Reporter,
	rf *usecase.Refresher,
) *Pipeline {
	return &Pipeline{
		Cfg:       cfg,
		Logger:    l,
		CH:        ch,
		Universe:  u,
		Prices:    p,
		Builder:   b,
		Screener:  s,
		Reporter:  r,
		Refresher: rf,
	}
}
