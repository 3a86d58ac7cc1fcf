package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"MarketRadar/internal/di"
	"MarketRadar/pkg/config"
	"MarketRadar/pkg/util"
)

var (
	configPath  string
	signalsDate string
	signalsTop  int
)

var rootCmd = &cobra.Command{
	Use:   "marketradar",
	Short: "S&P 500 daily anomaly screener",
	Long: `MarketRadar ingests S&P 500 constituent and daily price data into a
bronze/silver ClickHouse layout, computes windowed anomaly signals per symbol
per trading day, and serves a ranked view with news summaries over HTTP.`,
}

var ingestUniverseCmd = &cobra.Command{
	Use:   "ingest-universe",
	Short: "Snapshot the current S&P 500 membership into bronze",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p *di.Pipeline) error {
			n, err := p.Universe.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d universe rows\n", n)
			return nil
		})
	},
}

var ingestPricesCmd = &cobra.Command{
	Use:   "ingest-prices",
	Short: "Ingest daily price history for the latest universe into bronze",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p *di.Pipeline) error {
			symbols, rows, err := p.Prices.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d rows across %d symbols\n", rows, symbols)
			return nil
		})
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the silver tables from bronze",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p *di.Pipeline) error {
			universeRows, priceRows, err := p.Builder.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("silver_universe: %d rows\nsilver_price_daily: %d rows\n", universeRows, priceRows)
			return nil
		})
	},
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Compute and print the ranked signal table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p *di.Pipeline) error {
			runDate, err := p.Screener.ResolveRunDate(ctx)
			if err != nil {
				return err
			}
			if signalsDate != "" {
				d, ok := util.ParseDay(signalsDate)
				if !ok {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", signalsDate)
				}
				runDate = d
			}

			rows, err := p.Screener.RunAt(ctx, runDate)
			if err != nil {
				return err
			}
			if signalsTop > 0 && signalsTop < len(rows) {
				rows = rows[:signalsTop]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SYMBOL\tCLOSE\tRET_1D\tZ\tRVOL\tFLAGS\tSCORE\n")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\t%d\t%.3f\n",
					r.Symbol, r.Close,
					fmtPtr(r.Ret1D, "%+.4f"), fmtPtr(r.ZRet1D, "%+.2f"), fmtPtr(r.RVol60, "%.2f"),
					r.EventFlagCount, r.Score,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d symbols for %s\n", len(rows), util.FormatDay(runDate))
			return nil
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the full pipeline: ingest universe and prices, rebuild silver",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p *di.Pipeline) error {
			res, err := p.Refresher.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("refresh complete: %d universe rows, %d price rows (%d symbols), silver %d/%d, took %s\n",
				res.UniverseRows, res.PriceRows, res.SymbolsOK,
				res.SilverUniverse, res.SilverPrices, res.Duration.Round(time.Second))
			return nil
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := di.InitializeApp(cfg)
		if err != nil {
			return err
		}
		return app.Run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to configuration file")

	signalsCmd.Flags().StringVar(&signalsDate, "date", "", "Run date (YYYY-MM-DD); defaults to the latest curated date")
	signalsCmd.Flags().IntVar(&signalsTop, "top", 25, "Print only the top N rows (0 = all)")

	rootCmd.AddCommand(ingestUniverseCmd)
	rootCmd.AddCommand(ingestPricesCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithEnv(configPath)
}

func withPipeline(fn func(context.Context, *di.Pipeline) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := di.InitializePipeline(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	return fn(context.Background(), p)
}

func fmtPtr(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
