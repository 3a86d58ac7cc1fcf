package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketRadar/internal/domain/models"
	"MarketRadar/internal/domain/repository"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// UniverseIngestor snapshots the current S&P 500 membership into bronze.
// Every run appends a full snapshot tagged with today's ingestion date;
// nothing is ever updated in place.
type UniverseIngestor struct {
	source  repository.MarketData
	store   repository.RawStore
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewUniverseIngestor(source repository.MarketData, store repository.RawStore, metrics repository.Metrics, l *applogger.Logger) *UniverseIngestor {
	return &UniverseIngestor{source: source, store: store, metrics: metrics, l: l}
}

// Run fetches the constituents and appends one bronze snapshot. Returns the
// number of rows written.
func (u *UniverseIngestor) Run(ctx context.Context) (int, error) {
	start := time.Now()

	members, err := u.source.Constituents(ctx)
	if err != nil {
		u.metrics.RecordError("ingest_universe")
		return 0, fmt.Errorf("fetch universe: %w", err)
	}
	if len(members) == 0 {
		u.metrics.RecordError("ingest_universe")
		return 0, fmt.Errorf("universe fetch returned no constituents")
	}

	ingestionDate := util.Today()
	ingestedAt := time.Now().UTC()

	rows := make([]models.RawUniverseRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, models.RawUniverseRow{
			Symbol:        m.Symbol,
			Name:          m.Name,
			Sector:        m.Sector,
			SubSector:     m.SubSector,
			IngestionDate: ingestionDate,
			IngestedAt:    ingestedAt,
		})
	}

	if err := u.store.InsertUniverseSnapshot(ctx, rows); err != nil {
		u.metrics.RecordError("ingest_universe")
		return 0, err
	}

	u.metrics.RecordRowsIngested("bronze_universe", len(rows))
	u.metrics.RecordDuration("ingest_universe", time.Since(start).Seconds())
	u.l.Info("universe ingestion complete",
		applogger.Int("symbols", len(rows)),
		applogger.String("ingestion_date", ingestionDate),
	)
	return len(rows), nil
}
