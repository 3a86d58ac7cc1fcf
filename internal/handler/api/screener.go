package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"MarketRadar/internal/domain/models"
	"MarketRadar/internal/domain/repository"
	"MarketRadar/internal/usecase"
	"MarketRadar/pkg/clickhouse"
	xhttp "MarketRadar/pkg/http"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// ScreenerHandler serves the ranked signal view and the per-symbol drilldown
// (news, heuristic summary, LLM export text), plus pipeline control.
type ScreenerHandler struct {
	screener  *usecase.Screener
	reporter  *usecase.Reporter
	refresher *usecase.Refresher
	curated   repository.CuratedStore
	ch        *clickhouse.Client
	newsLimit int
	l         *applogger.Logger
}

func NewScreenerHandler(
	screener *usecase.Screener,
	reporter *usecase.Reporter,
	refresher *usecase.Refresher,
	curated repository.CuratedStore,
	ch *clickhouse.Client,
	newsLimit int,
	l *applogger.Logger,
) *ScreenerHandler {
	if newsLimit <= 0 {
		newsLimit = 50
	}
	return &ScreenerHandler{
		screener:  screener,
		reporter:  reporter,
		refresher: refresher,
		curated:   curated,
		ch:        ch,
		newsLimit: newsLimit,
		l:         l,
	}
}

// RegisterRoutes registers routes on an Echo instance.
func (h *ScreenerHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/signals", h.GetSignals)
	api.GET("/dates", h.GetDates)
	api.GET("/universe", h.GetUniverse)
	api.GET("/symbols/:symbol/news", h.GetSymbolNews)
	api.GET("/symbols/:symbol/summary", h.GetSymbolSummary)
	api.GET("/symbols/:symbol/export", h.GetSymbolExport)
	api.POST("/refresh", h.PostRefresh)
	api.GET("/health", h.GetHealth)
	api.GET("/logs", h.GetLogs)
}

// resolveDate parses the optional ?date= query, falling back to the latest
// curated trading date.
func (h *ScreenerHandler) resolveDate(c echo.Context) (time.Time, error) {
	if raw := c.QueryParam("date"); raw != "" {
		d, ok := xhttp.ParseDay(raw)
		if !ok {
			return time.Time{}, xhttp.BadRequestErrorf("invalid date %q, want YYYY-MM-DD", raw)
		}
		return d, nil
	}
	d, err := h.screener.ResolveRunDate(c.Request().Context())
	if err != nil {
		return time.Time{}, xhttp.NotFoundError(err.Error())
	}
	return d, nil
}

type signalsQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Top  int    `query:"top" validate:"gte=0,lte=1000"`
}

type signalsReply struct {
	RunDate string             `json:"run_date"`
	Rows    []models.SignalRow `json:"rows"`
}

// GetSignals returns the ranked signal rows for a trading date.
func (h *ScreenerHandler) GetSignals(c echo.Context) error {
	req := new(signalsQuery)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	runDate, err := h.resolveDate(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	rows, err := h.screener.RunAt(c.Request().Context(), runDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}

	if req.Top > 0 && req.Top < len(rows) {
		rows = rows[:req.Top]
	}

	return xhttp.SuccessResponse(c, &signalsReply{
		RunDate: util.FormatDay(runDate),
		Rows:    rows,
	})
}

// GetDates returns the distinct curated trading dates, newest first.
func (h *ScreenerHandler) GetDates(c echo.Context) error {
	dates, err := h.curated.Dates(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, util.FormatDay(d))
	}
	return xhttp.SuccessResponse(c, out)
}

// GetUniverse returns the active curated universe.
func (h *ScreenerHandler) GetUniverse(c echo.Context) error {
	members, err := h.curated.ActiveUniverse(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	}
	return xhttp.ListResponse(c, members, int64(len(members)))
}

func (h *ScreenerHandler) symbolParam(c echo.Context) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return "", xhttp.BadRequestError("symbol is required")
	}
	return symbol, nil
}

// GetSymbolNews returns recent news for a symbol (cached).
func (h *ScreenerHandler) GetSymbolNews(c echo.Context) error {
	symbol, err := h.symbolParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), h.newsLimit)
	articles, err := h.reporter.News(c.Request().Context(), symbol, limit)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	}
	return xhttp.ListResponse(c, articles, int64(len(articles)))
}

// signalRowFor finds the ranked row for one symbol on a date.
func (h *ScreenerHandler) signalRowFor(c echo.Context, symbol string) (*models.SignalRow, error) {
	runDate, err := h.resolveDate(c)
	if err != nil {
		return nil, err
	}

	rows, err := h.screener.RunAt(c.Request().Context(), runDate)
	if err != nil {
		return nil, xhttp.NotFoundError(err.Error())
	}
	for i := range rows {
		if rows[i].Symbol == symbol {
			return &rows[i], nil
		}
	}
	return nil, xhttp.NotFoundErrorf("no signal row for %s on %s", symbol, util.FormatDay(runDate))
}

type summaryReply struct {
	Symbol  string `json:"symbol"`
	RunDate string `json:"run_date"`
	Summary string `json:"summary"`
}

// GetSymbolSummary returns the heuristic markdown brief for a symbol.
func (h *ScreenerHandler) GetSymbolSummary(c echo.Context) error {
	symbol, err := h.symbolParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	row, err := h.signalRowFor(c, symbol)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	articles, err := h.reporter.News(c.Request().Context(), symbol, h.newsLimit)
	if err != nil {
		h.l.Warn("news unavailable for summary", applogger.String("symbol", symbol), applogger.Error(err))
		articles = nil
	}

	return xhttp.SuccessResponse(c, &summaryReply{
		Symbol:  symbol,
		RunDate: util.FormatDay(row.RunDate),
		Summary: h.reporter.Summarize(*row, articles),
	})
}

// GetSymbolExport returns the plain-text LLM prompt block for a symbol.
func (h *ScreenerHandler) GetSymbolExport(c echo.Context) error {
	symbol, err := h.symbolParam(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	row, err := h.signalRowFor(c, symbol)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	articles, err := h.reporter.News(c.Request().Context(), symbol, h.newsLimit)
	if err != nil {
		h.l.Warn("news unavailable for export", applogger.String("symbol", symbol), applogger.Error(err))
		articles = nil
	}

	return c.String(200, h.reporter.BuildExportText(*row, articles))
}

// PostRefresh launches a full pipeline run. 409 when one is in flight.
func (h *ScreenerHandler) PostRefresh(c echo.Context) error {
	if h.refresher.Running() {
		return xhttp.DataResponse(c, 409, "refresh already running")
	}

	go func() {
		if _, err := h.refresher.Run(context.Background()); err != nil {
			if errors.Is(err, usecase.ErrRefreshRunning) {
				return
			}
			h.l.Error("background refresh failed", applogger.Error(err))
		}
	}()

	return xhttp.DataResponse(c, 202, "refresh started")
}

// GetHealth pings the analytical store.
func (h *ScreenerHandler) GetHealth(c echo.Context) error {
	if err := h.ch.Health(c.Request().Context()); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("clickhouse: %v", err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// GetLogs surfaces the in-memory aggregated warn/error log entries.
func (h *ScreenerHandler) GetLogs(c echo.Context) error {
	collector := h.l.Collector()
	if collector == nil {
		return xhttp.SuccessResponse(c, []applogger.AggregatedLogEntry{})
	}
	return xhttp.SuccessResponse(c, collector.Snapshot())
}

var _ xhttp.Handler = (*ScreenerHandler)(nil)
