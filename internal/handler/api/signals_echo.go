package api

import (
	"context"
	"errors"
	"strings"

	models "FinSignal/internal/domain/models"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"
	"FinSignal/pkg/util"

	"github.com/labstack/echo/v4"
)

// TableBuilder builds a signal table for a request.
type TableBuilder interface {
	Build(ctx context.Context, p usecase.BuildParams) (*models.SignalTable, error)
}

// SignalsEchoHandler serves signal tables over HTTP. Every request triggers a
// fresh point-in-time run.
type SignalsEchoHandler struct {
	logger     *xlogger.Logger
	builder    TableBuilder
	limiter    *ratelimit.Limiter
	maxTickers int
}

func NewSignalsEchoHandler(logger *xlogger.Logger, builder TableBuilder, limiter *ratelimit.Limiter, maxTickers int) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, builder: builder, limiter: limiter, maxTickers: maxTickers}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/signals/:ticker", h.TickerSignal)
}

// TickerSignalResponse is the single-ticker view of a run.
type TickerSignalResponse struct {
	Row    models.SignalRow     `json:"row"`
	Errors []models.RecordError `json:"errors,omitempty"`
}

func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tickers := util.Dedupe(strings.Split(req.Tickers, ","))
	if len(tickers) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("tickers must name at least one symbol"))
	}
	if h.maxTickers > 0 && len(tickers) > h.maxTickers {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("at most %d tickers per request, got %d", h.maxTickers, len(tickers)))
	}
	if !h.allow(c) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	table, err := h.build(c, usecase.BuildParams{Tickers: tickers, Policy: usecase.RowPolicy{DropEmpty: req.DropEmpty}})
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, table)
}

func (h *SignalsEchoHandler) TickerSignal(c echo.Context) error {
	req := &models.TickerSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := strings.TrimSpace(req.Ticker)
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker must not be blank"))
	}
	if !h.allow(c) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	table, err := h.build(c, usecase.BuildParams{Tickers: []string{ticker}})
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	row, ok := table.Row(ticker)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no signal for %s", ticker))
	}
	return xhttp.SuccessResponse(c, TickerSignalResponse{Row: row, Errors: table.Errors})
}

func (h *SignalsEchoHandler) allow(c echo.Context) bool {
	return h.limiter == nil || h.limiter.Allow(c.RealIP())
}

// build maps configuration errors to 400 and anything else to 500.
func (h *SignalsEchoHandler) build(c echo.Context, p usecase.BuildParams) (*models.SignalTable, error) {
	table, err := h.builder.Build(c.Request().Context(), p)
	if err == nil {
		return table, nil
	}
	h.logger.Error("signal table usecase error", xlogger.Strings("tickers", p.Tickers), xlogger.Error(err))
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return nil, xhttp.BadRequestError(cfgErr.Error()).WithError(err)
	}
	return nil, xhttp.InternalError("signal table unavailable").WithError(err)
}
