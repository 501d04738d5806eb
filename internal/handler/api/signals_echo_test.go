package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "FinSignal/internal/domain/models"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/usecase"
	xlogger "FinSignal/pkg/logger"
)

type fakeBuilder struct {
	got usecase.BuildParams
	err error
}

func (f *fakeBuilder) Build(_ context.Context, p usecase.BuildParams) (*models.SignalTable, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	table := &models.SignalTable{ExecutionTime: at}
	for _, t := range p.Tickers {
		score := 0.2
		table.Rows = append(table.Rows, models.SignalRow{Ticker: t, SentimentScore: &score, ExecutionTime: at})
	}
	return table, nil
}

func serve(t *testing.T, h *SignalsEchoHandler, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSignals_OK(t *testing.T) {
	b := &fakeBuilder{}
	h := NewSignalsEchoHandler(xlogger.Nop(), b, nil, 10)

	rec, body := serve(t, h, "/api/signals?tickers=AAPL,%20MSFT,AAPL&drop_empty=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AAPL", "MSFT"}, b.got.Tickers)
	assert.True(t, b.got.Policy.DropEmpty)

	var table models.SignalTable
	require.NoError(t, json.Unmarshal(body["data"], &table))
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "MSFT", table.Rows[1].Ticker)
}

func TestSignals_Validation(t *testing.T) {
	h := NewSignalsEchoHandler(xlogger.Nop(), &fakeBuilder{}, nil, 2)

	rec, _ := serve(t, h, "/api/signals")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, "/api/signals?tickers=,,")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, "/api/signals?tickers=A,B,C")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignals_ErrorMapping(t *testing.T) {
	h := NewSignalsEchoHandler(xlogger.Nop(), &fakeBuilder{err: &models.ConfigurationError{Field: "feed", Reason: "none"}}, nil, 0)
	rec, _ := serve(t, h, "/api/signals?tickers=AAPL")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewSignalsEchoHandler(xlogger.Nop(), &fakeBuilder{err: context.DeadlineExceeded}, nil, 0)
	rec, _ = serve(t, h, "/api/signals?tickers=AAPL")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSignals_RateLimited(t *testing.T) {
	h := NewSignalsEchoHandler(xlogger.Nop(), &fakeBuilder{}, ratelimit.New(1, 0.001), 0)

	rec, _ := serve(t, h, "/api/signals?tickers=AAPL")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body := serve(t, h, "/api/signals?tickers=AAPL")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, string(body["data"]), "ERR_RATE_LIMITED")
}

func TestTickerSignal(t *testing.T) {
	b := &fakeBuilder{}
	h := NewSignalsEchoHandler(xlogger.Nop(), b, nil, 0)

	rec, body := serve(t, h, "/api/signals/IBM")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"IBM"}, b.got.Tickers)

	var resp TickerSignalResponse
	require.NoError(t, json.Unmarshal(body["data"], &resp))
	assert.Equal(t, "IBM", resp.Row.Ticker)
	require.NotNil(t, resp.Row.SentimentScore)
	assert.Equal(t, 0.2, *resp.Row.SentimentScore)
}

func TestTickerSignal_TrimsTicker(t *testing.T) {
	b := &fakeBuilder{}
	h := NewSignalsEchoHandler(xlogger.Nop(), b, nil, 0)

	rec, body := serve(t, h, "/api/signals/%20AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AAPL"}, b.got.Tickers)

	var resp TickerSignalResponse
	require.NoError(t, json.Unmarshal(body["data"], &resp))
	assert.Equal(t, "AAPL", resp.Row.Ticker)

	rec, _ = serve(t, h, "/api/signals/%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
