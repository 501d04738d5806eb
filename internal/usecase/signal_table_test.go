package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/services/signals"
	"FinSignal/pkg/logger"
)

const (
	newsDoc = `{"feed": [
		{"ticker_sentiment": [
			{"ticker": "AAPL", "relevance_score": "1.0", "ticker_sentiment_score": "0.5"},
			{"ticker": "IBM", "relevance_score": "0.5", "ticker_sentiment_score": "bad"}
		]}
	]}`
	fundamentalsDoc = `{
		"AAPL": {"Industry": "ELECTRONIC COMPUTERS", "TrailingPE": "30.1", "ForwardPE": "None", "AnalystTargetPrice": "200",
			"AnalystRatingStrongBuy": "1", "AnalystRatingBuy": "0", "AnalystRatingHold": "0",
			"AnalystRatingSell": "0", "AnalystRatingStrongSell": "0"},
		"IBM": {"Industry": "IT", "TrailingPE": "20", "ForwardPE": "15", "AnalystTargetPrice": "150",
			"AnalystRatingStrongBuy": "0", "AnalystRatingBuy": "0", "AnalystRatingHold": "0",
			"AnalystRatingSell": "0", "AnalystRatingStrongSell": "0"}
	}`
	windowDoc = `{"STDDEV": {"payload": {"RETURNS_CALCULATIONS": {"STDDEV": {"RUNNING_STDDEV": {
		"AAPL": {"2024-01-02": "0.03"},
		"IBM": {"2024-01-02": "0.10"}
	}}}}}}`
)

type fakeSource struct {
	mu   sync.Mutex
	docs map[domrepo.FeedKind]string
	errs map[domrepo.FeedKind]error
	reqs []domrepo.FeedRequest
}

func (f *fakeSource) Fetch(_ context.Context, req domrepo.FeedRequest) ([]byte, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if err := f.errs[req.Kind]; err != nil {
		return nil, err
	}
	return []byte(f.docs[req.Kind]), nil
}

func newBuilder(t *testing.T, src domrepo.FeedSource, opts ...BuilderOption) *SignalTableBuilder {
	t.Helper()
	sentClass, err := signals.NewSentimentClassifier([]string{"small", "strong"})
	require.NoError(t, err)
	analystClass, err := signals.NewConsensusClassifier([]string{"good", "very strong"}, signals.HalfAwayFromZero)
	require.NoError(t, err)
	return NewSignalTableBuilder(src,
		signals.NewSentimentAggregator(),
		signals.NewFundamentalsNormalizer(),
		signals.NewVolatilityClassifier(),
		sentClass, analystClass, opts...)
}

func allDocs() *fakeSource {
	return &fakeSource{docs: map[domrepo.FeedKind]string{
		domrepo.KindNewsSentiment:   newsDoc,
		domrepo.KindFundamentals:    fundamentalsDoc,
		domrepo.KindWindowAnalytics: windowDoc,
	}}
}

func TestBuild_Rows(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := newBuilder(t, allDocs(), WithClock(func() time.Time { return at }))

	table, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL", "IBM", "MSFT"}})
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, at, table.ExecutionTime)

	aapl, ok := table.Row("AAPL")
	require.True(t, ok)
	require.NotNil(t, aapl.SentimentScore)
	assert.Equal(t, 0.5, *aapl.SentimentScore)
	require.NotNil(t, aapl.Sentiment)
	assert.Equal(t, models.Buy, aapl.Sentiment.Direction)
	assert.Equal(t, "strong", aapl.Sentiment.Conviction.Label)
	require.NotNil(t, aapl.AnalystScore)
	assert.Equal(t, 2.0, *aapl.AnalystScore)
	require.NotNil(t, aapl.Analyst)
	assert.Equal(t, models.Buy, aapl.Analyst.Direction)
	assert.Equal(t, "very strong", aapl.Analyst.Conviction.Label)
	require.NotNil(t, aapl.HoldingPeriod)
	assert.Equal(t, 10, *aapl.HoldingPeriod)
	require.NotNil(t, aapl.Industry)
	assert.Equal(t, "ELECTRONIC COMPUTERS", *aapl.Industry)
	assert.Nil(t, aapl.ForwardPE)
	assert.Equal(t, at, aapl.ExecutionTime)

	ibm, _ := table.Row("IBM")
	assert.Nil(t, ibm.SentimentScore, "malformed sentiment leaves the field absent")
	assert.Nil(t, ibm.AnalystScore, "no ratings means no consensus")
	assert.Nil(t, ibm.Analyst)
	require.NotNil(t, ibm.HoldingPeriod)
	assert.Equal(t, 5, *ibm.HoldingPeriod)

	msft, ok := table.Row("MSFT")
	require.True(t, ok, "fully absent ticker keeps its row")
	assert.True(t, msft.Empty())

	require.Len(t, table.Errors, 1)
	assert.Equal(t, ComponentSentiment, table.Errors[0].Component)
	assert.Equal(t, "IBM", table.Errors[0].Ticker)
	var perr *models.ParseError
	assert.ErrorAs(t, table.Errors[0], &perr)
}

func TestBuild_UniverseOrderAndDedupe(t *testing.T) {
	b := newBuilder(t, allDocs())

	table, err := b.Build(context.Background(), BuildParams{Tickers: []string{"MSFT", "AAPL", "MSFT", " "}})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "MSFT", table.Rows[0].Ticker)
	assert.Equal(t, "AAPL", table.Rows[1].Ticker)
}

func TestBuild_DropEmpty(t *testing.T) {
	b := newBuilder(t, allDocs())

	table, err := b.Build(context.Background(), BuildParams{
		Tickers: []string{"AAPL", "MSFT"},
		Policy:  RowPolicy{DropEmpty: true},
	})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "AAPL", table.Rows[0].Ticker)
}

func TestBuild_FeedFailureIsPartial(t *testing.T) {
	src := allDocs()
	src.errs = map[domrepo.FeedKind]error{domrepo.KindNewsSentiment: errors.New("connection reset")}
	b := newBuilder(t, src)

	table, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL"}})
	require.NoError(t, err)

	aapl, _ := table.Row("AAPL")
	assert.Nil(t, aapl.SentimentScore)
	assert.NotNil(t, aapl.AnalystScore)
	assert.NotNil(t, aapl.HoldingPeriod)

	require.Len(t, table.Errors, 1)
	assert.Equal(t, ComponentSentiment, table.Errors[0].Component)
	assert.Empty(t, table.Errors[0].Ticker)
}

func TestBuild_ProviderEnvelope(t *testing.T) {
	src := allDocs()
	src.docs[domrepo.KindFundamentals] = `{"Information": "premium endpoint"}`
	b := newBuilder(t, src)

	table, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL"}})
	require.NoError(t, err)
	require.Len(t, table.Errors, 1)
	var perr *models.ProviderError
	assert.ErrorAs(t, table.Errors[0], &perr)
}

func TestBuild_ProviderMessageForOneTicker(t *testing.T) {
	src := allDocs()
	src.docs[domrepo.KindFundamentals] = `{
		"AAPL": {"Industry": "ELECTRONIC COMPUTERS", "TrailingPE": "30.1", "ForwardPE": "None", "AnalystTargetPrice": "200",
			"AnalystRatingStrongBuy": "1", "AnalystRatingBuy": "0", "AnalystRatingHold": "0",
			"AnalystRatingSell": "0", "AnalystRatingStrongSell": "0"},
		"IBM": {"Information": "rate limit reached"}
	}`
	b := newBuilder(t, src)

	table, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL", "IBM"}})
	require.NoError(t, err)

	aapl, _ := table.Row("AAPL")
	assert.NotNil(t, aapl.AnalystScore)
	ibm, _ := table.Row("IBM")
	assert.Nil(t, ibm.Industry)
	assert.NotNil(t, ibm.HoldingPeriod)

	var fundErrs []models.RecordError
	for _, e := range table.Errors {
		if e.Component == ComponentFundamentals {
			fundErrs = append(fundErrs, e)
		}
	}
	require.Len(t, fundErrs, 1)
	assert.Equal(t, "IBM", fundErrs[0].Ticker)
	var perr *models.ProviderError
	assert.ErrorAs(t, fundErrs[0], &perr)
}

func TestBuild_LogsTickersWithoutData(t *testing.T) {
	var buf bytes.Buffer
	b := newBuilder(t, allDocs(), WithLogger(logger.NewWriter(&buf, zerolog.DebugLevel)))

	_, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL", "MSFT"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"ticker":"MSFT"`)
	assert.Contains(t, buf.String(), "MSFT: "+models.ErrMissingData.Error())
	assert.NotContains(t, buf.String(), "AAPL: "+models.ErrMissingData.Error())
}

func TestBuild_ConfigurationErrors(t *testing.T) {
	var cfgErr *models.ConfigurationError

	src := allDocs()
	_, err := newBuilder(t, src).Build(context.Background(), BuildParams{})
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, src.reqs, "nothing is fetched on configuration errors")

	_, err = newBuilder(t, nil).Build(context.Background(), BuildParams{Tickers: []string{"AAPL"}})
	require.ErrorAs(t, err, &cfgErr)

	_, err = newBuilder(t, src, WithWindow(domrepo.WindowParams{WindowSize: 0})).
		Build(context.Background(), BuildParams{Tickers: []string{"AAPL"}})
	require.ErrorAs(t, err, &cfgErr)
}

func TestBuild_WindowRequestAlwaysIncludesStdDev(t *testing.T) {
	src := allDocs()
	b := newBuilder(t, src, WithWindow(domrepo.WindowParams{
		RangeMonths: 6, Interval: "WEEKLY", WindowSize: 8, Calculations: []string{"MEAN"},
	}))

	_, err := b.Build(context.Background(), BuildParams{Tickers: []string{"AAPL"}})
	require.NoError(t, err)

	var window *domrepo.FeedRequest
	for i := range src.reqs {
		if src.reqs[i].Kind == domrepo.KindWindowAnalytics {
			window = &src.reqs[i]
		}
	}
	require.NotNil(t, window)
	assert.Equal(t, []string{"MEAN", StdDevCalculation}, window.Window.Calculations)
	assert.Equal(t, 8, window.Window.WindowSize)
	assert.Len(t, src.reqs, 3)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newBuilder(t, allDocs()).Build(ctx, BuildParams{Tickers: []string{"AAPL"}})
	assert.ErrorIs(t, err, context.Canceled)
}
