package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/feeds"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/util"
)

// Components named in RecordError and metrics.
const (
	ComponentSentiment    = "sentiment"
	ComponentFundamentals = "fundamentals"
	ComponentVolatility   = "volatility"
)

// StdDevCalculation is the window calculation the holding period is derived from.
const StdDevCalculation = "STDDEV"

// RowPolicy controls which rows reach the table.
type RowPolicy struct {
	// DropEmpty removes rows with no derived field.
	DropEmpty bool
}

// BuildParams describes one run.
type BuildParams struct {
	Tickers []string
	Policy  RowPolicy
}

// SignalTableBuilder fetches the three feeds and derives one row per ticker.
type SignalTableBuilder struct {
	source       domrepo.FeedSource
	sentiment    domsvc.SentimentAggregator
	fundamentals domsvc.FundamentalsNormalizer
	volatility   domsvc.VolatilityClassifier
	sentClass    domsvc.ScoreClassifier
	analystClass domsvc.ScoreClassifier

	window  domrepo.WindowParams
	timeout time.Duration
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

type BuilderOption func(*SignalTableBuilder)

// WithWindow sets the sliding window request. STDDEV is always requested.
func WithWindow(w domrepo.WindowParams) BuilderOption {
	return func(b *SignalTableBuilder) { b.window = w }
}

func WithFetchTimeout(d time.Duration) BuilderOption {
	return func(b *SignalTableBuilder) { b.timeout = d }
}

func WithMetrics(m domrepo.Metrics) BuilderOption {
	return func(b *SignalTableBuilder) { b.metrics = m }
}

func WithLogger(l *logger.Logger) BuilderOption {
	return func(b *SignalTableBuilder) { b.log = l }
}

// WithClock overrides the execution time source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *SignalTableBuilder) { b.now = now }
}

func NewSignalTableBuilder(
	source domrepo.FeedSource,
	sentiment domsvc.SentimentAggregator,
	fundamentals domsvc.FundamentalsNormalizer,
	volatility domsvc.VolatilityClassifier,
	sentClass domsvc.ScoreClassifier,
	analystClass domsvc.ScoreClassifier,
	opts ...BuilderOption,
) *SignalTableBuilder {
	b := &SignalTableBuilder{
		source:       source,
		sentiment:    sentiment,
		fundamentals: fundamentals,
		volatility:   volatility,
		sentClass:    sentClass,
		analystClass: analystClass,
		window: domrepo.WindowParams{
			RangeMonths:  12,
			Interval:     "DAILY",
			WindowSize:   20,
			Calculations: []string{StdDevCalculation},
		},
		timeout: 2 * time.Minute,
		metrics: nopMetrics{},
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if !slices.Contains(b.window.Calculations, StdDevCalculation) {
		b.window.Calculations = append(slices.Clone(b.window.Calculations), StdDevCalculation)
	}
	return b
}

type documents struct {
	news         *models.NewsFeed
	fundamentals models.FundamentalsFeed
	window       *models.WindowAnalyticsFeed
	errs         map[string]error
}

// Build runs the pipeline for p.Tickers. Configuration problems are returned
// before anything is fetched; everything else is reported in table.Errors.
func (b *SignalTableBuilder) Build(ctx context.Context, p BuildParams) (*models.SignalTable, error) {
	start := time.Now()
	tickers := util.Dedupe(p.Tickers)
	if err := b.check(tickers); err != nil {
		return nil, err
	}

	table := &models.SignalTable{ExecutionTime: b.now().UTC()}
	log := b.log.With(logger.Int("tickers", len(tickers)))
	log.Info("building signal table")

	docs := b.fetchAll(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build signal table: %w", err)
	}
	for _, component := range []string{ComponentSentiment, ComponentFundamentals, ComponentVolatility} {
		if err := docs.errs[component]; err != nil {
			b.addError(table, models.NewRecordError(component, "", err))
			log.Warn("feed unavailable", logger.String("component", component), logger.Error(err))
		}
	}

	sentiment := b.sentiment.Aggregate(docs.news, tickers)

	for _, ticker := range tickers {
		row := b.buildRow(table, ticker, docs, sentiment)
		if row.Empty() {
			log.Debug("ticker without data",
				logger.String("ticker", ticker),
				logger.Error(fmt.Errorf("%s: %w", ticker, models.ErrMissingData)),
			)
			if p.Policy.DropEmpty {
				continue
			}
		}
		table.Rows = append(table.Rows, row)
	}

	b.metrics.RecordRows(len(table.Rows))
	b.metrics.RecordLatency("build", time.Since(start).Seconds())
	log.Info("signal table built",
		logger.Int("rows", len(table.Rows)),
		logger.Int("errors", len(table.Errors)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return table, nil
}

func (b *SignalTableBuilder) check(tickers []string) error {
	if len(tickers) == 0 {
		return &models.ConfigurationError{Field: "universe.tickers", Reason: "ticker universe is empty"}
	}
	if b.source == nil {
		return &models.ConfigurationError{Field: "feed", Reason: "no feed source configured"}
	}
	if b.window.WindowSize < 1 {
		return &models.ConfigurationError{Field: "analytics.window_size", Reason: "must be positive"}
	}
	return nil
}

// fetchAll retrieves the three documents concurrently and waits for all of them.
// A failing feed never cancels the others.
func (b *SignalTableBuilder) fetchAll(ctx context.Context, tickers []string) documents {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		g                           errgroup.Group
		newsErr, fundErr, windowErr error
		docs                        documents
	)
	g.Go(func() error {
		raw, err := b.fetch(ctx, domrepo.FeedRequest{Kind: domrepo.KindNewsSentiment, Tickers: tickers})
		if err == nil {
			docs.news, err = feeds.DecodeNews(raw)
		}
		newsErr = err
		return nil
	})
	g.Go(func() error {
		raw, err := b.fetch(ctx, domrepo.FeedRequest{Kind: domrepo.KindFundamentals, Tickers: tickers})
		if err == nil {
			docs.fundamentals, err = feeds.DecodeFundamentals(raw)
		}
		fundErr = err
		return nil
	})
	g.Go(func() error {
		raw, err := b.fetch(ctx, domrepo.FeedRequest{Kind: domrepo.KindWindowAnalytics, Tickers: tickers, Window: b.window})
		if err == nil {
			docs.window, err = feeds.DecodeWindowAnalytics(raw, StdDevCalculation)
		}
		windowErr = err
		return nil
	})
	_ = g.Wait()

	docs.errs = map[string]error{
		ComponentSentiment:    newsErr,
		ComponentFundamentals: fundErr,
		ComponentVolatility:   windowErr,
	}
	return docs
}

func (b *SignalTableBuilder) fetch(ctx context.Context, req domrepo.FeedRequest) ([]byte, error) {
	start := time.Now()
	raw, err := b.source.Fetch(ctx, req)
	b.metrics.RecordFetch(string(req.Kind), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Kind, err)
	}
	return raw, nil
}

func (b *SignalTableBuilder) buildRow(table *models.SignalTable, ticker string, docs documents, sentiment models.SentimentResult) models.SignalRow {
	row := models.SignalRow{Ticker: ticker, ExecutionTime: table.ExecutionTime}

	if err, failed := sentiment.Errors[ticker]; failed {
		b.addError(table, models.NewRecordError(ComponentSentiment, ticker, err))
	} else if score, ok := sentiment.Score(ticker); ok {
		row.SentimentScore = &score
		row.Sentiment = b.classify(b.sentClass, ComponentSentiment, score)
	}

	if docs.fundamentals != nil {
		rec, err := b.fundamentals.Normalize(docs.fundamentals, ticker)
		switch {
		case err != nil:
			b.addError(table, models.NewRecordError(ComponentFundamentals, ticker, err))
		case rec != nil:
			industry := rec.Industry
			row.Industry = &industry
			row.TrailingPE = rec.TrailingPE
			row.ForwardPE = rec.ForwardPE
			row.AnalystTargetPrice = rec.AnalystTargetPrice
			if score, ok := rec.ConsensusScore(); ok {
				row.AnalystScore = &score
				row.Analyst = b.classify(b.analystClass, "analyst", score)
			}
		}
	}

	if docs.window != nil {
		days, ok, err := b.volatility.HoldingPeriod(docs.window, ticker, b.window.WindowSize)
		switch {
		case err != nil:
			b.addError(table, models.NewRecordError(ComponentVolatility, ticker, err))
		case ok:
			row.HoldingPeriod = &days
		}
	}
	return row
}

func (b *SignalTableBuilder) classify(c domsvc.ScoreClassifier, component string, score float64) *models.Classification {
	cls, ok := c.Classify(score, true)
	if !ok {
		return nil
	}
	b.metrics.RecordSignal(component, cls.Direction)
	return &cls
}

func (b *SignalTableBuilder) addError(table *models.SignalTable, rerr models.RecordError) {
	table.Errors = append(table.Errors, rerr)
	b.metrics.RecordRecordError(rerr.Component)
	if rerr.Ticker != "" {
		b.log.Warn("record skipped",
			logger.String("component", rerr.Component),
			logger.String("ticker", rerr.Ticker),
			logger.Error(rerr.Err),
		)
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, float64, error)    {}
func (nopMetrics) RecordRecordError(string)              {}
func (nopMetrics) RecordRows(int)                        {}
func (nopMetrics) RecordSignal(string, models.Direction) {}
func (nopMetrics) RecordLatency(string, float64)         {}
