package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// FeedKind names a provider document type.
type FeedKind string

const (
	KindNewsSentiment   FeedKind = "news_sentiment"
	KindFundamentals    FeedKind = "fundamentals"
	KindWindowAnalytics FeedKind = "sliding_window_analytics"
)

// WindowParams parameterizes the sliding window analytics request.
type WindowParams struct {
	RangeMonths  int
	Interval     string
	WindowSize   int
	Calculations []string
}

// FeedRequest asks a FeedSource for one document.
type FeedRequest struct {
	Kind    FeedKind
	Tickers []string
	Window  WindowParams
}

// FeedSource returns a complete raw JSON document. Retry, rate limiting,
// caching and replay are the implementation's business.
type FeedSource interface {
	Fetch(ctx context.Context, req FeedRequest) ([]byte, error)
}

// SignalPublisher delivers finished rows to downstream consumers.
type SignalPublisher interface {
	PublishRows(ctx context.Context, table *models.SignalTable) error
	Close() error
}

type Metrics interface {
	RecordFetch(kind string, seconds float64, err error)
	RecordRecordError(component string)
	RecordRows(n int)
	RecordSignal(component string, direction models.Direction)
	RecordLatency(op string, seconds float64)
}
