package models

// NewsFeed is the decoded NEWS_SENTIMENT document.
type NewsFeed struct {
	Items    string    `json:"items"`
	Articles []Article `json:"feed"`
}

// Article is one news item with its per-ticker sentiment entries.
type Article struct {
	Title           string            `json:"title"`
	URL             string            `json:"url"`
	TimePublished   string            `json:"time_published"`
	Source          string            `json:"source"`
	TickerSentiment []TickerSentiment `json:"ticker_sentiment"`
}

// TickerSentiment is one (ticker, relevance, sentiment) observation inside an article.
type TickerSentiment struct {
	Ticker         string  `json:"ticker"`
	RelevanceScore Numeric `json:"relevance_score"`
	SentimentScore Numeric `json:"ticker_sentiment_score"`
	SentimentLabel string  `json:"ticker_sentiment_label"`
}

// CompanyOverview holds the OVERVIEW fields the pipeline reads.
type CompanyOverview struct {
	Symbol                  string  `json:"Symbol"`
	Name                    string  `json:"Name"`
	Industry                string  `json:"Industry"`
	TrailingPE              Numeric `json:"TrailingPE"`
	ForwardPE               Numeric `json:"ForwardPE"`
	AnalystTargetPrice      Numeric `json:"AnalystTargetPrice"`
	AnalystRatingStrongBuy  Numeric `json:"AnalystRatingStrongBuy"`
	AnalystRatingBuy        Numeric `json:"AnalystRatingBuy"`
	AnalystRatingHold       Numeric `json:"AnalystRatingHold"`
	AnalystRatingSell       Numeric `json:"AnalystRatingSell"`
	AnalystRatingStrongSell Numeric `json:"AnalystRatingStrongSell"`

	// Empty is set when the provider answered with {} (unknown symbol).
	Empty bool `json:"-"`
	// Err is the provider message sent instead of this overview.
	Err error `json:"-"`
}

// FundamentalsFeed maps ticker to its overview.
type FundamentalsFeed map[string]CompanyOverview

// WindowAnalyticsFeed is the RUNNING_STDDEV part of a sliding window document,
// ticker -> date -> sample.
type WindowAnalyticsFeed struct {
	Calculation string
	Series      map[string]map[string]Numeric
}

// SentimentResult holds aggregate scores for tickers that have a signal and
// the parse failures of tickers that could not be scored.
type SentimentResult struct {
	Scores map[string]float64
	Errors map[string]error
}

// Score returns the aggregate for ticker; ok is false when there is no signal.
func (r SentimentResult) Score(ticker string) (float64, bool) {
	v, ok := r.Scores[ticker]
	return v, ok
}
