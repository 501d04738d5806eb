package service

import "FinSignal/internal/domain/models"

// SentimentAggregator turns a news feed into one score per ticker.
type SentimentAggregator interface {
	Aggregate(feed *models.NewsFeed, tickers []string) models.SentimentResult
}

// FundamentalsNormalizer extracts one ticker's record from a fundamentals feed.
type FundamentalsNormalizer interface {
	Normalize(feed models.FundamentalsFeed, ticker string) (*models.FundamentalsRecord, error)
}

// VolatilityClassifier estimates holding periods from running stddev samples.
type VolatilityClassifier interface {
	HoldingPeriod(feed *models.WindowAnalyticsFeed, ticker string, windowSize int) (int, bool, error)
}

// ScoreClassifier maps a possibly absent score to a classification.
type ScoreClassifier interface {
	Classify(score float64, ok bool) (models.Classification, bool)
}
