package signals

import (
	"fmt"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/features"
)

// SentimentAggregator computes relevance-weighted sentiment per ticker.
type SentimentAggregator struct{}

func NewSentimentAggregator() *SentimentAggregator { return &SentimentAggregator{} }

// Aggregate scores every requested ticker found in the feed. Tickers that are
// never mentioned, or whose relevance sums to zero, are left out of Scores.
// A malformed number in one of a ticker's entries fails that ticker only.
func (a *SentimentAggregator) Aggregate(feed *models.NewsFeed, tickers []string) models.SentimentResult {
	res := models.SentimentResult{
		Scores: make(map[string]float64, len(tickers)),
		Errors: map[string]error{},
	}
	if feed == nil || len(feed.Articles) == 0 {
		return res
	}

	occurrences := indexOccurrences(feed.Articles)

	for _, ticker := range tickers {
		positions, ok := occurrences[ticker]
		if !ok {
			continue
		}
		sentiments, relevances, err := collectObservations(feed.Articles, positions, ticker)
		if err != nil {
			res.Errors[ticker] = err
			continue
		}
		if score, ok := features.WeightedMean(sentiments, relevances); ok {
			res.Scores[ticker] = score
		}
	}
	return res
}

// indexOccurrences records, per ticker, the positions of the articles that mention it.
// An article is listed once per ticker however often it repeats the ticker.
func indexOccurrences(articles []models.Article) map[string][]int {
	idx := make(map[string][]int)
	for i, art := range articles {
		for _, ts := range art.TickerSentiment {
			pos := idx[ts.Ticker]
			if n := len(pos); n > 0 && pos[n-1] == i {
				continue
			}
			idx[ts.Ticker] = append(pos, i)
		}
	}
	return idx
}

func collectObservations(articles []models.Article, positions []int, ticker string) ([]float64, []float64, error) {
	var sentiments, relevances []float64
	for _, i := range positions {
		for j, ts := range articles[i].TickerSentiment {
			if ts.Ticker != ticker {
				continue
			}
			s, err := ts.SentimentScore.Float()
			if err != nil {
				return nil, nil, newsParseError(ticker, i, j, "ticker_sentiment_score", ts.SentimentScore, err)
			}
			r, err := ts.RelevanceScore.Float()
			if err != nil {
				return nil, nil, newsParseError(ticker, i, j, "relevance_score", ts.RelevanceScore, err)
			}
			sentiments = append(sentiments, s)
			relevances = append(relevances, r)
		}
	}
	return sentiments, relevances, nil
}

func newsParseError(ticker string, article, entry int, field string, v models.Numeric, err error) error {
	return &models.ParseError{
		Ticker: ticker,
		Source: "news",
		Field:  fmt.Sprintf("feed[%d].ticker_sentiment[%d].%s", article, entry, field),
		Value:  v.String(),
		Err:    err,
	}
}

var _ domsvc.SentimentAggregator = (*SentimentAggregator)(nil)
