package feeds

import (
	"encoding/json"
	"fmt"
	"strings"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

const runningStdDev = "RUNNING_STDDEV"

// DecodeNews decodes a NEWS_SENTIMENT document.
func DecodeNews(raw []byte) (*models.NewsFeed, error) {
	kind := string(domrepo.KindNewsSentiment)
	if err := CheckEnvelope(kind, raw); err != nil {
		return nil, err
	}
	var feed models.NewsFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return &feed, nil
}

// DecodeFundamentals decodes a {ticker: OVERVIEW} document. An empty object
// for a ticker is kept and marked Empty; a provider message in place of one
// overview is kept in that ticker's Err.
func DecodeFundamentals(raw []byte) (models.FundamentalsFeed, error) {
	kind := string(domrepo.KindFundamentals)
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := envelopeError(kind, doc); err != nil {
		return nil, err
	}

	feed := make(models.FundamentalsFeed, len(doc))
	for ticker, body := range doc {
		if isEmptyObject(body) {
			feed[ticker] = models.CompanyOverview{Symbol: ticker, Empty: true}
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode %s for %s: %w", kind, ticker, err)
		}
		if err := envelopeError(kind, obj); err != nil {
			feed[ticker] = models.CompanyOverview{Symbol: ticker, Err: err}
			continue
		}
		var ov models.CompanyOverview
		if err := json.Unmarshal(body, &ov); err != nil {
			return nil, fmt.Errorf("decode %s for %s: %w", kind, ticker, err)
		}
		feed[ticker] = ov
	}
	return feed, nil
}

type windowResponse struct {
	Payload struct {
		ReturnsCalculations map[string]map[string]json.RawMessage `json:"RETURNS_CALCULATIONS"`
	} `json:"payload"`
}

// DecodeWindowAnalytics extracts the running stddev series of calculation from
// a {calculation: ANALYTICS_SLIDING_WINDOW} document. A document without that
// calculation decodes to an empty feed.
func DecodeWindowAnalytics(raw []byte, calculation string) (*models.WindowAnalyticsFeed, error) {
	kind := string(domrepo.KindWindowAnalytics)
	feed := &models.WindowAnalyticsFeed{Calculation: calculation, Series: map[string]map[string]models.Numeric{}}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := envelopeError(kind, doc); err != nil {
		return nil, err
	}
	body, ok := doc[calculation]
	if !ok {
		return feed, nil
	}
	if err := CheckEnvelope(kind, body); err != nil {
		return nil, err
	}

	var resp windowResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	calc, ok := lookupCalculation(resp.Payload.ReturnsCalculations, calculation)
	if !ok {
		return feed, nil
	}
	series, ok := calc[runningStdDev]
	if !ok {
		return feed, nil
	}
	if err := json.Unmarshal(series, &feed.Series); err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", calculation, runningStdDev, err)
	}
	return feed, nil
}

// lookupCalculation matches "STDDEV" exactly, or a parameterized key such as
// "STDDEV(annualized=False)".
func lookupCalculation(calcs map[string]map[string]json.RawMessage, name string) (map[string]json.RawMessage, bool) {
	if c, ok := calcs[name]; ok {
		return c, true
	}
	for key, c := range calcs {
		if strings.HasPrefix(key, name+"(") {
			return c, true
		}
	}
	return nil, false
}
