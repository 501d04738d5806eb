package signals

import (
	"fmt"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
)

// FundamentalsNormalizer parses one ticker's overview into a typed record.
type FundamentalsNormalizer struct{}

func NewFundamentalsNormalizer() *FundamentalsNormalizer { return &FundamentalsNormalizer{} }

// Normalize returns nil, nil when the ticker is not in the feed. Any field that
// fails to parse fails the whole record; rating counts are never defaulted.
func (n *FundamentalsNormalizer) Normalize(feed models.FundamentalsFeed, ticker string) (*models.FundamentalsRecord, error) {
	ov, ok := feed[ticker]
	if !ok || ov.Empty {
		return nil, nil
	}
	if ov.Err != nil {
		return nil, fmt.Errorf("overview %s: %w", ticker, ov.Err)
	}

	rec := &models.FundamentalsRecord{Ticker: ticker, Industry: ov.Industry}
	var err error

	if rec.TrailingPE, err = optionalFloat(ticker, "TrailingPE", ov.TrailingPE); err != nil {
		return nil, err
	}
	if rec.ForwardPE, err = optionalFloat(ticker, "ForwardPE", ov.ForwardPE); err != nil {
		return nil, err
	}
	if rec.AnalystTargetPrice, err = optionalFloat(ticker, "AnalystTargetPrice", ov.AnalystTargetPrice); err != nil {
		return nil, err
	}

	counts := []struct {
		field string
		value models.Numeric
		dst   *int
	}{
		{"AnalystRatingStrongBuy", ov.AnalystRatingStrongBuy, &rec.Ratings.StrongBuy},
		{"AnalystRatingBuy", ov.AnalystRatingBuy, &rec.Ratings.Buy},
		{"AnalystRatingHold", ov.AnalystRatingHold, &rec.Ratings.Hold},
		{"AnalystRatingSell", ov.AnalystRatingSell, &rec.Ratings.Sell},
		{"AnalystRatingStrongSell", ov.AnalystRatingStrongSell, &rec.Ratings.StrongSell},
	}
	for _, c := range counts {
		v, err := c.value.Count()
		if err != nil {
			return nil, fundamentalsParseError(ticker, c.field, c.value, err)
		}
		*c.dst = v
	}

	return rec, nil
}

// optionalFloat leaves the provider's "None"/"-" placeholders absent.
func optionalFloat(ticker, field string, v models.Numeric) (*float64, error) {
	if v.IsNotReported() {
		return nil, nil
	}
	f, err := v.Float()
	if err != nil {
		return nil, fundamentalsParseError(ticker, field, v, err)
	}
	return &f, nil
}

func fundamentalsParseError(ticker, field string, v models.Numeric, err error) error {
	return &models.ParseError{Ticker: ticker, Source: "fundamentals", Field: field, Value: v.String(), Err: err}
}

var _ domsvc.FundamentalsNormalizer = (*FundamentalsNormalizer)(nil)
