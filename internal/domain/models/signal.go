package models

import "time"

// Direction is the trading stance of a signal.
type Direction string

const (
	Buy  Direction = "buy"
	Hold Direction = "hold"
	Sell Direction = "sell"
)

// Conviction levels, ordered by |score|.
const (
	ConvictionModerate  = 0
	ConvictionStrongest = 1
)

// Conviction is an ordered confidence level with a caller-chosen label.
type Conviction struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

// Classification is a (direction, conviction) pair.
type Classification struct {
	Direction  Direction  `json:"direction"`
	Conviction Conviction `json:"conviction"`
}

// RatingHistogram counts analyst ratings per bucket.
type RatingHistogram struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

// Total returns the number of ratings.
func (h RatingHistogram) Total() int {
	return h.StrongBuy + h.Buy + h.Hold + h.Sell + h.StrongSell
}

// ConsensusScore is the weighted mean rating on the [-2, 2] scale.
// ok is false when no analyst rated the ticker.
func (h RatingHistogram) ConsensusScore() (score float64, ok bool) {
	total := h.Total()
	if total == 0 {
		return 0, false
	}
	weighted := 2*h.StrongBuy + h.Buy - h.Sell - 2*h.StrongSell
	return float64(weighted) / float64(total), true
}

// FundamentalsRecord is the normalized overview of one ticker.
type FundamentalsRecord struct {
	Ticker             string          `json:"ticker"`
	Industry           string          `json:"industry"`
	TrailingPE         *float64        `json:"trailing_pe"`
	ForwardPE          *float64        `json:"forward_pe"`
	AnalystTargetPrice *float64        `json:"analyst_target_price"`
	Ratings            RatingHistogram `json:"ratings"`
}

// ConsensusScore delegates to the rating histogram.
func (r *FundamentalsRecord) ConsensusScore() (float64, bool) {
	return r.Ratings.ConsensusScore()
}

// SignalRow is one output record. Nil pointers are absent values.
type SignalRow struct {
	Ticker             string          `json:"ticker"`
	SentimentScore     *float64        `json:"sentiment_score"`
	Sentiment          *Classification `json:"sentiment"`
	AnalystScore       *float64        `json:"analyst_score"`
	Analyst            *Classification `json:"analyst"`
	HoldingPeriod      *int            `json:"holding_period"`
	Industry           *string         `json:"industry"`
	TrailingPE         *float64        `json:"trailing_pe"`
	ForwardPE          *float64        `json:"forward_pe"`
	AnalystTargetPrice *float64        `json:"analyst_target_price"`
	ExecutionTime      time.Time       `json:"execution_time"`
}

// Empty reports whether no derived field is present.
func (r SignalRow) Empty() bool {
	return r.SentimentScore == nil && r.Sentiment == nil &&
		r.AnalystScore == nil && r.Analyst == nil &&
		r.HoldingPeriod == nil && r.Industry == nil &&
		r.TrailingPE == nil && r.ForwardPE == nil && r.AnalystTargetPrice == nil
}

// RecordError is a hard per-record failure reported beside the rows.
// Ticker is empty when a whole feed failed.
type RecordError struct {
	Ticker    string `json:"ticker,omitempty"`
	Component string `json:"component"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

func (e RecordError) Error() string {
	if e.Ticker == "" {
		return e.Component + ": " + e.Message
	}
	return e.Component + " " + e.Ticker + ": " + e.Message
}

func (e RecordError) Unwrap() error { return e.Err }

// SignalTable is the partial-success batch result of one run.
type SignalTable struct {
	ExecutionTime time.Time     `json:"execution_time"`
	Rows          []SignalRow   `json:"rows"`
	Errors        []RecordError `json:"errors,omitempty"`
}

// Row returns the row of ticker.
func (t *SignalTable) Row(ticker string) (SignalRow, bool) {
	for _, r := range t.Rows {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return SignalRow{}, false
}
