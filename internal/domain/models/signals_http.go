package models

// Requests for signal HTTP endpoints.

type SignalsRequest struct {
	Tickers   string `query:"tickers" json:"tickers" validate:"required"`
	DropEmpty bool   `query:"drop_empty" json:"drop_empty"`
}

type TickerSignalRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=16"`
}
