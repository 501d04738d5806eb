package models

import (
	"errors"
	"fmt"
)

// ErrMissingData marks a ticker absent from a feed document. It is soft:
// the field stays empty and the run continues.
var ErrMissingData = errors.New("missing data")

// ParseError is a provider value that could not be converted.
type ParseError struct {
	Ticker string
	Source string // news, fundamentals, window_analytics
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s.%s for %s: invalid value %q: %v", e.Source, e.Field, e.Ticker, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigurationError is an invalid construction parameter; nothing is fetched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// ProviderError is an error envelope returned in place of a document.
type ProviderError struct {
	Kind    string
	Key     string // "Error Message", "Information" or "Note"
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %s", e.Kind, e.Key, e.Message)
}

// NewRecordError wraps err for the batch error list.
func NewRecordError(component, ticker string, err error) RecordError {
	return RecordError{Ticker: ticker, Component: component, Err: err, Message: err.Error()}
}
