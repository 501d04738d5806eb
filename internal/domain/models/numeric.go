package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"FinSignal/pkg/util"
)

// Numeric keeps a provider number exactly as sent. Alpha Vantage quotes most
// numbers ("0.8"); some endpoints send bare JSON numbers. Conversion is
// deferred so a bad value fails only the record it belongs to.
type Numeric string

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
	default:
		*n = Numeric(b)
	}
	return nil
}

func (n Numeric) String() string { return string(n) }

// Float parses the value as a finite float.
func (n Numeric) Float() (float64, error) { return util.ParseFloat(string(n)) }

// Count parses the value as a non-negative integer.
func (n Numeric) Count() (int, error) { return util.ParseCount(string(n)) }

// IsNotReported reports the provider's placeholders for a value it does not have.
func (n Numeric) IsNotReported() bool {
	switch strings.TrimSpace(string(n)) {
	case "", "None", "-":
		return true
	}
	return false
}
