package feeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

// Keys Alpha Vantage uses for a message sent in place of a document.
var envelopeKeys = []string{"Error Message", "Information", "Note"}

// CheckEnvelope returns a *models.ProviderError when raw is a provider
// message (bad key, rate limit, premium endpoint) rather than data.
func CheckEnvelope(kind string, raw []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// not an object; the caller's decoder reports it
		return nil
	}
	return envelopeError(kind, obj)
}

// CheckDocument is CheckEnvelope extended to the per-ticker objects of a
// fundamentals document, for callers that must not keep partial documents.
func CheckDocument(kind string, raw []byte) error {
	if err := CheckEnvelope(kind, raw); err != nil || kind != string(domrepo.KindFundamentals) {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	for _, ticker := range slices.Sorted(maps.Keys(doc)) {
		if err := CheckEnvelope(kind, doc[ticker]); err != nil {
			return fmt.Errorf("overview %s: %w", ticker, err)
		}
	}
	return nil
}

func envelopeError(kind string, obj map[string]json.RawMessage) error {
	for _, key := range envelopeKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(v, &msg); err != nil {
			continue
		}
		return &models.ProviderError{Kind: kind, Key: key, Message: msg}
	}
	return nil
}

func isEmptyObject(raw json.RawMessage) bool {
	return bytes.Equal(bytes.Join(bytes.Fields(raw), nil), []byte("{}"))
}
