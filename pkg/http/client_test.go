package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAndParseRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NEWS_SENTIMENT", r.URL.Query().Get("function"))
		assert.Equal(t, "finsignal/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"feed": []}`))
	}))
	defer srv.Close()

	var body []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: url.Values{"function": {"NEWS_SENTIMENT"}},
	}, &body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feed": []}`, string(body))
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, IsTemporary(err))
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, IsTemporary(nil))
	assert.False(t, IsTemporary(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.True(t, IsTemporary(&StatusError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsTemporary(context.Canceled))
	assert.False(t, IsTemporary(errors.New("boom")))
}
