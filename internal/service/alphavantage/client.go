package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/feeds"
	xhttp "FinSignal/pkg/http"
	applogger "FinSignal/pkg/logger"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	// DefaultRatePerMinute matches the free tier.
	DefaultRatePerMinute = 5

	// DefaultBackoff is the first retry delay; it doubles per attempt.
	DefaultBackoff = 2 * time.Second
)

// Client is a FeedSource backed by the Alpha Vantage REST API. Every request
// waits on one shared limiter, including the per-ticker fan-out.
type Client struct {
	http        *xhttp.Client
	baseURL     string
	apiKey      string
	limiter     *rate.Limiter
	retries     int
	backoff     time.Duration
	concurrency int
	newsLimit   int
	log         *applogger.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *xhttp.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit allows perMinute requests with the given burst.
func WithRateLimit(perMinute, burst int) ClientOption {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
	}
}

// WithRetries retries temporary failures n times, doubling backoff each time.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// WithConcurrency bounds the number of in-flight per-ticker requests.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		c.concurrency = n
	}
}

// WithNewsLimit sets the NEWS_SENTIMENT page size.
func WithNewsLimit(n int) ClientOption {
	return func(c *Client) {
		c.newsLimit = n
	}
}

// WithLogger sets a logger.
func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates an Alpha Vantage client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		limiter:     rate.NewLimiter(rate.Limit(float64(DefaultRatePerMinute)/60), 1),
		retries:     2,
		backoff:     DefaultBackoff,
		concurrency: 4,
		newsLimit:   200,
		log:         applogger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	return c
}

// Fetch returns the raw document of req.Kind.
func (c *Client) Fetch(ctx context.Context, req domrepo.FeedRequest) ([]byte, error) {
	switch req.Kind {
	case domrepo.KindNewsSentiment:
		return c.newsSentiment(ctx, req.Tickers)
	case domrepo.KindFundamentals:
		return c.fundamentals(ctx, req.Tickers)
	case domrepo.KindWindowAnalytics:
		return c.windowAnalytics(ctx, req.Tickers, req.Window)
	}
	return nil, fmt.Errorf("alphavantage: unsupported feed kind %q", req.Kind)
}

type newsPage struct {
	Feed []json.RawMessage `json:"feed"`
}

// newsSentiment queries one ticker at a time, since a multi-ticker query only
// returns articles that mention every ticker, and merges the pages. An article
// returned for several tickers is kept once.
func (c *Client) newsSentiment(ctx context.Context, tickers []string) ([]byte, error) {
	kind := string(domrepo.KindNewsSentiment)
	pages := make([]newsPage, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			body, err := c.get(gctx, url.Values{
				"function": {"NEWS_SENTIMENT"},
				"tickers":  {ticker},
				"limit":    {strconv.Itoa(c.newsLimit)},
				"sort":     {"LATEST"},
			})
			if err != nil {
				return err
			}
			if err := feeds.CheckEnvelope(kind, body); err != nil {
				return fmt.Errorf("news %s: %w", ticker, err)
			}
			if err := json.Unmarshal(body, &pages[i]); err != nil {
				return fmt.Errorf("decode news %s: %w", ticker, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	merged := make([]json.RawMessage, 0)
	for _, p := range pages {
		for _, art := range p.Feed {
			var id struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(art, &id); err == nil && id.URL != "" {
				if _, dup := seen[id.URL]; dup {
					continue
				}
				seen[id.URL] = struct{}{}
			}
			merged = append(merged, art)
		}
	}
	return json.Marshal(map[string]interface{}{
		"items": strconv.Itoa(len(merged)),
		"feed":  merged,
	})
}

// fundamentals assembles {ticker: OVERVIEW}. A provider message for one
// ticker stays in that ticker's slot so only its record fails; the document
// fails when no ticker got data.
func (c *Client) fundamentals(ctx context.Context, tickers []string) ([]byte, error) {
	kind := string(domrepo.KindFundamentals)
	var (
		mu       sync.Mutex
		firstErr error
		served   int
	)
	doc := make(map[string]json.RawMessage, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, ticker := range tickers {
		g.Go(func() error {
			body, err := c.get(gctx, url.Values{
				"function": {"OVERVIEW"},
				"symbol":   {ticker},
			})
			if err != nil {
				return err
			}
			envErr := feeds.CheckEnvelope(kind, body)
			if envErr != nil {
				c.log.Warn("overview rejected by provider",
					applogger.String("ticker", ticker),
					applogger.Error(envErr),
				)
			}
			mu.Lock()
			defer mu.Unlock()
			doc[ticker] = body
			if envErr == nil {
				served++
			} else if firstErr == nil {
				firstErr = fmt.Errorf("overview %s: %w", ticker, envErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if served == 0 && firstErr != nil {
		return nil, firstErr
	}
	return json.Marshal(doc)
}

// windowAnalytics assembles {calculation: ANALYTICS_SLIDING_WINDOW}, one
// request per calculation.
func (c *Client) windowAnalytics(ctx context.Context, tickers []string, w domrepo.WindowParams) ([]byte, error) {
	kind := string(domrepo.KindWindowAnalytics)
	doc := make(map[string]json.RawMessage, len(w.Calculations))
	for _, calc := range w.Calculations {
		body, err := c.get(ctx, url.Values{
			"function":     {"ANALYTICS_SLIDING_WINDOW"},
			"SYMBOLS":      {strings.Join(tickers, ",")},
			"RANGE":        {fmt.Sprintf("%dmonth", w.RangeMonths)},
			"INTERVAL":     {w.Interval},
			"OHLC":         {"close"},
			"WINDOW_SIZE":  {strconv.Itoa(w.WindowSize)},
			"CALCULATIONS": {calc},
		})
		if err != nil {
			return nil, err
		}
		if err := feeds.CheckEnvelope(kind, body); err != nil {
			return nil, fmt.Errorf("window %s: %w", calc, err)
		}
		doc[calc] = body
	}
	return json.Marshal(doc)
}

// get performs one rate limited GET with retries on temporary failures.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	function := params.Get("function")
	params.Set("apikey", c.apiKey)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.log.Warn("alphavantage request retry",
				applogger.String("function", function),
				applogger.Int("attempt", attempt),
				applogger.Duration("backoff", wait),
				applogger.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("alphavantage %s: rate limiter: %w", function, err)
		}

		var body []byte
		start := time.Now()
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{URL: c.baseURL, QueryParams: params}, &body)
		c.log.Debug("alphavantage request",
			applogger.String("function", function),
			applogger.Duration("elapsed", time.Since(start)),
			applogger.Error(err),
		)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !xhttp.IsTemporary(err) {
			break
		}
	}
	return nil, fmt.Errorf("alphavantage %s: %w", function, lastErr)
}

var _ domrepo.FeedSource = (*Client)(nil)
