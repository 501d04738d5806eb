package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"FinSignal/internal/domain/repository"
	"FinSignal/internal/feeds"
	"FinSignal/pkg/cache"
	applogger "FinSignal/pkg/logger"
)

// CachedSource serves documents from a cache and falls back to upstream on a
// miss. Provider error envelopes are returned as errors and never cached; a
// document carrying a provider message for some tickers is served uncached.
type CachedSource struct {
	upstream   repository.FeedSource
	cache      cache.Service
	defaultTTL time.Duration
	ttl        map[repository.FeedKind]time.Duration
	log        *applogger.Logger
}

type CachedSourceOption func(*CachedSource)

// WithKindTTL overrides the TTL for one document kind.
func WithKindTTL(kind repository.FeedKind, ttl time.Duration) CachedSourceOption {
	return func(s *CachedSource) { s.ttl[kind] = ttl }
}

func WithCacheLogger(l *applogger.Logger) CachedSourceOption {
	return func(s *CachedSource) { s.log = l }
}

// NewCachedSource decorates upstream with c.
func NewCachedSource(upstream repository.FeedSource, c cache.Service, defaultTTL time.Duration, opts ...CachedSourceOption) *CachedSource {
	s := &CachedSource{
		upstream:   upstream,
		cache:      c,
		defaultTTL: defaultTTL,
		ttl:        map[repository.FeedKind]time.Duration{},
		log:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachedSource) Fetch(ctx context.Context, req repository.FeedRequest) ([]byte, error) {
	key := CacheKey(req)
	ttl, ok := s.ttl[req.Kind]
	if !ok {
		ttl = s.defaultTTL
	}

	b, hit, err := cache.GetOrLoad(ctx, s.cache, key, ttl, func(ctx context.Context) ([]byte, error) {
		raw, err := s.upstream.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := feeds.CheckEnvelope(string(req.Kind), raw); err != nil {
			return nil, err
		}
		if err := feeds.CheckDocument(string(req.Kind), raw); err != nil {
			return nil, &partialDocument{raw: raw, err: err}
		}
		return raw, nil
	}, func(err error) {
		s.log.Warn("feed cache unavailable", applogger.String("kind", string(req.Kind)), applogger.Error(err))
	})
	var partial *partialDocument
	if errors.As(err, &partial) {
		s.log.Warn("partial feed document not cached",
			applogger.String("kind", string(req.Kind)),
			applogger.Error(partial.err),
		)
		return partial.raw, nil
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("feed document served",
		applogger.String("kind", string(req.Kind)),
		applogger.Bool("cache_hit", hit),
	)
	return b, nil
}

// partialDocument carries a usable document that must not be cached.
type partialDocument struct {
	raw []byte
	err error
}

func (p *partialDocument) Error() string { return p.err.Error() }

// CacheKey identifies a request independent of ticker order.
func CacheKey(req repository.FeedRequest) string {
	tickers := slices.Clone(req.Tickers)
	slices.Sort(tickers)
	params := []interface{}{req.Kind, strings.Join(tickers, ",")}
	if req.Kind == repository.KindWindowAnalytics {
		w := req.Window
		params = append(params, fmt.Sprintf("%dmonth/%s/%d/%s", w.RangeMonths, w.Interval, w.WindowSize, strings.Join(w.Calculations, "+")))
	}
	raw := cache.GenerateKeyWithParams("feed", params...)
	return cache.GenerateKey("feed", cache.HashKey(raw))
}

var _ repository.FeedSource = (*CachedSource)(nil)
