package di

import (
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	"FinSignal/internal/handler/api"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/alphavantage"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/signals"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/server"
)

// Classifiers groups the two score classifiers so wire can tell them apart.
type Classifiers struct {
	Sentiment *signals.Classifier
	Analyst   *signals.Classifier
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDocumentCache creates the raw document cache: memory only, or memory
// in front of Redis. It returns nil when caching is disabled.
func ProvideDocumentCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if cfg.Cache.Disabled {
		return nil, func() {}, nil
	}

	var svc cache.Service
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 4*time.Second),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.NewsTTL),
		)
	} else {
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Error("close cache", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideFeedSource selects the feed mode: live with an API key (recording
// when a replay directory is also set), replay from the directory otherwise.
func ProvideFeedSource(cfg *config.Config, l *applogger.Logger, docs cache.Service) (repository.FeedSource, error) {
	switch {
	case cfg.Feed.APIKey != "":
		var src repository.FeedSource = ProvideAlphaVantageClient(cfg, l)
		if cfg.Feed.ReplayDir != "" {
			l.Info("recording feeds", applogger.String("dir", cfg.Feed.ReplayDir))
			src = internalrepo.NewRecordingSource(src, cfg.Feed.ReplayDir, l)
		}
		if docs != nil {
			src = internalrepo.NewCachedSource(src, docs, cfg.Cache.TTL,
				internalrepo.WithKindTTL(repository.KindNewsSentiment, cfg.Cache.NewsTTL),
				internalrepo.WithCacheLogger(l),
			)
		}
		return src, nil
	case cfg.Feed.ReplayDir != "":
		l.Info("replaying feeds", applogger.String("dir", cfg.Feed.ReplayDir))
		return internalrepo.NewReplaySource(cfg.Feed.ReplayDir), nil
	}
	return nil, &models.ConfigurationError{Field: "feed", Reason: "api_key or replay_dir is required"}
}

// ProvideAlphaVantageClient creates the rate limited provider client.
func ProvideAlphaVantageClient(cfg *config.Config, l *applogger.Logger) *alphavantage.Client {
	hc := xhttp.NewClient(xhttp.WithTimeout(cfg.Feed.Timeout))
	return alphavantage.NewClient(cfg.Feed.APIKey,
		alphavantage.WithBaseURL(cfg.Feed.BaseURL),
		alphavantage.WithHTTPClient(hc),
		alphavantage.WithRateLimit(cfg.Feed.RatePerMin, cfg.Feed.Burst),
		alphavantage.WithRetries(cfg.Feed.Retries, alphavantage.DefaultBackoff),
		alphavantage.WithConcurrency(cfg.Feed.Concurrency),
		alphavantage.WithNewsLimit(cfg.Feed.NewsLimit),
		alphavantage.WithLogger(l),
	)
}

// ProvideClassifiers builds the sentiment and analyst classifiers from config labels.
func ProvideClassifiers(cfg *config.Config) (Classifiers, error) {
	rounding, err := signals.ParseRounding(cfg.Signals.Rounding)
	if err != nil {
		return Classifiers{}, err
	}
	sent, err := signals.NewSentimentClassifier(cfg.Signals.SentimentLabels)
	if err != nil {
		return Classifiers{}, fmt.Errorf("sentiment classifier: %w", err)
	}
	analyst, err := signals.NewConsensusClassifier(cfg.Signals.AnalystLabels, rounding)
	if err != nil {
		return Classifiers{}, fmt.Errorf("analyst classifier: %w", err)
	}
	return Classifiers{Sentiment: sent, Analyst: analyst}, nil
}

// ProvideSignalTableBuilder creates the signal table use case.
func ProvideSignalTableBuilder(
	cfg *config.Config,
	source repository.FeedSource,
	cls Classifiers,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalTableBuilder {
	return usecase.NewSignalTableBuilder(
		source,
		signals.NewSentimentAggregator(),
		signals.NewFundamentalsNormalizer(),
		signals.NewVolatilityClassifier(),
		cls.Sentiment,
		cls.Analyst,
		usecase.WithWindow(repository.WindowParams{
			RangeMonths:  cfg.Analytics.RangeMonths,
			Interval:     cfg.Analytics.Interval,
			WindowSize:   cfg.Analytics.WindowSize,
			Calculations: cfg.Analytics.Calculations,
		}),
		usecase.WithFetchTimeout(cfg.Feed.FetchTimeout),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	)
}

// ProvideSignalPublisher creates the Kafka row sink; nil when Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config, l *applogger.Logger) (repository.SignalPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithRequiredAcks(*cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaSignalPublisher(producer)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Error("close kafka producer", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideRateLimiter creates the per-client limiter of the HTTP API.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

// ProvideSignalsHandler creates the echo signals handler.
func ProvideSignalsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	builder *usecase.SignalTableBuilder,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return api.NewSignalsEchoHandler(l, builder, limiter, cfg.Server.MaxTickers)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	builder *usecase.SignalTableBuilder,
	publisher repository.SignalPublisher,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, builder, publisher, handler)
}
