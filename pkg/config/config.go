package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Logger      struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stderr"`
	} `yaml:"logger"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		DisableCORS     bool          `yaml:"disable_cors"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"5"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
		} `yaml:"rate_limit"`
		MaxTickers int `yaml:"max_tickers" default:"50" validate:"gte=1"`
	} `yaml:"server"`
	Metrics struct {
		Disabled bool   `yaml:"disabled"`
		Path     string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Universe struct {
		Tickers []string `yaml:"tickers"`
	} `yaml:"universe"`
	Feed struct {
		APIKey       string        `yaml:"api_key"`
		BaseURL      string        `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"url"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		RatePerMin   int           `yaml:"rate_per_min" default:"5" validate:"gte=1"`
		Burst        int           `yaml:"burst" default:"1" validate:"gte=1"`
		Retries      int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
		Concurrency  int           `yaml:"concurrency" default:"4" validate:"gte=1"`
		NewsLimit    int           `yaml:"news_limit" default:"200" validate:"gte=1,lte=1000"`
		ReplayDir    string        `yaml:"replay_dir"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"2m"`
	} `yaml:"feed"`
	Analytics struct {
		WindowSize   int      `yaml:"window_size" default:"20" validate:"gte=1"`
		RangeMonths  int      `yaml:"range_months" default:"12" validate:"gte=1"`
		Interval     string   `yaml:"interval" default:"DAILY" validate:"oneof=DAILY WEEKLY MONTHLY"`
		Calculations []string `yaml:"calculations"`
	} `yaml:"analytics"`
	Signals struct {
		SentimentLabels []string `yaml:"sentiment_labels"`
		AnalystLabels   []string `yaml:"analyst_labels"`
		Rounding        string   `yaml:"rounding" default:"half_away_from_zero" validate:"oneof=half_away_from_zero half_to_even"`
	} `yaml:"signals"`
	Cache struct {
		Disabled      bool          `yaml:"disabled"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"256"`
		TTL           time.Duration `yaml:"ttl" default:"1h"`
		NewsTTL       time.Duration `yaml:"news_ttl" default:"15m"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"finsignal"`
			PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Output struct {
		Format        string `yaml:"format" default:"table" validate:"oneof=table json csv"`
		Path          string `yaml:"path"`
		DropEmptyRows bool   `yaml:"drop_empty_rows"`
	} `yaml:"output"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"finsignal.signals"`
		RequiredAcks *int          `yaml:"required_acks" default:"-1"` // pointer: an explicit 0 must survive defaulting
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Default returns a configuration with every default applied and nothing loaded.
func Default() *Config {
	var c Config
	if err := applyDefaults(&c); err != nil {
		// defaults are static tags; a failure here is a programming error
		panic(err)
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyDefaults(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path skips the file and starts from defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else {
		var b []byte
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c = &Config{}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := applyDefaults(c); err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
	}

	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Universe.Tickers = SplitList(v)
	}
	if v := os.Getenv("REPLAY_DIR"); v != "" {
		c.Feed.ReplayDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
// The ticker universe is checked where a run is built, since serve mode takes it per request.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Feed.APIKey == "" && c.Feed.ReplayDir == "" {
		return fmt.Errorf("feed.api_key or feed.replay_dir is required")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Signals.SentimentLabels) != 2 {
		return fmt.Errorf("signals.sentiment_labels needs exactly 2 labels, got %d", len(c.Signals.SentimentLabels))
	}
	if len(c.Signals.AnalystLabels) != 2 {
		return fmt.Errorf("signals.analyst_labels needs exactly 2 labels, got %d", len(c.Signals.AnalystLabels))
	}
	return nil
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyDefaults(c *Config) error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	// slice defaults are not expressible as tags
	if len(c.Analytics.Calculations) == 0 {
		c.Analytics.Calculations = []string{"STDDEV"}
	}
	if len(c.Signals.SentimentLabels) == 0 {
		c.Signals.SentimentLabels = []string{"small", "strong"}
	}
	if len(c.Signals.AnalystLabels) == 0 {
		c.Signals.AnalystLabels = []string{"good", "very strong"}
	}
	return nil
}
