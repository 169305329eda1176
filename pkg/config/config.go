package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TradePilot/pkg/logger"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Market struct {
		Timezone    string   `yaml:"timezone" default:"Asia/Kolkata"`
		OpenMinute  int      `yaml:"open_minute" default:"555" validate:"gte=0,lt=1440"`
		CloseMinute int      `yaml:"close_minute" default:"930" validate:"gte=0,lt=1440,gtfield=OpenMinute"`
		Holidays    []string `yaml:"holidays"`
	} `yaml:"market"`
	Feed struct {
		TickInterval      time.Duration `yaml:"tick_interval" default:"1s"`
		ResyncInterval    time.Duration `yaml:"resync_interval" default:"10s"`
		QuoteTimeout      time.Duration `yaml:"quote_timeout" default:"5s"`
		DefaultVolatility float64       `yaml:"default_volatility" default:"0.0005" validate:"gt=0,lt=1"`
		ResyncConcurrency int           `yaml:"resync_concurrency" default:"4" validate:"gte=1"`
		Seed              int64         `yaml:"seed"` // 0 means seeded from the clock
	} `yaml:"feed"`
	Ledger struct {
		StartingCash     float64       `yaml:"starting_cash" default:"100000" validate:"gt=0"`
		RapidTradeWindow time.Duration `yaml:"rapid_trade_window" default:"30s"`
		PIN              string        `yaml:"pin" default:"1234" validate:"required"`
		HistoryLimit     int           `yaml:"history_limit" default:"50" validate:"gte=1"`
		SnapshotInterval time.Duration `yaml:"snapshot_interval" default:"60s"`
		Watchlist        []string      `yaml:"watchlist"`
	} `yaml:"ledger"`
	Yahoo struct {
		BaseURL      string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
		UserAgent    string        `yaml:"user_agent" default:"Mozilla/5.0"`
		Timeout      time.Duration `yaml:"timeout" default:"5s"`
		RateCapacity int           `yaml:"rate_capacity" default:"10" validate:"gte=1"`
		RatePerSec   float64       `yaml:"rate_per_sec" default:"5" validate:"gt=0"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"5s"`
	} `yaml:"yahoo"`
	Storage struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Prefix  string `yaml:"prefix" default:"tradepilot:"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
		} `yaml:"redis"`
	} `yaml:"storage"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"tradepilot.trades"`
		LogTopic     string   `yaml:"log_topic" default:"tradepilot.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"tradepilot-journal"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"tradepilot.trades.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"tradepilot"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		Table        string        `yaml:"table" default:"trades"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration populated only from default tags.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	c.applyFallbacks()
	return &c, nil
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		c.applyFallbacks()
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, reads .env if present and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRADEPILOT_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("TRADEPILOT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TRADEPILOT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TRADEPILOT_PIN"); v != "" {
		c.Ledger.PIN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Ledger.Watchlist = splitList(v)
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := splitHostPort(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_ADDR: %w", err)
		}
		c.Storage.Redis.Host, c.Storage.Redis.Port = host, port
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("clickhouse journal requires kafka to be enabled")
	}
	if c.Feed.TickInterval <= 0 || c.Feed.ResyncInterval <= 0 {
		return fmt.Errorf("feed intervals must be positive")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil && c.Market.Timezone != "Asia/Kolkata" {
		return fmt.Errorf("market.timezone: %w", err)
	}
	for _, d := range c.Market.Holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("market.holidays: %q is not YYYY-MM-DD", d)
		}
	}
	return nil
}

// applyFallbacks fills slice fields that default tags cannot express.
func (c *Config) applyFallbacks() {
	if len(c.Ledger.Watchlist) == 0 {
		c.Ledger.Watchlist = []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS"}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitHostPort(addr string) (string, int, error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 6379, nil
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, err
	}
	return addr[:i], port, nil
}
