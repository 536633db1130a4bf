// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Scanner  ScannerConfig  `toml:"scanner"`
	Executor ExecutorConfig `toml:"executor"`
	Feed     FeedConfig     `toml:"feed"`
	Sink     SinkConfig     `toml:"sink"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ScannerConfig holds spread-detection parameters.
type ScannerConfig struct {
	// Threshold is the minimum net profit as a decimal fraction (0.001 = 0.1%).
	Threshold float64 `toml:"threshold"`

	// FeeBuy and FeeSell are taker fees as decimal fractions.
	FeeBuy  float64 `toml:"fee_buy"`
	FeeSell float64 `toml:"fee_sell"`

	// SlippageBps worsens both legs' prices before fees are applied.
	SlippageBps float64 `toml:"slippage_bps"`

	// ScanIntervalSeconds is the gap between scan passes.
	ScanIntervalSeconds int `toml:"scan_interval_seconds"`

	// TopN is how many levels per side book snapshots carry.
	TopN int `toml:"top_n"`
}

// ExecutorConfig holds paper-trading parameters.
type ExecutorConfig struct {
	// CooldownSeconds is the minimum gap between simulated trades.
	CooldownSeconds int `toml:"cooldown_seconds"`

	// TradeSizeUSD is the notional per simulated trade.
	TradeSizeUSD float64 `toml:"trade_size_usd"`
}

// ExchangeConfig enables one venue feed and names the instrument to stream.
type ExchangeConfig struct {
	Enabled bool   `toml:"enabled"`
	Symbol  string `toml:"symbol"`
}

// FeedConfig holds websocket feed parameters.
type FeedConfig struct {
	// MaxBackoffSeconds caps the reconnect delay per venue.
	MaxBackoffSeconds int `toml:"max_backoff_seconds"`

	// QueueSize bounds the normalization queue; overflow drops newest.
	QueueSize int `toml:"queue_size"`

	Binance  ExchangeConfig `toml:"binance"`
	Coinbase ExchangeConfig `toml:"coinbase"`
	OKX      ExchangeConfig `toml:"okx"`
}

// SinkConfig holds opportunity output parameters.
type SinkConfig struct {
	// CSVDir is the directory daily CSV logs rotate in.
	CSVDir string `toml:"csv_dir"`

	// Buffer bounds the dispatcher queue; overflow drops newest.
	Buffer int `toml:"buffer"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	SweepInterval  duration `toml:"sweep_interval"`
}

// MetricsConfig holds the Prometheus endpoint parameters.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "5m" or "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scanner: ScannerConfig{
			Threshold:           0.001,
			FeeBuy:              0.001,
			FeeSell:             0.001,
			SlippageBps:         2,
			ScanIntervalSeconds: 1,
			TopN:                10,
		},
		Executor: ExecutorConfig{
			CooldownSeconds: 5,
			TradeSizeUSD:    100,
		},
		Feed: FeedConfig{
			MaxBackoffSeconds: 30,
			QueueSize:         1024,
			Binance:           ExchangeConfig{Enabled: true, Symbol: "BTCUSDT"},
			Coinbase:          ExchangeConfig{Enabled: true, Symbol: "BTC-USDT"},
			OKX:               ExchangeConfig{Enabled: true, Symbol: "BTC-USDT"},
		},
		Sink: SinkConfig{
			CSVDir: "data",
			Buffer: 256,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 20,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "arbbot",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
			SweepInterval:  duration{time.Hour},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor":  true,
	"simulate": true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, simulate, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scanner
	if c.Scanner.Threshold < 0 {
		errs = append(errs, "scanner: threshold must be >= 0")
	}
	if c.Scanner.FeeBuy < 0 || c.Scanner.FeeSell < 0 {
		errs = append(errs, "scanner: fees must be >= 0")
	}
	if c.Scanner.SlippageBps < 0 {
		errs = append(errs, "scanner: slippage_bps must be >= 0")
	}
	if c.Scanner.ScanIntervalSeconds <= 0 {
		errs = append(errs, "scanner: scan_interval_seconds must be > 0")
	}
	if c.Scanner.TopN < 1 {
		errs = append(errs, "scanner: top_n must be >= 1")
	}

	// Executor
	if c.Executor.CooldownSeconds < 0 {
		errs = append(errs, "executor: cooldown_seconds must be >= 0")
	}
	if c.Executor.TradeSizeUSD <= 0 {
		errs = append(errs, "executor: trade_size_usd must be > 0")
	}

	// Feed
	if c.Feed.MaxBackoffSeconds < 1 {
		errs = append(errs, "feed: max_backoff_seconds must be >= 1")
	}
	if c.Feed.QueueSize < 1 {
		errs = append(errs, "feed: queue_size must be >= 1")
	}
	enabled := 0
	for name, ex := range map[string]ExchangeConfig{
		"binance":  c.Feed.Binance,
		"coinbase": c.Feed.Coinbase,
		"okx":      c.Feed.OKX,
	} {
		if !ex.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(ex.Symbol) == "" {
			errs = append(errs, fmt.Sprintf("feed: %s.symbol must not be empty when enabled", name))
		}
	}
	if enabled == 0 {
		errs = append(errs, "feed: at least one exchange must be enabled")
	}

	// Sink
	if c.Sink.CSVDir == "" {
		errs = append(errs, "sink: csv_dir must not be empty")
	}
	if c.Sink.Buffer < 1 {
		errs = append(errs, "sink: buffer must be >= 1")
	}

	// Full mode wires redis, postgres, and s3; their settings must be usable.
	if strings.ToLower(c.Mode) == "full" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty for mode full")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty for mode full")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty for mode full")
		}
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			errs = append(errs, fmt.Sprintf("metrics: port must be 1-65535, got %d", c.Metrics.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ScanInterval returns the scan interval as a time.Duration.
func (c *ScannerConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// Cooldown returns the trade cooldown as a time.Duration.
func (c *ExecutorConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// MaxBackoff returns the reconnect cap as a time.Duration.
func (c *FeedConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSeconds) * time.Second
}
