package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// Scanner
	setFloat64(&cfg.Scanner.Threshold, "ARBBOT_SCANNER_THRESHOLD")
	setFloat64(&cfg.Scanner.FeeBuy, "ARBBOT_SCANNER_FEE_BUY")
	setFloat64(&cfg.Scanner.FeeSell, "ARBBOT_SCANNER_FEE_SELL")
	setFloat64(&cfg.Scanner.SlippageBps, "ARBBOT_SCANNER_SLIPPAGE_BPS")
	setInt(&cfg.Scanner.ScanIntervalSeconds, "ARBBOT_SCANNER_SCAN_INTERVAL_SECONDS")
	setInt(&cfg.Scanner.TopN, "ARBBOT_SCANNER_TOP_N")

	// Executor
	setInt(&cfg.Executor.CooldownSeconds, "ARBBOT_EXECUTOR_COOLDOWN_SECONDS")
	setFloat64(&cfg.Executor.TradeSizeUSD, "ARBBOT_EXECUTOR_TRADE_SIZE_USD")

	// Feed
	setInt(&cfg.Feed.MaxBackoffSeconds, "ARBBOT_FEED_MAX_BACKOFF_SECONDS")
	setInt(&cfg.Feed.QueueSize, "ARBBOT_FEED_QUEUE_SIZE")
	setBool(&cfg.Feed.Binance.Enabled, "ARBBOT_FEED_BINANCE_ENABLED")
	setStr(&cfg.Feed.Binance.Symbol, "ARBBOT_FEED_BINANCE_SYMBOL")
	setBool(&cfg.Feed.Coinbase.Enabled, "ARBBOT_FEED_COINBASE_ENABLED")
	setStr(&cfg.Feed.Coinbase.Symbol, "ARBBOT_FEED_COINBASE_SYMBOL")
	setBool(&cfg.Feed.OKX.Enabled, "ARBBOT_FEED_OKX_ENABLED")
	setStr(&cfg.Feed.OKX.Symbol, "ARBBOT_FEED_OKX_SYMBOL")

	// Sink
	setStr(&cfg.Sink.CSVDir, "ARBBOT_SINK_CSV_DIR")
	setInt(&cfg.Sink.Buffer, "ARBBOT_SINK_BUFFER")

	// Redis
	setStr(&cfg.Redis.Addr, "ARBBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "ARBBOT_REDIS_TLS_ENABLED")

	// Postgres
	setStr(&cfg.Postgres.DSN, "ARBBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBBOT_POSTGRES_POOL_MIN_CONNS")

	// S3
	setStr(&cfg.S3.Endpoint, "ARBBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBBOT_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.SweepInterval, "ARBBOT_S3_SWEEP_INTERVAL")

	// Metrics
	setBool(&cfg.Metrics.Enabled, "ARBBOT_METRICS_ENABLED")
	setInt(&cfg.Metrics.Port, "ARBBOT_METRICS_PORT")

	// Top-level
	setStr(&cfg.Mode, "ARBBOT_MODE")
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
