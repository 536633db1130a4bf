package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/popeflizzy/CryptoArbitrageBot/internal/blob/s3"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/book"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/cache/redis"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/config"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/executor"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/feed"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/health"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/scanner"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/sink"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Metrics    *metrics.Metrics
	Books      *book.Store
	Queue      *feed.Queue
	Tracker    *health.LatencyTracker
	Clients    []*feed.StreamClient
	Consumer   *feed.Consumer
	Scanner    *scanner.Scanner
	Dispatcher *sink.Dispatcher
	CSV        *sink.CSVSink
	Simulator  *executor.Simulator
	Archiver   *s3blob.Archiver
}

// needsSimulator returns true for modes that paper-trade opportunities.
func needsSimulator(mode string) bool {
	switch mode {
	case "simulate", "full":
		return true
	default:
		return false
	}
}

// needsInfra returns true for modes that wire redis, postgres, and s3.
func needsInfra(mode string) bool {
	return mode == "full"
}

// Wire constructs all concrete dependencies from the given configuration and
// returns them together with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mode := strings.ToLower(cfg.Mode)

	deps := &Dependencies{
		Metrics: metrics.New(),
		Books:   book.NewStore(),
		Tracker: health.NewLatencyTracker(logger),
	}
	deps.Queue = feed.NewQueue(cfg.Feed.QueueSize, deps.Metrics)
	deps.Consumer = feed.NewConsumer(deps.Queue, deps.Books, deps.Tracker, logger)

	// Venue feeds.
	var venues []feed.Venue
	if cfg.Feed.Binance.Enabled {
		venues = append(venues, feed.NewBinanceVenue(cfg.Feed.Binance.Symbol))
	}
	if cfg.Feed.Coinbase.Enabled {
		venues = append(venues, feed.NewCoinbaseVenue(cfg.Feed.Coinbase.Symbol))
	}
	if cfg.Feed.OKX.Enabled {
		venues = append(venues, feed.NewOKXVenue(cfg.Feed.OKX.Symbol))
	}
	for _, v := range venues {
		deps.Clients = append(deps.Clients,
			feed.NewStreamClient(v, deps.Queue, cfg.Feed.MaxBackoff(), deps.Metrics, logger))
	}

	// Sinks. Logging and CSV run in every mode.
	sinks := []domain.OpportunitySink{sink.NewLogSink(logger)}

	csvSink, err := sink.NewCSVSink(cfg.Sink.CSVDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: csv sink: %w", err)
	}
	closers = append(closers, func() { _ = csvSink.Close() })
	deps.CSV = csvSink
	sinks = append(sinks, csvSink)

	if needsSimulator(mode) {
		deps.Simulator = executor.NewSimulator(executor.SimulatorConfig{
			Cooldown:     cfg.Executor.Cooldown(),
			TradeSizeUSD: cfg.Executor.TradeSizeUSD,
			SlippageBps:  cfg.Scanner.SlippageBps,
		}, deps.Metrics, logger)
		sinks = append(sinks, deps.Simulator)
	}

	if needsInfra(mode) {
		// Redis signal bus.
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		sinks = append(sinks, sink.NewBusSink(redis.NewSignalBus(redisClient)))

		// PostgreSQL opportunity store.
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		if err := pgClient.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres schema: %w", err)
		}
		sinks = append(sinks, sink.NewStoreSink(postgres.NewOpportunityStore(pgClient.Pool())))

		// S3 archiver for rotated CSV logs.
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client), csvSink, cfg.S3.SweepInterval.Duration, logger)
	}

	deps.Dispatcher = sink.NewDispatcher(cfg.Sink.Buffer, deps.Metrics, logger, sinks...)

	deps.Scanner = scanner.New(scanner.Config{
		Interval:    cfg.Scanner.ScanInterval(),
		Threshold:   cfg.Scanner.Threshold,
		FeeBuy:      cfg.Scanner.FeeBuy,
		FeeSell:     cfg.Scanner.FeeSell,
		SlippageBps: cfg.Scanner.SlippageBps,
		TopN:        cfg.Scanner.TopN,
	}, deps.Books, deps.Dispatcher, deps.Metrics, logger)

	return deps, cleanup, nil
}
