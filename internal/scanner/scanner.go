// Package scanner evaluates all ordered exchange pairs for fee- and
// slippage-adjusted arbitrage on a fixed cadence and emits opportunity
// records above the profitability threshold.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
)

// BookSource is the locked-snapshot view the scanner reads. Satisfied by
// *book.Store.
type BookSource interface {
	SnapshotAll(topN int) map[string]domain.BookTop
}

// Emitter receives emitted opportunities without blocking. Satisfied by
// *sink.Dispatcher.
type Emitter interface {
	Offer(opp domain.Opportunity) bool
}

// Config holds the scan parameters. All values are decimal fractions except
// SlippageBps (basis points) and the durations.
type Config struct {
	Interval    time.Duration
	Threshold   float64 // e.g. 0.001 == 0.1%
	FeeBuy      float64
	FeeSell     float64
	SlippageBps float64
	TopN        int
}

// Scanner runs the periodic cross-exchange scan. It holds no state between
// ticks beyond its configuration; every tick works from a fresh consistent
// snapshot of the store.
type Scanner struct {
	cfg     Config
	source  BookSource
	emitter Emitter
	logger  *slog.Logger
	m       *metrics.Metrics
}

// New creates a Scanner. m may be nil.
func New(cfg Config, source BookSource, emitter Emitter, m *metrics.Metrics, logger *slog.Logger) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Scanner{
		cfg:     cfg,
		source:  source,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "scanner")),
		m:       m,
	}
}

// Run ticks until ctx is cancelled. Emission never blocks the loop: the
// emitter sheds on backpressure.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Float64("threshold", s.cfg.Threshold),
		slog.Float64("fee_buy", s.cfg.FeeBuy),
		slog.Float64("fee_sell", s.cfg.FeeSell),
	)
	defer s.logger.Info("scanner stopped")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, opp := range s.Scan() {
				if s.m != nil {
					s.m.Opportunities.Inc()
				}
				s.emitter.Offer(opp)
			}
		}
	}
}

// Scan takes one consistent snapshot and returns every opportunity at or
// above the threshold across all ordered exchange pairs.
func (s *Scanner) Scan() []domain.Opportunity {
	books := s.source.SnapshotAll(s.cfg.TopN)

	usable := make([]domain.BookTop, 0, len(books))
	for _, top := range books {
		if top.Usable() {
			usable = append(usable, top)
		}
	}
	if len(usable) < 2 {
		return nil
	}

	now := time.Now().UTC()
	slip := s.cfg.SlippageBps / 10000

	var opps []domain.Opportunity
	for _, sell := range usable {
		for _, buy := range usable {
			if sell.Exchange == buy.Exchange {
				continue
			}

			gross := sell.BestBid - buy.BestAsk

			sellPx := sell.BestBid * (1 - slip)
			buyPx := buy.BestAsk * (1 + slip)
			netReceive := sellPx * (1 - s.cfg.FeeSell)
			netCost := buyPx * (1 + s.cfg.FeeBuy)
			netSpread := netReceive - netCost

			profitPct := 0.0
			if netCost != 0 {
				profitPct = netSpread / netCost
			}
			if profitPct < s.cfg.Threshold {
				continue
			}

			opps = append(opps, domain.Opportunity{
				ID:           uuid.Must(uuid.NewRandom()).String(),
				SellExchange: sell.Exchange,
				BuyExchange:  buy.Exchange,
				SellPrice:    sell.BestBid,
				BuyPrice:     buy.BestAsk,
				GrossSpread:  gross,
				NetSpread:    netSpread,
				ProfitPct:    profitPct,
				FeeBuy:       s.cfg.FeeBuy,
				FeeSell:      s.cfg.FeeSell,
				TsSell:       sell.UpdatedAt,
				TsBuy:        buy.UpdatedAt,
				DetectedAt:   now,
			})
		}
	}
	return opps
}
