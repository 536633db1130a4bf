// Package executor holds the trade-execution stub: a simulator that turns
// opportunities into paper fills. It is the only consumer subject to the
// global cooldown — detection and logging stay unthrottled.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
)

// SimulatorConfig holds the paper-trading parameters.
type SimulatorConfig struct {
	// Cooldown is the minimum gap between simulated trades. Opportunities
	// arriving inside the window are skipped, not queued.
	Cooldown time.Duration

	// TradeSizeUSD is the notional per simulated trade.
	TradeSizeUSD float64

	// SlippageBps worsens both effective fill prices.
	SlippageBps float64
}

// Simulator executes opportunities on paper, tracking cumulative PnL. It
// plugs into the sink dispatcher like any other sink.
type Simulator struct {
	cfg    SimulatorConfig
	logger *slog.Logger
	m      *metrics.Metrics

	mu        sync.Mutex
	lastTrade time.Time
	tradeID   int64
	cumPnL    float64

	now func() time.Time
}

// NewSimulator creates a Simulator. m may be nil.
func NewSimulator(cfg SimulatorConfig, m *metrics.Metrics, logger *slog.Logger) *Simulator {
	if cfg.TradeSizeUSD <= 0 {
		cfg.TradeSizeUSD = 100
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "simulator")),
		m:      m,
		now:    time.Now,
	}
}

// Publish simulates one arbitrage round trip for the opportunity, unless the
// cooldown gate suppresses it.
func (s *Simulator) Publish(ctx context.Context, opp domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cfg.Cooldown > 0 && !s.lastTrade.IsZero() && now.Sub(s.lastTrade) < s.cfg.Cooldown {
		return nil
	}
	s.lastTrade = now
	s.tradeID++

	slip := s.cfg.SlippageBps / 10000
	effectiveBuy := opp.BuyPrice * (1 + slip)
	effectiveSell := opp.SellPrice * (1 - slip)

	var pnl float64
	if effectiveBuy > 0 {
		pnl = (effectiveSell - effectiveBuy) * (s.cfg.TradeSizeUSD / effectiveBuy)
	}
	s.cumPnL += pnl

	if s.m != nil {
		s.m.SimTrades.Inc()
	}
	s.logger.InfoContext(ctx, "simulated trade",
		slog.Int64("trade_id", s.tradeID),
		slog.String("buy_exchange", opp.BuyExchange),
		slog.Float64("buy_price", effectiveBuy),
		slog.String("sell_exchange", opp.SellExchange),
		slog.Float64("sell_price", effectiveSell),
		slog.Float64("pnl_usd", pnl),
		slog.Float64("cum_pnl_usd", s.cumPnL),
	)
	return nil
}

// Trades returns the number of simulated trades so far.
func (s *Simulator) Trades() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradeID
}

// CumulativePnL returns the running paper PnL in USD.
func (s *Simulator) CumulativePnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cumPnL
}

var _ domain.OpportunitySink = (*Simulator)(nil)
