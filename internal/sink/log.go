package sink

import (
	"context"
	"log/slog"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// LogSink narrates every opportunity to the structured log. It is never
// throttled: cooldown applies to the execution path only.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "opportunity_log"))}
}

// Publish logs the opportunity.
func (s *LogSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	s.logger.InfoContext(ctx, "arbitrage opportunity",
		slog.String("sell_exchange", opp.SellExchange),
		slog.Float64("sell_price", opp.SellPrice),
		slog.String("buy_exchange", opp.BuyExchange),
		slog.Float64("buy_price", opp.BuyPrice),
		slog.Float64("net_spread", opp.NetSpread),
		slog.Float64("profit_pct", opp.ProfitPct*100),
	)
	return nil
}

var _ domain.OpportunitySink = (*LogSink)(nil)
