package scanner

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

type fakeSource struct {
	books map[string]domain.BookTop
}

func (f *fakeSource) SnapshotAll(topN int) map[string]domain.BookTop {
	return f.books
}

func top(exchange string, bid, ask float64) domain.BookTop {
	return domain.BookTop{
		Exchange:  exchange,
		BestBid:   bid,
		BestAsk:   ask,
		HasBid:    bid > 0,
		HasAsk:    ask > 0,
		UpdatedAt: time.Now().UTC(),
	}
}

func newTestScanner(cfg Config, source BookSource) *Scanner {
	return New(cfg, source, nil, nil, slog.Default())
}

func TestScanDetectsProfitableSpread(t *testing.T) {
	source := &fakeSource{books: map[string]domain.BookTop{
		"alpha": top("alpha", 101, 101.5),
		"beta":  top("beta", 99.5, 100),
	}}
	s := newTestScanner(Config{
		Threshold: 0.001,
		FeeBuy:    0.001,
		FeeSell:   0.001,
	}, source)

	opps := s.Scan()
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "alpha", opp.SellExchange)
	assert.Equal(t, "beta", opp.BuyExchange)
	assert.Equal(t, 101.0, opp.SellPrice)
	assert.Equal(t, 100.0, opp.BuyPrice)
	assert.InDelta(t, 1.0, opp.GrossSpread, 1e-9)

	// sell 101 less 0.1% fee = 100.899, buy 100 plus 0.1% fee = 100.1.
	assert.InDelta(t, 0.799, opp.NetSpread, 1e-9)
	assert.InDelta(t, 0.799/100.1, opp.ProfitPct, 1e-9)
	assert.NotEmpty(t, opp.ID)
	assert.False(t, opp.DetectedAt.IsZero())
}

func TestScanBelowThresholdEmitsNothing(t *testing.T) {
	source := &fakeSource{books: map[string]domain.BookTop{
		"alpha": top("alpha", 100.05, 100.2),
		"beta":  top("beta", 99.9, 100),
	}}
	s := newTestScanner(Config{
		Threshold: 0.001,
		FeeBuy:    0.001,
		FeeSell:   0.001,
	}, source)

	assert.Empty(t, s.Scan())
}

func TestScanSlippageErodesProfit(t *testing.T) {
	books := map[string]domain.BookTop{
		"alpha": top("alpha", 101, 101.5),
		"beta":  top("beta", 99.5, 100),
	}

	noSlip := newTestScanner(Config{Threshold: 0.001, FeeBuy: 0.001, FeeSell: 0.001}, &fakeSource{books: books})
	withSlip := newTestScanner(Config{Threshold: 0.001, FeeBuy: 0.001, FeeSell: 0.001, SlippageBps: 10}, &fakeSource{books: books})

	base := noSlip.Scan()
	eroded := withSlip.Scan()
	require.Len(t, base, 1)
	require.Len(t, eroded, 1)
	assert.Less(t, eroded[0].ProfitPct, base[0].ProfitPct)

	// Gross spread is reported pre-slippage in both cases.
	assert.Equal(t, base[0].GrossSpread, eroded[0].GrossSpread)
}

func TestScanRequiresTwoUsableBooks(t *testing.T) {
	s := newTestScanner(Config{Threshold: 0}, &fakeSource{books: map[string]domain.BookTop{
		"alpha": top("alpha", 101, 101.5),
	}})
	assert.Empty(t, s.Scan())

	// A one-sided book does not count as usable.
	s = newTestScanner(Config{Threshold: 0}, &fakeSource{books: map[string]domain.BookTop{
		"alpha": top("alpha", 101, 101.5),
		"beta":  top("beta", 0, 100),
	}})
	assert.Empty(t, s.Scan())
}

func TestScanChecksBothDirections(t *testing.T) {
	// Beta's bid is above alpha's ask, so the profitable direction is
	// sell beta / buy alpha.
	source := &fakeSource{books: map[string]domain.BookTop{
		"alpha": top("alpha", 99.5, 100),
		"beta":  top("beta", 101, 101.5),
	}}
	s := newTestScanner(Config{Threshold: 0.001, FeeBuy: 0.001, FeeSell: 0.001}, source)

	opps := s.Scan()
	require.Len(t, opps, 1)
	assert.Equal(t, "beta", opps[0].SellExchange)
	assert.Equal(t, "alpha", opps[0].BuyExchange)
}

func TestScanZeroCostGuard(t *testing.T) {
	// Degenerate zero prices never divide by zero or emit.
	source := &fakeSource{books: map[string]domain.BookTop{
		"alpha": {Exchange: "alpha", BestBid: 1, HasBid: true, HasAsk: true},
		"beta":  {Exchange: "beta", BestBid: 1, HasBid: true, HasAsk: true},
	}}
	s := newTestScanner(Config{Threshold: 0.5}, source)
	assert.Empty(t, s.Scan())
}
