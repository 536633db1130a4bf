package book

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

func diffUpdate(exchange string, bids, asks []domain.PriceLevel) *domain.BookUpdate {
	return &domain.BookUpdate{
		Exchange:  exchange,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UTC(),
	}
}

func TestApplyUpsertThenDelete(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("binance", []domain.PriceLevel{{Price: 100, Size: 2}}, nil))
	bb, ok := s.BestBid("binance")
	require.True(t, ok)
	assert.Equal(t, 100.0, bb.Price)
	assert.Equal(t, 2.0, bb.Size)

	// Delete wins last: size 0 removes the level entirely.
	s.Apply(diffUpdate("binance", []domain.PriceLevel{{Price: 100, Size: 0}}, nil))
	_, ok = s.BestBid("binance")
	assert.False(t, ok, "deleted price must be absent")
}

func TestApplyEpsilonSizeDeletes(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("okx", nil, []domain.PriceLevel{{Price: 50, Size: 1}}))
	s.Apply(diffUpdate("okx", nil, []domain.PriceLevel{{Price: 50, Size: 1e-15}}))

	_, ok := s.BestAsk("okx")
	assert.False(t, ok, "within-epsilon size must remove the level, not insert it")
}

func TestApplyDifferentialLeavesOtherLevels(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("binance",
		[]domain.PriceLevel{{Price: 100, Size: 1}, {Price: 99, Size: 2}},
		[]domain.PriceLevel{{Price: 101, Size: 1}, {Price: 102, Size: 2}},
	))
	// Update one ask, delete one bid; everything else must survive.
	s.Apply(diffUpdate("binance",
		[]domain.PriceLevel{{Price: 99, Size: 0}},
		[]domain.PriceLevel{{Price: 101, Size: 5}},
	))

	bids, asks := s.TopN("binance", 10)
	require.Len(t, bids, 1)
	require.Len(t, asks, 2)
	assert.Equal(t, 100.0, bids[0].Price)
	assert.Equal(t, 5.0, asks[0].Size)
}

func TestSnapshotReplacesPriorState(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("coinbase",
		[]domain.PriceLevel{{Price: 90, Size: 1}, {Price: 91, Size: 1}},
		[]domain.PriceLevel{{Price: 95, Size: 1}},
	))

	s.Apply(&domain.BookUpdate{
		Exchange: "coinbase",
		Snapshot: true,
		Bids:     []domain.PriceLevel{{Price: 100, Size: 3}},
		Asks:     []domain.PriceLevel{{Price: 101, Size: 4}},
	})

	bb, ok := s.BestBid("coinbase")
	require.True(t, ok)
	assert.Equal(t, 100.0, bb.Price)

	ba, ok := s.BestAsk("coinbase")
	require.True(t, ok)
	assert.Equal(t, 101.0, ba.Price)

	bids, asks := s.TopN("coinbase", 10)
	assert.Len(t, bids, 1, "prior incremental bids must be discarded")
	assert.Len(t, asks, 1, "prior incremental asks must be discarded")
}

func TestTopNOrderingAndTruncation(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("binance",
		[]domain.PriceLevel{
			{Price: 98, Size: 1}, {Price: 100, Size: 1}, {Price: 99, Size: 1}, {Price: 97, Size: 1},
		},
		[]domain.PriceLevel{
			{Price: 103, Size: 1}, {Price: 101, Size: 1}, {Price: 104, Size: 1}, {Price: 102, Size: 1},
		},
	))

	bids, asks := s.TopN("binance", 3)
	require.Len(t, bids, 3)
	require.Len(t, asks, 3)

	for i := 1; i < len(bids); i++ {
		assert.GreaterOrEqual(t, bids[i-1].Price, bids[i].Price, "bids must be non-increasing")
	}
	for i := 1; i < len(asks); i++ {
		assert.LessOrEqual(t, asks[i-1].Price, asks[i].Price, "asks must be non-decreasing")
	}
	assert.Equal(t, 100.0, bids[0].Price)
	assert.Equal(t, 101.0, asks[0].Price)
}

func TestTopNLargerThanBook(t *testing.T) {
	s := NewStore()
	s.Apply(diffUpdate("okx", []domain.PriceLevel{{Price: 10, Size: 1}}, nil))

	bids, asks := s.TopN("okx", 5)
	assert.Len(t, bids, 1)
	assert.Empty(t, asks)
}

func TestMalformedLevelDroppedOthersApplied(t *testing.T) {
	s := NewStore()

	s.Apply(diffUpdate("binance",
		[]domain.PriceLevel{
			{Price: math.NaN(), Size: 1},
			{Price: 100, Size: math.Inf(1)},
			{Price: 99, Size: -3},
			{Price: 98, Size: 2},
		},
		nil,
	))

	bids, _ := s.TopN("binance", 10)
	require.Len(t, bids, 1, "only the well-formed level survives")
	assert.Equal(t, 98.0, bids[0].Price)
}

func TestSnapshotAllIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.Apply(diffUpdate("binance",
		[]domain.PriceLevel{{Price: 100, Size: 1}},
		[]domain.PriceLevel{{Price: 101, Size: 1}},
	))

	snap := s.SnapshotAll(10)
	require.Contains(t, snap, "binance")
	assert.True(t, snap["binance"].Usable())

	// Mutating the store after the snapshot must not leak into the copy.
	s.Apply(diffUpdate("binance", []domain.PriceLevel{{Price: 100, Size: 0}}, nil))
	assert.Equal(t, 100.0, snap["binance"].BestBid)
	assert.Len(t, snap["binance"].Bids, 1)
}

func TestSnapshotAllConsistentInstant(t *testing.T) {
	s := NewStore()
	s.Apply(diffUpdate("a", []domain.PriceLevel{{Price: 1, Size: 1}}, []domain.PriceLevel{{Price: 2, Size: 1}}))
	s.Apply(diffUpdate("b", []domain.PriceLevel{{Price: 3, Size: 1}}, []domain.PriceLevel{{Price: 4, Size: 1}}))

	snap := s.SnapshotAll(10)
	assert.Len(t, snap, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, s.Exchanges())
}

func TestUnknownExchangeQueries(t *testing.T) {
	s := NewStore()
	_, ok := s.BestBid("nope")
	assert.False(t, ok)
	bids, asks := s.TopN("nope", 3)
	assert.Nil(t, bids)
	assert.Nil(t, asks)
}
