// Package book maintains the in-memory order-book state for every exchange.
// The Store is the single place price-level semantics are enforced: all
// mutation goes through Apply, serialized by one mutex, and every read API
// observes a state consistent with the latest applied update.
package book

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// sizeEpsilon treats within-epsilon-of-zero sizes as deletes, matching the
// venues that report residual dust instead of an exact zero.
const sizeEpsilon = 1e-12

// exchangeBook is the per-exchange state: price->size maps for each side.
// Keys are unique; ordering is derived at query time. Invariant: a price key
// present in a map always has size > 0.
type exchangeBook struct {
	bids      map[float64]float64
	asks      map[float64]float64
	updatedAt time.Time
}

func newExchangeBook() *exchangeBook {
	return &exchangeBook{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Store holds one exchangeBook per exchange. Books are created lazily on the
// first update for an exchange and live for the process lifetime.
type Store struct {
	mu    sync.Mutex
	books map[string]*exchangeBook
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{books: make(map[string]*exchangeBook)}
}

// Apply merges one normalized update into the target exchange's book. A
// snapshot update atomically clears and replaces both sides; a differential
// update upserts (size > 0) or deletes (size == 0 or within epsilon) each
// carried level independently and leaves every other level untouched.
// Individual levels with non-finite or negative price/size are dropped
// without affecting the rest of the update.
func (s *Store) Apply(u *domain.BookUpdate) {
	if u == nil || u.Exchange == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eb, ok := s.books[u.Exchange]
	if !ok {
		eb = newExchangeBook()
		s.books[u.Exchange] = eb
	}

	if u.Snapshot {
		eb.bids = make(map[float64]float64, len(u.Bids))
		eb.asks = make(map[float64]float64, len(u.Asks))
	}

	for _, lvl := range u.Bids {
		applyLevel(eb.bids, lvl)
	}
	for _, lvl := range u.Asks {
		applyLevel(eb.asks, lvl)
	}

	if !u.Timestamp.IsZero() {
		eb.updatedAt = u.Timestamp
	} else {
		eb.updatedAt = time.Now().UTC()
	}
}

func applyLevel(side map[float64]float64, lvl domain.PriceLevel) {
	if !validPrice(lvl.Price) {
		return
	}
	if math.Abs(lvl.Size) < sizeEpsilon {
		delete(side, lvl.Price)
		return
	}
	if !validSize(lvl.Size) {
		return
	}
	side[lvl.Price] = lvl.Size
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

func validSize(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0) && q > 0
}

// BestBid returns the maximum bid price for the exchange. ok is false when
// the exchange is unknown or its bid side is empty.
func (s *Store) BestBid(exchange string) (domain.PriceLevel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eb, ok := s.books[exchange]
	if !ok {
		return domain.PriceLevel{}, false
	}
	return bestOf(eb.bids, true)
}

// BestAsk returns the minimum ask price for the exchange. ok is false when
// the exchange is unknown or its ask side is empty.
func (s *Store) BestAsk(exchange string) (domain.PriceLevel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eb, ok := s.books[exchange]
	if !ok {
		return domain.PriceLevel{}, false
	}
	return bestOf(eb.asks, false)
}

func bestOf(side map[float64]float64, highest bool) (domain.PriceLevel, bool) {
	if len(side) == 0 {
		return domain.PriceLevel{}, false
	}
	first := true
	var best float64
	for p := range side {
		if first || (highest && p > best) || (!highest && p < best) {
			best = p
			first = false
		}
	}
	return domain.PriceLevel{Price: best, Size: side[best]}, true
}

// TopN returns the top n bids (descending by price) and asks (ascending by
// price) for the exchange, computed fresh from the current map state.
func (s *Store) TopN(exchange string, n int) (bids, asks []domain.PriceLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eb, ok := s.books[exchange]
	if !ok {
		return nil, nil
	}
	return sortedLevels(eb.bids, true, n), sortedLevels(eb.asks, false, n)
}

func sortedLevels(side map[float64]float64, descending bool, n int) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(side))
	for p, q := range side {
		levels = append(levels, domain.PriceLevel{Price: p, Size: q})
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	if n > 0 && len(levels) > n {
		levels = levels[:n]
	}
	return levels
}

// SnapshotAll returns a deep, point-in-time copy of every exchange's
// top-of-book plus its top-n depth, taken under a single lock acquisition so
// a scanning component observes one consistent instant.
func (s *Store) SnapshotAll(topN int) map[string]domain.BookTop {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.BookTop, len(s.books))
	for ex, eb := range s.books {
		top := domain.BookTop{
			Exchange:  ex,
			Bids:      sortedLevels(eb.bids, true, topN),
			Asks:      sortedLevels(eb.asks, false, topN),
			UpdatedAt: eb.updatedAt,
		}
		if bb, ok := bestOf(eb.bids, true); ok {
			top.BestBid = bb.Price
			top.HasBid = true
		}
		if ba, ok := bestOf(eb.asks, false); ok {
			top.BestAsk = ba.Price
			top.HasAsk = true
		}
		out[ex] = top
	}
	return out
}

// Exchanges returns the names of all exchanges the store has seen.
func (s *Store) Exchanges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.books))
	for ex := range s.books {
		names = append(names, ex)
	}
	sort.Strings(names)
	return names
}
