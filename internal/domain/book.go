// Package domain holds the normalized market-data types and the interfaces
// shared by the feed, book, scanner, and sink layers. It has no dependencies
// on any concrete infrastructure.
package domain

import "time"

// PriceLevel is a single price+size entry in an order book. A Size of zero is
// a delete sentinel for that price, never a resting order.
type PriceLevel struct {
	Price float64
	Size  float64
}

// BookUpdate is the normalized form every stream client produces and the
// order-book store consumes. It carries either a full snapshot (Snapshot true,
// complete bid/ask lists) or a differential update (only the levels that
// changed). Immutable after construction.
type BookUpdate struct {
	Exchange string
	Snapshot bool
	Bids     []PriceLevel
	Asks     []PriceLevel

	// BestBid/BestAsk are advisory top-of-book hints from venues that report
	// them directly; zero when the venue does not. The store derives its own
	// best prices from the level maps regardless.
	BestBid float64
	BestAsk float64

	Timestamp time.Time
}

// BookTop is the point-in-time top-of-book view of one exchange, as returned
// by the store's snapshot API.
type BookTop struct {
	Exchange  string
	BestBid   float64
	BestAsk   float64
	HasBid    bool
	HasAsk    bool
	Bids      []PriceLevel // descending by price
	Asks      []PriceLevel // ascending by price
	UpdatedAt time.Time
}

// Usable reports whether this exchange has both sides of the book populated
// and can participate in a cross-exchange comparison.
func (t BookTop) Usable() bool {
	return t.HasBid && t.HasAsk
}
