package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

const binanceWSURL = "wss://stream.binance.com:9443/ws"

// BinanceVenue speaks the Binance spot websocket dialect: a SUBSCRIBE
// handshake, depth5 partial-book messages (full top-5 view, treated as a
// snapshot) and depthUpdate diff events (treated as differentials).
type BinanceVenue struct {
	symbol string // lowercase, e.g. "btcusdt"
	url    string
}

// NewBinanceVenue creates a venue for the given symbol, e.g. "BTCUSDT".
func NewBinanceVenue(symbol string) *BinanceVenue {
	return &BinanceVenue{
		symbol: strings.ToLower(strings.ReplaceAll(symbol, "-", "")),
		url:    binanceWSURL,
	}
}

func (v *BinanceVenue) Name() string { return "binance" }
func (v *BinanceVenue) URL() string  { return v.url }

func (v *BinanceVenue) SubscribePayloads() ([][]byte, error) {
	msg := map[string]any{
		"method": "SUBSCRIBE",
		"params": []string{fmt.Sprintf("%s@depth5@100ms", v.symbol)},
		"id":     1,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("binance: marshal subscribe: %w", err)
	}
	return [][]byte{raw}, nil
}

// binanceMessage is the union of the shapes the depth streams produce.
type binanceMessage struct {
	Event        string     `json:"e"`
	EventTime    int64      `json:"E"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
	DiffBids     [][]string `json:"b"`
	DiffAsks     [][]string `json:"a"`
	LastUpdateID *int64     `json:"lastUpdateId"`
	ID           int        `json:"id"`
}

func (v *BinanceVenue) Parse(raw []byte) (*domain.BookUpdate, error) {
	var msg binanceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("binance: decode: %w", err)
	}

	// Subscribe ack: {"result":null,"id":1}.
	if msg.ID != 0 {
		return nil, nil
	}

	switch {
	case msg.Event == "depthUpdate":
		bids := parseLevels(msg.DiffBids)
		asks := parseLevels(msg.DiffAsks)
		if len(bids) == 0 && len(asks) == 0 {
			return nil, nil
		}
		return &domain.BookUpdate{
			Exchange:  v.Name(),
			Bids:      bids,
			Asks:      asks,
			Timestamp: eventOrNow(msg.EventTime),
		}, nil

	case msg.LastUpdateID != nil:
		// depth5 partial: a complete top-5 view, so a full replace.
		bids := parseLevels(msg.Bids)
		asks := parseLevels(msg.Asks)
		if len(bids) == 0 && len(asks) == 0 {
			return nil, fmt.Errorf("binance: partial depth without levels")
		}
		u := &domain.BookUpdate{
			Exchange:  v.Name(),
			Snapshot:  true,
			Bids:      bids,
			Asks:      asks,
			Timestamp: time.Now().UTC(),
		}
		if len(bids) > 0 {
			u.BestBid = bids[0].Price
		}
		if len(asks) > 0 {
			u.BestAsk = asks[0].Price
		}
		return u, nil

	case msg.Event != "":
		// Other event types (trade, ticker) are not book-affecting.
		return nil, nil

	default:
		return nil, fmt.Errorf("binance: unexpected message shape")
	}
}

func eventOrNow(ms int64) time.Time {
	if t := msToTime(ms); !t.IsZero() {
		return t
	}
	return time.Now().UTC()
}
