package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

const coinbaseWSURL = "wss://ws-feed.exchange.coinbase.com"

// CoinbaseVenue speaks the Coinbase Exchange level2 dialect: a full snapshot
// on subscribe followed by l2update differentials with side-tagged changes.
type CoinbaseVenue struct {
	productID string // e.g. "BTC-USDT"
	url       string
}

// NewCoinbaseVenue creates a venue for the given product, e.g. "BTC-USDT".
func NewCoinbaseVenue(productID string) *CoinbaseVenue {
	return &CoinbaseVenue{
		productID: strings.ToUpper(productID),
		url:       coinbaseWSURL,
	}
}

func (v *CoinbaseVenue) Name() string { return "coinbase" }
func (v *CoinbaseVenue) URL() string  { return v.url }

func (v *CoinbaseVenue) SubscribePayloads() ([][]byte, error) {
	msg := map[string]any{
		"type":        "subscribe",
		"product_ids": []string{v.productID},
		"channels":    []string{"level2"},
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("coinbase: marshal subscribe: %w", err)
	}
	return [][]byte{raw}, nil
}

type coinbaseMessage struct {
	Type    string     `json:"type"`
	Time    string     `json:"time"`
	Bids    [][]string `json:"bids"`
	Asks    [][]string `json:"asks"`
	Changes [][]string `json:"changes"`
}

func (v *CoinbaseVenue) Parse(raw []byte) (*domain.BookUpdate, error) {
	var msg coinbaseMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("coinbase: decode: %w", err)
	}

	switch msg.Type {
	case "snapshot":
		bids := parseLevels(msg.Bids)
		asks := parseLevels(msg.Asks)
		if len(bids) == 0 && len(asks) == 0 {
			return nil, fmt.Errorf("coinbase: snapshot without levels")
		}
		return &domain.BookUpdate{
			Exchange:  v.Name(),
			Snapshot:  true,
			Bids:      bids,
			Asks:      asks,
			Timestamp: v.parseTime(msg.Time),
		}, nil

	case "l2update":
		update := &domain.BookUpdate{
			Exchange:  v.Name(),
			Timestamp: v.parseTime(msg.Time),
		}
		for _, change := range msg.Changes {
			if len(change) < 3 {
				continue
			}
			lvls := parseLevels([][]string{{change[1], change[2]}})
			if len(lvls) == 0 {
				continue
			}
			switch strings.ToLower(change[0]) {
			case "buy", "b":
				update.Bids = append(update.Bids, lvls[0])
			case "sell", "s":
				update.Asks = append(update.Asks, lvls[0])
			}
		}
		if len(update.Bids) == 0 && len(update.Asks) == 0 {
			return nil, nil
		}
		return update, nil

	case "subscriptions", "heartbeat", "ticker", "match", "last_match":
		return nil, nil

	case "error":
		return nil, fmt.Errorf("coinbase: venue error message")

	default:
		if msg.Type == "" {
			return nil, fmt.Errorf("coinbase: unexpected message shape")
		}
		return nil, nil
	}
}

func (v *CoinbaseVenue) parseTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}
