package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

const okxWSURL = "wss://ws.okx.com:8443/ws/v5/public"

// OKXVenue speaks the OKX v5 public dialect, subscribing to the books5
// channel. Every books5 push carries the complete top-5 view, so each is
// treated as a snapshot.
type OKXVenue struct {
	instID string // e.g. "BTC-USDT"
	url    string
}

// NewOKXVenue creates a venue for the given instrument, e.g. "BTC-USDT".
func NewOKXVenue(instID string) *OKXVenue {
	return &OKXVenue{
		instID: strings.ToUpper(instID),
		url:    okxWSURL,
	}
}

func (v *OKXVenue) Name() string { return "okx" }
func (v *OKXVenue) URL() string  { return v.url }

func (v *OKXVenue) SubscribePayloads() ([][]byte, error) {
	msg := map[string]any{
		"op": "subscribe",
		"args": []map[string]string{
			{"channel": "books5", "instId": v.instID},
		},
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("okx: marshal subscribe: %w", err)
	}
	return [][]byte{raw}, nil
}

type okxMessage struct {
	Event string `json:"event"`
	Data  []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
		Ts   string     `json:"ts"`
	} `json:"data"`
}

func (v *OKXVenue) Parse(raw []byte) (*domain.BookUpdate, error) {
	var msg okxMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("okx: decode: %w", err)
	}

	// Subscribe acks and venue errors arrive as event frames.
	if msg.Event != "" {
		if msg.Event == "error" {
			return nil, fmt.Errorf("okx: venue error message")
		}
		return nil, nil
	}

	if len(msg.Data) == 0 {
		return nil, fmt.Errorf("okx: unexpected message shape")
	}

	chunk := msg.Data[0]
	bids := parseLevels(chunk.Bids)
	asks := parseLevels(chunk.Asks)
	if len(bids) == 0 || len(asks) == 0 {
		return nil, fmt.Errorf("okx: books5 push without both sides")
	}

	u := &domain.BookUpdate{
		Exchange:  v.Name(),
		Snapshot:  true,
		Bids:      bids,
		Asks:      asks,
		BestBid:   bids[0].Price,
		BestAsk:   asks[0].Price,
		Timestamp: v.parseTs(chunk.Ts),
	}
	return u, nil
}

func (v *OKXVenue) parseTs(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return msToTime(ms)
}
