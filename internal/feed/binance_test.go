package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinanceSubscribePayload(t *testing.T) {
	v := NewBinanceVenue("BTC-USDT")

	payloads, err := v.SubscribePayloads()
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, "SUBSCRIBE", msg["method"])
	assert.Equal(t, []any{"btcusdt@depth5@100ms"}, msg["params"])
}

func TestBinanceParseDepthUpdate(t *testing.T) {
	v := NewBinanceVenue("BTCUSDT")

	raw := []byte(`{"e":"depthUpdate","E":1700000000000,"s":"BTCUSDT","b":[["100.50","1.20"],["100.40","0"]],"a":[["101.00","0.75"]]}`)
	u, err := v.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, "binance", u.Exchange)
	assert.False(t, u.Snapshot)
	require.Len(t, u.Bids, 2)
	assert.Equal(t, 100.50, u.Bids[0].Price)
	assert.Equal(t, 1.20, u.Bids[0].Size)
	assert.Equal(t, 0.0, u.Bids[1].Size, "zero size is a deletion marker and must survive parsing")
	require.Len(t, u.Asks, 1)
	assert.Equal(t, int64(1700000000000), u.Timestamp.UnixMilli())
}

func TestBinanceParsePartialDepthIsSnapshot(t *testing.T) {
	v := NewBinanceVenue("BTCUSDT")

	raw := []byte(`{"lastUpdateId":160,"bids":[["100.00","1"],["99.90","2"]],"asks":[["101.00","3"]]}`)
	u, err := v.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.True(t, u.Snapshot)
	assert.Equal(t, 100.00, u.BestBid)
	assert.Equal(t, 101.00, u.BestAsk)
}

func TestBinanceParseSubscribeAck(t *testing.T) {
	v := NewBinanceVenue("BTCUSDT")

	u, err := v.Parse([]byte(`{"result":null,"id":1}`))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestBinanceParseOtherEventsIgnored(t *testing.T) {
	v := NewBinanceVenue("BTCUSDT")

	u, err := v.Parse([]byte(`{"e":"trade","E":1700000000000,"p":"100.1","q":"0.5"}`))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestBinanceParseMalformed(t *testing.T) {
	v := NewBinanceVenue("BTCUSDT")

	_, err := v.Parse([]byte(`{"e":"depthUpdate"`))
	assert.Error(t, err)

	_, err = v.Parse([]byte(`{"unknown":"shape"}`))
	assert.Error(t, err)

	_, err = v.Parse([]byte(`{"lastUpdateId":1,"bids":[],"asks":[]}`))
	assert.Error(t, err, "partial depth without levels is malformed")
}
