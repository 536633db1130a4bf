package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleOpportunity(detected time.Time) domain.Opportunity {
	return domain.Opportunity{
		ID:           "test-id",
		SellExchange: "binance",
		BuyExchange:  "coinbase",
		SellPrice:    101,
		BuyPrice:     100,
		GrossSpread:  1,
		NetSpread:    0.799,
		ProfitPct:    0.00798,
		FeeBuy:       0.001,
		FeeSell:      0.001,
		TsSell:       detected.Add(-time.Second),
		TsBuy:        detected.Add(-2 * time.Second),
		DetectedAt:   detected,
	}
}

func TestCSVSinkWritesHeaderAndRow(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir)
	require.NoError(t, err)
	defer s.Close()

	detected := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.Publish(context.Background(), sampleOpportunity(detected)))

	path := filepath.Join(dir, "arbitrage_20260828.csv")
	assert.Equal(t, path, s.CurrentFile())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])

	row := rows[1]
	assert.Equal(t, "2026-08-28T10:30:00Z", row[0])
	assert.Equal(t, "coinbase", row[1])
	assert.Equal(t, "binance", row[2])
	assert.Equal(t, "100.00000000", row[3])
	assert.Equal(t, "101.00000000", row[4])
	assert.Equal(t, "0.00798000", row[7])
}

func TestCSVSinkPublishAfterClose(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	err = s.Publish(context.Background(), sampleOpportunity(time.Now().UTC()))
	require.ErrorIs(t, err, domain.ErrClosed)
}

func TestCSVSinkRotatesDaily(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir)
	require.NoError(t, err)
	defer s.Close()

	dayOne := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 8, 29, 0, 1, 0, 0, time.UTC)

	require.NoError(t, s.Publish(context.Background(), sampleOpportunity(dayOne)))
	require.NoError(t, s.Publish(context.Background(), sampleOpportunity(dayTwo)))

	first := readRows(t, filepath.Join(dir, "arbitrage_20260828.csv"))
	second := readRows(t, filepath.Join(dir, "arbitrage_20260829.csv"))
	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Equal(t, csvHeader, second[0])
	assert.Equal(t, filepath.Join(dir, "arbitrage_20260829.csv"), s.CurrentFile())
}

func TestCSVSinkAppendsWithoutDuplicateHeader(t *testing.T) {
	dir := t.TempDir()
	detected := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	s, err := NewCSVSink(dir)
	require.NoError(t, err)
	require.NoError(t, s.Publish(context.Background(), sampleOpportunity(detected)))
	require.NoError(t, s.Close())

	// Reopening against the same file must append, not rewrite the header.
	s, err = NewCSVSink(dir)
	require.NoError(t, err)
	require.NoError(t, s.Publish(context.Background(), sampleOpportunity(detected.Add(time.Minute))))
	require.NoError(t, s.Close())

	rows := readRows(t, filepath.Join(dir, "arbitrage_20260828.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.NotEqual(t, csvHeader, rows[1])
	assert.NotEqual(t, csvHeader, rows[2])
}
