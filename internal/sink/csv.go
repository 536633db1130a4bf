package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// csvHeader matches the column order of the daily arbitrage log files.
var csvHeader = []string{
	"ts_utc",
	"buy_exchange",
	"sell_exchange",
	"buy_price",
	"sell_price",
	"gross_spread",
	"net_spread",
	"profit_pct_decimal",
	"fee_buy",
	"fee_sell",
	"obm_ts_buy",
	"obm_ts_sell",
}

// CSVSink appends opportunities to a daily-rotated CSV file
// (arbitrage_YYYYMMDD.csv) under the configured directory.
type CSVSink struct {
	dir string

	mu      sync.Mutex
	day     string
	file    *os.File
	writer  *csv.Writer
	current string
	closed  bool
}

// NewCSVSink creates a CSVSink writing under dir, creating it if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv sink: create dir %s: %w", dir, err)
	}
	return &CSVSink{dir: dir}, nil
}

// Dir returns the directory the sink writes into.
func (s *CSVSink) Dir() string {
	return s.dir
}

// CurrentFile returns the path of the file currently being written, or ""
// before the first record.
func (s *CSVSink) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Publish appends one row, rotating to a new file when the UTC date changes.
func (s *CSVSink) Publish(ctx context.Context, opp domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("csv sink: %w", domain.ErrClosed)
	}

	ts := opp.DetectedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	day := ts.UTC().Format("20060102")

	if err := s.rotateLocked(day); err != nil {
		return err
	}

	row := []string{
		ts.UTC().Format(time.RFC3339Nano),
		opp.BuyExchange,
		opp.SellExchange,
		strconv.FormatFloat(opp.BuyPrice, 'f', 8, 64),
		strconv.FormatFloat(opp.SellPrice, 'f', 8, 64),
		strconv.FormatFloat(opp.GrossSpread, 'f', 8, 64),
		strconv.FormatFloat(opp.NetSpread, 'f', 8, 64),
		strconv.FormatFloat(opp.ProfitPct, 'f', 8, 64),
		strconv.FormatFloat(opp.FeeBuy, 'f', 8, 64),
		strconv.FormatFloat(opp.FeeSell, 'f', 8, 64),
		formatTs(opp.TsBuy),
		formatTs(opp.TsSell),
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("csv sink: write row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("csv sink: flush: %w", err)
	}
	return nil
}

// rotateLocked opens the file for the given day, writing the header when the
// file is new. Caller must hold s.mu.
func (s *CSVSink) rotateLocked(day string) error {
	if s.day == day && s.file != nil {
		return nil
	}

	if s.file != nil {
		s.writer.Flush()
		_ = s.file.Close()
		s.file = nil
	}

	path := filepath.Join(s.dir, fmt.Sprintf("arbitrage_%s.csv", day))
	info, statErr := os.Stat(path)
	isNew := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv sink: open %s: %w", path, err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)
	s.day = day
	s.current = path

	if isNew {
		if err := s.writer.Write(csvHeader); err != nil {
			return fmt.Errorf("csv sink: write header: %w", err)
		}
		s.writer.Flush()
	}
	return nil
}

// Close flushes and closes the current file. Publish calls after Close fail
// with domain.ErrClosed.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.file.Close()
	s.file = nil
	return err
}

func formatTs(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

var _ domain.OpportunitySink = (*CSVSink)(nil)
