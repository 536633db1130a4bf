package s3blob

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// defaultSweepInterval is how often the archiver scans for rotated files.
const defaultSweepInterval = time.Hour

// LogSource exposes the on-disk location of the opportunity log files.
// *sink.CSVSink satisfies it.
type LogSource interface {
	// Dir returns the directory holding the log files.
	Dir() string

	// CurrentFile returns the file currently being written, or "" when no
	// file is open yet. The archiver never uploads the current file.
	CurrentFile() string
}

// Archiver periodically uploads rotated opportunity CSV files to object
// storage. Files are uploaded once; the current day's file is skipped until
// rotation closes it.
type Archiver struct {
	writer   *Writer
	source   LogSource
	interval time.Duration
	logger   *slog.Logger

	uploaded map[string]bool
}

// NewArchiver creates an Archiver sweeping at the given interval. A zero
// interval selects the default of one hour.
func NewArchiver(writer *Writer, source LogSource, interval time.Duration, logger *slog.Logger) *Archiver {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Archiver{
		writer:   writer,
		source:   source,
		interval: interval,
		logger:   logger.With(slog.String("component", "archiver")),
		uploaded: make(map[string]bool),
	}
}

// Run sweeps until the context is cancelled. A final sweep happens on
// shutdown so the closing day's file is not lost.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.sweep(context.WithoutCancel(ctx), true)
			return ctx.Err()
		case <-ticker.C:
			a.sweep(ctx, false)
		}
	}
}

// Sweep uploads every rotated file exactly once. Errors are logged and the
// file retried on the next sweep.
func (a *Archiver) sweep(ctx context.Context, includeCurrent bool) {
	dir := a.source.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		a.logger.WarnContext(ctx, "archive sweep failed", slog.String("error", err.Error()))
		return
	}

	current := a.source.CurrentFile()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if a.uploaded[path] {
			continue
		}
		if !includeCurrent && path == current {
			continue
		}

		if err := a.uploadFile(ctx, path, entry.Name()); err != nil {
			a.logger.WarnContext(ctx, "archive upload failed",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.uploaded[path] = true
		a.logger.InfoContext(ctx, "archived opportunity log",
			slog.String("file", entry.Name()),
		)
	}
}

// multipartThreshold is the file size above which uploads switch to the
// multipart manager.
const multipartThreshold int64 = 64 * 1024 * 1024

func (a *Archiver) uploadFile(ctx context.Context, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	key := "opportunities/" + name
	if info.Size() >= multipartThreshold {
		return a.writer.PutMultipart(ctx, key, f, minPartSize)
	}
	return a.writer.Put(ctx, key, f, "text/csv")
}
