package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MonitorMode streams order books, scans for spreads, and writes detected
// opportunities to the log and CSV sinks.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")
	return a.runPipeline(ctx, deps)
}

// SimulateMode is MonitorMode plus the paper-trading executor.
func (a *App) SimulateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting simulate mode")
	return a.runPipeline(ctx, deps)
}

// FullMode adds the redis bus, postgres persistence, and the S3 archiver on
// top of SimulateMode.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	return a.runPipeline(ctx, deps)
}

// runPipeline starts every wired subsystem and blocks until the context is
// cancelled or a subsystem fails.
func (a *App) runPipeline(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, client := range deps.Clients {
		c := client
		g.Go(func() error {
			return c.Run(ctx)
		})
	}

	g.Go(func() error {
		return deps.Consumer.Run(ctx)
	})

	g.Go(func() error {
		return deps.Scanner.Run(ctx)
	})

	g.Go(func() error {
		return deps.Dispatcher.Run(ctx)
	})

	g.Go(func() error {
		return deps.Tracker.Run(ctx)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	if a.cfg.Metrics.Enabled {
		g.Go(func() error {
			return deps.Metrics.Serve(ctx, a.cfg.Metrics.Port, a.logger)
		})
	}

	return g.Wait()
}
