package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/telemetry"
	"race-telemetry/core/transport"

	"go.uber.org/zap"
)

// newEngine builds the engine from telemetry settings.
func newEngine(cfg telemetry.Config, logg *zap.Logger) (*reconcile.Engine, error) {
	filter, err := reconcile.ParseFilter(cfg.DefaultFilter)
	if err != nil {
		return nil, fmt.Errorf("telemetry.default_filter: %w", err)
	}
	return reconcile.NewEngine(reconcile.Config{
		LapCap:     cfg.LapHistoryCap,
		PendingCap: cfg.PendingCap,
		Filter:     filter,
		Logger:     logg,
	}), nil
}

// replayStats counts what a replay file contained.
type replayStats struct {
	Lines    int
	Applied  int
	Rejected int
}

// replayFile applies every non-empty line of path to engine, one turn per line.
// Lines may be envelopes or race-data bodies.
func replayFile(engine *reconcile.Engine, path string, logg *zap.Logger) (replayStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return replayStats{}, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()
	return replay(engine, f, logg)
}

func replay(engine *reconcile.Engine, r io.Reader, logg *zap.Logger) (replayStats, error) {
	var stats replayStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		ev, err := transport.DecodeWebhook(line)
		if err == nil {
			err = engine.Apply(ev)
		}
		if err != nil {
			stats.Rejected++
			logg.Debug("Replay line rejected", zap.Int("line", stats.Lines), zap.Error(err))
			if !errors.Is(err, reconcile.ErrMalformedEvent) {
				return stats, err
			}
			continue
		}
		stats.Applied++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read replay file: %w", err)
	}
	return stats, nil
}

// pullOnce applies one snapshot and catalog fetch for the current generation.
func pullOnce(ctx context.Context, engine *reconcile.Engine, fetcher transport.Fetcher) error {
	gen := engine.Generation()
	catalog, err := fetcher.FetchCatalog(ctx)
	if err != nil {
		return err
	}
	snapshot, err := fetcher.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	return engine.Apply(reconcile.RefreshResult{Generation: gen, Snapshot: snapshot, Catalog: catalog})
}
