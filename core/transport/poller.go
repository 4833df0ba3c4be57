package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"race-telemetry/core/reconcile"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPollInterval is used when the configured interval is not positive.
const DefaultPollInterval = 5 * time.Second

// Sink is the engine surface a poller feeds.
type Sink interface {
	Submit(events ...reconcile.Event)
	Generation() uint64
	ReportFault(err error)
}

// Poller issues periodic pull refreshes and on-demand resyncs. Every refresh
// is tagged with the generation current when it was issued.
type Poller struct {
	fetcher  Fetcher
	sink     Sink
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger

	group singleflight.Group

	mu  sync.Mutex
	ctx context.Context
}

// NewPoller creates a poller. A nil clock means the real clock.
func NewPoller(fetcher Fetcher, sink Sink, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher:  fetcher,
		sink:     sink,
		clock:    clock,
		interval: interval,
		logger:   logger.Named("poller"),
		ctx:      context.Background(),
	}
}

// RequestSnapshot starts a refresh of standings and the car catalog for
// generation without blocking. Concurrent requests for the same generation
// share one fetch.
func (p *Poller) RequestSnapshot(generation uint64) {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	go p.refresh(ctx, generation, true)
}

// Run refreshes standings every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Poller started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return nil
		case <-ticker.Chan():
			p.refresh(ctx, p.sink.Generation(), false)
		}
	}
}

// refresh fetches and submits one RefreshResult. Failures are reported to the
// sink once per shared fetch and otherwise leave state alone; the next tick
// retries.
func (p *Poller) refresh(ctx context.Context, generation uint64, withCatalog bool) {
	key := fmt.Sprintf("%d/%t", generation, withCatalog)

	_, _, _ = p.group.Do(key, func() (any, error) {
		err := p.fetch(ctx, generation, withCatalog)
		if err != nil && ctx.Err() == nil {
			p.sink.ReportFault(err)
			p.logger.Warn("Refresh failed", zap.Uint64("generation", generation), zap.Error(err))
		}
		return nil, err
	})
}

func (p *Poller) fetch(ctx context.Context, generation uint64, withCatalog bool) error {
	result := reconcile.RefreshResult{Generation: generation}

	if withCatalog {
		catalog, err := p.fetcher.FetchCatalog(ctx)
		if err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		result.Catalog = catalog
	}

	snapshot, err := p.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	result.Snapshot = snapshot

	p.sink.Submit(result)
	p.logger.Debug("Refresh submitted", zap.Uint64("generation", generation), zap.Bool("catalog", withCatalog))
	return nil
}
