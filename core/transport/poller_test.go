package transport_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/transport"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	snapshots atomic.Int32
	catalogs  atomic.Int32
	err       error
	gate      chan struct{}
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context) (*reconcile.FullSnapshot, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.snapshots.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &reconcile.FullSnapshot{Drivers: []reconcile.DriverRecord{{ID: "1"}}}, nil
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context) (*reconcile.CatalogUpdate, error) {
	f.catalogs.Add(1)
	return &reconcile.CatalogUpdate{IsFull: true}, nil
}

type fakeSink struct {
	mu         sync.Mutex
	generation uint64
	events     []reconcile.Event
	faults     []error
	submitted  chan struct{}
}

func newFakeSink(gen uint64) *fakeSink {
	return &fakeSink{generation: gen, submitted: make(chan struct{}, 16)}
}

func (s *fakeSink) Submit(events ...reconcile.Event) {
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	s.submitted <- struct{}{}
}

func (s *fakeSink) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *fakeSink) ReportFault(err error) {
	s.mu.Lock()
	s.faults = append(s.faults, err)
	s.mu.Unlock()
	s.submitted <- struct{}{}
}

func (s *fakeSink) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("nothing submitted")
	}
}

func TestPoller_RequestSnapshotTagsGeneration(t *testing.T) {
	fetcher := &fakeFetcher{}
	sink := newFakeSink(4)
	p := transport.NewPoller(fetcher, sink, time.Second, clockwork.NewFakeClock(), nil)

	p.RequestSnapshot(3)
	sink.wait(t)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	result := sink.events[0].(reconcile.RefreshResult)
	assert.Equal(t, uint64(3), result.Generation)
	require.NotNil(t, result.Snapshot)
	require.NotNil(t, result.Catalog)
	assert.Equal(t, int32(1), fetcher.catalogs.Load())
}

func TestPoller_TicksUseCurrentGeneration(t *testing.T) {
	fetcher := &fakeFetcher{}
	sink := newFakeSink(7)
	clock := clockwork.NewFakeClock()
	p := transport.NewPoller(fetcher, sink, 5*time.Second, clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	sink.wait(t)

	cancel()
	require.NoError(t, <-done)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	result := sink.events[0].(reconcile.RefreshResult)
	assert.Equal(t, uint64(7), result.Generation)
	assert.Nil(t, result.Catalog)
	assert.Equal(t, int32(0), fetcher.catalogs.Load())
}

func TestPoller_ConcurrentRequestsShareFetch(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{})}
	sink := newFakeSink(1)
	p := transport.NewPoller(fetcher, sink, time.Second, clockwork.NewFakeClock(), nil)

	p.RequestSnapshot(1)
	p.RequestSnapshot(1)
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)

	sink.wait(t)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(1), fetcher.snapshots.Load())
	sink.mu.Lock()
	assert.Len(t, sink.events, 1)
	sink.mu.Unlock()
}

func TestPoller_FetchFailureReported(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	sink := newFakeSink(1)
	p := transport.NewPoller(fetcher, sink, time.Second, clockwork.NewFakeClock(), nil)

	p.RequestSnapshot(1)
	sink.wait(t)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.events)
	require.Len(t, sink.faults, 1)
	assert.ErrorContains(t, sink.faults[0], "boom")
}
