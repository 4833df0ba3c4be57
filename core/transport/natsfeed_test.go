package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"race-telemetry/core/reconcile"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingLink struct {
	mu          sync.Mutex
	connects    int
	disconnects []error
	events      []reconcile.Event
}

func (l *recordingLink) Submit(events ...reconcile.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range events {
		switch ev := ev.(type) {
		case reconcile.Connected:
			l.connects++
		case reconcile.DisconnectedEvent:
			l.disconnects = append(l.disconnects, ev.Err)
		default:
			l.events = append(l.events, ev)
		}
	}
}

func TestNATSFeed_HandleDispatchesEnvelopes(t *testing.T) {
	link := &recordingLink{}
	feed := NewNATSFeed(NATSConfig{Subject: "smartrace.events"}, link, zap.NewNop())

	feed.handle(&nats.Msg{Data: []byte(`{"type":"lap_completed","data":{"driver_id":"d1","lap_number":3,"lap_time":44900}}`)})

	// Undecodable messages are dropped without touching the link.
	feed.handle(&nats.Msg{Data: []byte(`{"type":"bogus"}`)})

	link.mu.Lock()
	defer link.mu.Unlock()
	require.Len(t, link.events, 1)
	lap := link.events[0].(reconcile.LapCompleted)
	assert.Equal(t, "d1", lap.DriverID)
	assert.Equal(t, 3, lap.LapNumber)
}

func TestNATSFeed_ConnectFailureDisconnects(t *testing.T) {
	link := &recordingLink{}
	feed := NewNATSFeed(NATSConfig{URL: "nats://127.0.0.1:1", Subject: "x", ReconnectWait: time.Millisecond}, link, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := feed.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to NATS")

	link.mu.Lock()
	defer link.mu.Unlock()
	assert.Len(t, link.disconnects, 1)
	assert.Zero(t, link.connects)
}

func TestNewNATSFeed_Defaults(t *testing.T) {
	feed := NewNATSFeed(NATSConfig{}, &recordingLink{}, nil)
	assert.Equal(t, nats.DefaultURL, feed.cfg.URL)
	assert.Equal(t, 2*time.Second, feed.cfg.ReconnectWait)
	assert.Len(t, feed.options(), 6)
}
