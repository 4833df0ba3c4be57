package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewEngine_RejectsBadFilter(t *testing.T) {
	_, err := newEngine(telemetry.Config{DefaultFilter: "podium"}, zap.NewNop())
	assert.ErrorIs(t, err, reconcile.ErrUnknownFilter)

	e, err := newEngine(telemetry.Config{DefaultFilter: "top6"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, reconcile.FilterTop(6), e.ActiveFilter())
}

func TestReplay(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"full_snapshot","data":{"drivers":[{"id":"d1","name":"Alice","position":1}]}}`,
		``,
		`{"trackName":"Oval","drivers":{"d1":{"name":"Alice","position":1,"laps":0}}}`,
		`{"type":"lap_completed","data":{"driver_id":"d1","lap_number":1,"lap_time":"0:44.900"}}`,
		`not json`,
	}, "\n")

	e, err := newEngine(telemetry.Config{DefaultFilter: "all"}, zap.NewNop())
	require.NoError(t, err)
	e.Connect()

	stats, err := replay(e, strings.NewReader(input), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, replayStats{Lines: 4, Applied: 3, Rejected: 1}, stats)

	assert.Equal(t, "Oval", e.SessionInfo().TrackName)
	require.Len(t, e.HistoryFor("d1"), 1)

	var out bytes.Buffer
	printStandings(&out, e, reconcile.FilterAll())
	assert.Contains(t, out.String(), "Alice")
	assert.Contains(t, out.String(), "0:44.900")
}

type staticFetcher struct {
	snapshot *reconcile.FullSnapshot
	catalog  *reconcile.CatalogUpdate
}

func (f staticFetcher) FetchSnapshot(context.Context) (*reconcile.FullSnapshot, error) {
	return f.snapshot, nil
}

func (f staticFetcher) FetchCatalog(context.Context) (*reconcile.CatalogUpdate, error) {
	return f.catalog, nil
}

func TestPullOnce(t *testing.T) {
	e, err := newEngine(telemetry.Config{DefaultFilter: "all"}, zap.NewNop())
	require.NoError(t, err)
	e.Connect()

	fetcher := staticFetcher{
		snapshot: &reconcile.FullSnapshot{Drivers: []reconcile.DriverRecord{{ID: "d1", Name: "Alice", CarID: "c1"}}},
		catalog:  &reconcile.CatalogUpdate{IsFull: true, Cars: []reconcile.CarRecord{{ID: "c1", Name: "Audi R8"}}},
	}
	require.NoError(t, pullOnce(context.Background(), e, fetcher))

	assert.Equal(t, reconcile.Live, e.Status().State)
	assert.Equal(t, "Audi R8", e.Car("c1").Name)
}
