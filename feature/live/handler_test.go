package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"race-telemetry/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRequester struct{ calls int }

func (s *stubRequester) RequestSnapshot(uint64) { s.calls++ }

type stubExporter struct {
	kinds []string
	err   error
}

func (s *stubExporter) Export(_ context.Context, kind string) error {
	s.kinds = append(s.kinds, kind)
	return s.err
}

func i64(v int64) *int64 { return &v }
func intp(v int) *int   { return &v }

func setupTestApp(t *testing.T) (*fiber.App, *reconcile.Engine) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	engine := reconcile.NewEngine(reconcile.Config{Clock: clock, Logger: zap.NewNop()})
	engine.Connect()
	require.NoError(t, engine.Apply(
		reconcile.CatalogUpdate{IsFull: true, Cars: []reconcile.CarRecord{
			{ID: "c1", Name: "Porsche 911 RSR", Color: "#ffffff", Manufacturer: "Carrera", Class: "GT"},
		}},
		reconcile.FullSnapshot{
			Session: reconcile.SessionInfo{TrackName: "Home Track", Flag: reconcile.FlagYellow, Status: reconcile.SessionRunning, ElapsedMs: 61500},
			Drivers: []reconcile.DriverRecord{
				{ID: "d1", Name: "Alice", CarID: "c1", Position: intp(1), LapsCompleted: 3, BestLapMs: i64(45200), Status: reconcile.StatusRunning},
				{ID: "d2", Name: "Bob", CarID: "c2", Position: intp(2), LapsCompleted: 3, GapMs: i64(1500), Status: reconcile.StatusDNF},
				{ID: "d3", Name: "Cara", Status: reconcile.StatusDNS},
			},
		},
		reconcile.LapCompleted{DriverID: "d1", LapNumber: 4, LapTimeMs: i64(44900), SectorTimesMs: []int64{15000, 14900, 15000}},
	))

	app := fiber.New()
	NewHandler(NewService(engine, zap.NewNop())).RegisterRoutes(app)
	return app, engine
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHandleStandings(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "GET", "/live/standings", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "all", body["filter"])
	assert.EqualValues(t, 3, body["count"])

	rows := body["standings"].([]any)
	first := rows[0].(map[string]any)
	assert.Equal(t, "d1", first["id"])
	assert.Equal(t, "0:44.900", first["best_lap"])
	assert.Equal(t, "0:44.900", first["last_lap"])
	assert.Equal(t, "-", first["gap"])
	assert.Equal(t, ToneSuccess, first["status_tone"])
	assert.Equal(t, "Porsche 911 RSR", first["car"].(map[string]any)["name"])

	second := rows[1].(map[string]any)
	assert.Equal(t, "+1.500", second["gap"])
	assert.Equal(t, ToneDanger, second["status_tone"])
	assert.Equal(t, reconcile.UnknownCarName, second["car"].(map[string]any)["name"])

	third := rows[2].(map[string]any)
	assert.Nil(t, third["position"])
	assert.Equal(t, ToneSecondary, third["status_tone"])
}

func TestHandleStandings_Filter(t *testing.T) {
	app, _ := setupTestApp(t)

	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"top:1", 200, 1},
		{"top2", 200, 2},
		{"top", 200, 3},
		{"all", 200, 3},
		{"podium", 400, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := doJSON(t, app, "GET", "/live/standings?filter="+tt.query, "")
			assert.Equal(t, tt.status, status)
			if status == 200 {
				assert.EqualValues(t, tt.count, body["count"])
			} else {
				assert.Contains(t, body["error"], "unknown filter")
			}
		})
	}
}

func TestHandleSetFilter(t *testing.T) {
	app, engine := setupTestApp(t)

	status, body := doJSON(t, app, "POST", "/live/filter", `{"mode":"top:1"}`)
	require.Equal(t, 200, status)
	assert.Equal(t, "top:1", body["filter"])
	assert.Equal(t, reconcile.FilterTop(1), engine.ActiveFilter())

	_, body = doJSON(t, app, "GET", "/live/standings", "")
	assert.EqualValues(t, 1, body["count"])

	status, _ = doJSON(t, app, "POST", "/live/filter", `{"mode":"nope"}`)
	assert.Equal(t, 400, status)
	assert.Equal(t, reconcile.FilterTop(1), engine.ActiveFilter())

	status, _ = doJSON(t, app, "POST", "/live/filter", `not json`)
	assert.Equal(t, 400, status)
}

func TestHandleLaps(t *testing.T) {
	app, engine := setupTestApp(t)
	require.NoError(t, engine.Apply(reconcile.LapCompleted{DriverID: "d2", LapNumber: 4, LapTimeMs: i64(46000)}))

	status, body := doJSON(t, app, "GET", "/live/laps?n=5", "")
	require.Equal(t, 200, status)
	assert.EqualValues(t, 2, body["count"])

	// Same arrival instant, so driver id breaks the tie.
	laps := body["laps"].([]any)
	alice := laps[0].(map[string]any)
	assert.Equal(t, "Alice", alice["driver_name"])
	assert.Equal(t, "0:44.900", alice["lap_time"])
	assert.Equal(t, []any{"15.000", "14.900", "15.000"}, alice["sectors"])
	assert.Equal(t, "14.966", alice["average_sector"])

	bob := laps[1].(map[string]any)
	assert.Equal(t, "-", bob["average_sector"])

	status, _ = doJSON(t, app, "GET", "/live/laps?n=abc", "")
	assert.Equal(t, 400, status)
}

func TestHandleSessionAndStatus(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "GET", "/live/session", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "Home Track", body["track_name"])
	assert.Equal(t, "1:01.500", body["elapsed"])
	assert.Equal(t, ToneWarning, body["flag_tone"])
	assert.Equal(t, ToneSuccess, body["status_tone"])

	status, body = doJSON(t, app, "GET", "/live/status", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "live", body["state"])
	assert.Equal(t, ToneSuccess, body["tone"])
	assert.EqualValues(t, 1, body["generation"])
	assert.NotNil(t, body["stats"])
}

func TestHandleDriverLaps(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "GET", "/live/drivers/d1/laps", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "Alice", body["driver"].(map[string]any)["name"])
	laps := body["laps"].([]any)
	require.Len(t, laps, 1)
	assert.Equal(t, true, laps[0].(map[string]any)["is_personal_best"])

	status, _ = doJSON(t, app, "GET", "/live/drivers/ghost/laps", "")
	assert.Equal(t, 404, status)
}

func TestHandleCars(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doJSON(t, app, "GET", "/live/cars", "")
	require.Equal(t, 200, status)
	assert.EqualValues(t, 1, body["count"])

	_, body = doJSON(t, app, "GET", "/live/cars/c1", "")
	assert.Equal(t, "Carrera", body["manufacturer"])

	_, body = doJSON(t, app, "GET", "/live/cars/zzz", "")
	assert.Equal(t, reconcile.UnknownCarColor, body["color"])
	assert.Equal(t, "zzz", body["id"])
}

func TestHandleResync(t *testing.T) {
	app, engine := setupTestApp(t)

	status, _ := doJSON(t, app, "POST", "/live/resync", "")
	assert.Equal(t, 503, status)

	req := &stubRequester{}
	engine.SetSnapshotRequester(req)
	status, body := doJSON(t, app, "POST", "/live/resync", "")
	assert.Equal(t, 202, status)
	assert.Equal(t, "requested", body["status"])
	assert.Equal(t, 1, req.calls)
}

func TestHandleReset(t *testing.T) {
	app, engine := setupTestApp(t)

	status, _ := doJSON(t, app, "POST", "/live/reset", "")
	require.Equal(t, 200, status)
	assert.Empty(t, engine.RankedStandings(reconcile.FilterAll()))
	assert.Empty(t, engine.RecentLaps(10))
	assert.Len(t, engine.Cars(), 1)
}

func TestHandleExport(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, 202},
		{"unknown kind", fmt.Errorf("%w: x", reconcile.ErrUnknownExportKind), 400},
		{"upload failed", fmt.Errorf("%w: bucket down", reconcile.ErrTransportFault), 502},
		{"other", fmt.Errorf("disk full"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, engine := setupTestApp(t)
			exp := &stubExporter{err: tt.err}
			engine.SetExportHandler(exp)

			status, _ := doJSON(t, app, "POST", "/live/export/race-results", "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, []string{"race-results"}, exp.kinds)
		})
	}

	t.Run("not configured", func(t *testing.T) {
		app, _ := setupTestApp(t)
		status, _ := doJSON(t, app, "POST", "/live/export/race-results", "")
		assert.Equal(t, 503, status)
	})
}

func TestTones(t *testing.T) {
	assert.Equal(t, ToneDark, FlagTone(reconcile.FlagCheckered))
	assert.Equal(t, ToneDanger, FlagTone(reconcile.FlagRed))
	assert.Equal(t, ToneSuccess, FlagTone(reconcile.FlagGreen))
	assert.Equal(t, ToneSecondary, FlagTone(reconcile.FlagUnknown))
	assert.Equal(t, TonePrimary, DriverStatusTone(reconcile.StatusFinished))
	assert.Equal(t, ToneSecondary, DriverStatusTone(reconcile.StatusUnknown))
	assert.Equal(t, ToneDanger, connTone(reconcile.Disconnected))
	assert.Equal(t, ToneWarning, connTone(reconcile.ConnectedNoData))
}

func TestHandleDriverStats(t *testing.T) {
	app, engine := setupTestApp(t)
	require.NoError(t, engine.Apply(
		reconcile.LapCompleted{DriverID: "d2", LapNumber: 4, LapTimeMs: i64(46000)},
		reconcile.LapCompleted{DriverID: "d1", LapNumber: 5, LapTimeMs: i64(45101)},
	))

	status, body := doJSON(t, app, "GET", "/live/stats", "")
	require.Equal(t, 200, status)
	assert.EqualValues(t, 2, body["count"])

	rows := body["drivers"].([]any)
	first := rows[0].(map[string]any)
	assert.Equal(t, "d1", first["driver_id"])
	assert.Equal(t, "Alice", first["driver_name"])
	assert.EqualValues(t, 2, first["laps"])
	assert.Equal(t, "0:44.900", first["best_lap"])
	assert.Equal(t, "0:45.000", first["average_lap"])
	assert.Equal(t, "0:45.101", first["last_lap_time"])
	assert.Equal(t, "Bob", rows[1].(map[string]any)["driver_name"])
}
