package live

import (
	"context"
	"strings"

	"race-telemetry/core/reconcile"

	"go.uber.org/zap"
)

// DefaultLapFeed is the lap monitor length when the caller gives none.
const DefaultLapFeed = 20

// Service projects the engine's read model into display rows.
type Service struct {
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewService creates a new live service.
func NewService(engine *reconcile.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, logger: logger}
}

// Standings returns ranked rows. An empty mode uses the active filter.
func (s *Service) Standings(mode string) ([]StandingRow, reconcile.Filter, error) {
	var f reconcile.Filter
	if strings.TrimSpace(mode) != "" {
		parsed, err := reconcile.ParseFilter(mode)
		if err != nil {
			return nil, f, err
		}
		f = parsed
	}
	if f.IsZero() {
		f = s.engine.ActiveFilter()
	}

	drivers := s.engine.RankedStandings(f)
	rows := make([]StandingRow, len(drivers))
	for i, d := range drivers {
		rows[i] = newStandingRow(i+1, d, s.engine.Car(d.CarID))
	}
	return rows, f, nil
}

// Laps returns the n newest laps; n <= 0 means DefaultLapFeed.
func (s *Service) Laps(n int) []LapRow {
	if n <= 0 {
		n = DefaultLapFeed
	}
	entries := s.engine.RecentLaps(n)
	rows := make([]LapRow, len(entries))
	for i, e := range entries {
		rows[i] = newLapRow(e)
	}
	return rows
}

// DriverLaps returns a driver's record and retained laps, oldest first.
func (s *Service) DriverLaps(driverID string) (StandingRow, []LapRecordView, bool) {
	d, ok := s.engine.Driver(driverID)
	if !ok {
		return StandingRow{}, nil, false
	}
	history := s.engine.HistoryFor(driverID)
	laps := make([]LapRecordView, len(history))
	for i, lap := range history {
		laps[i] = newLapRecordView(lap)
	}
	rank := 0
	if d.Position != nil {
		rank = *d.Position
	}
	return newStandingRow(rank, d, s.engine.Car(d.CarID)), laps, true
}

// Session returns the session header.
func (s *Service) Session() SessionView {
	return newSessionView(s.engine.SessionInfo(), s.engine.Track())
}

// DriverStats returns per-driver lap aggregates, best lap first.
func (s *Service) DriverStats() []DriverStatsView {
	stats := s.engine.DriverStats()
	rows := make([]DriverStatsView, len(stats))
	for i, st := range stats {
		rows[i] = newDriverStatsView(st)
	}
	return rows
}

// Status returns connectivity with event counters.
func (s *Service) Status() StatusView {
	st := s.engine.Status()
	return StatusView{Status: st, Tone: connTone(st.State), Stats: s.engine.Stats()}
}

// Cars returns the catalog sorted by id.
func (s *Service) Cars() []reconcile.CarRecord {
	return s.engine.Cars()
}

// Car returns a car or its placeholder.
func (s *Service) Car(carID string) reconcile.CarRecord {
	return s.engine.Car(carID)
}

// SetFilter parses and stores the active filter.
func (s *Service) SetFilter(mode string) (reconcile.Filter, error) {
	f, err := reconcile.ParseFilter(mode)
	if err != nil {
		return reconcile.Filter{}, err
	}
	s.engine.SetFilter(f)
	s.logger.Info("Active filter changed", zap.Stringer("filter", f))
	return f, nil
}

// Resync asks the snapshot source for a fresh snapshot.
func (s *Service) Resync() error {
	return s.engine.ForceResync()
}

// Reset clears the session, keeping the car catalog.
func (s *Service) Reset() {
	s.engine.ResetSession()
}

// Export forwards an export request to the configured handler.
func (s *Service) Export(ctx context.Context, kind string) error {
	return s.engine.RequestExport(ctx, kind)
}
