package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"race-telemetry/core/timecodec"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPendingCap bounds the laps held back while a resync is outstanding.
const DefaultPendingCap = 256

// restartSlack is how far a snapshot's lap count may trail a driver's
// recorded laps before it is read as a new run rather than a lagging fetch.
const restartSlack = 2

// ConnState is the engine's view of transport connectivity.
type ConnState int

const (
	Disconnected ConnState = iota
	ConnectedNoData
	Live
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedNoData:
		return "connected_no_data"
	case Live:
		return "live"
	default:
		return fmt.Sprintf("conn_state(%d)", int(s))
	}
}

// SnapshotRequester issues a pull refresh tagged with a session generation.
// The result is expected back as a RefreshResult event.
type SnapshotRequester interface {
	RequestSnapshot(generation uint64)
}

// ExportHandler receives export requests without the engine interpreting kind.
type ExportHandler interface {
	Export(ctx context.Context, kind string) error
}

// Config holds engine construction options. Zero fields get defaults.
type Config struct {
	LapCap     int
	PendingCap int
	Filter     Filter
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

// Status is the connectivity summary shown to the presentation layer.
type Status struct {
	State          ConnState `json:"-"`
	StateName      string    `json:"state"`
	Generation     uint64    `json:"generation"`
	AwaitingResync bool      `json:"awaiting_resync"`
	LastError      string    `json:"last_error,omitempty"`
	LastEventAt    time.Time `json:"last_event_at"`
}

// Stats counts what happened to inbound events.
type Stats struct {
	Accepted      uint64 `json:"accepted"`
	Dropped       uint64 `json:"dropped"`
	Malformed     uint64 `json:"malformed"`
	Duplicates    uint64 `json:"duplicates"`
	Stale         uint64 `json:"stale"`
	Buffered      uint64 `json:"buffered"`
	Notifications uint64 `json:"notifications"`
}

type pendingLap struct {
	event   LapCompleted
	arrived time.Time
}

// Engine merges push events and pull refreshes into one read model.
// Every mutation runs to completion under a single lock, queries take the
// read lock, and all returned values are copies.
type Engine struct {
	mu sync.RWMutex

	clock  clockwork.Clock
	logger *zap.Logger

	catalog   *CarCatalog
	ledger    *LapLedger
	standings *StandingsTable
	session   SessionInfo
	track     TrackInfo
	filter    Filter

	state          ConnState
	generation     uint64
	everLive       bool
	awaitingResync bool
	lastErr        error
	lastEventAt    time.Time
	resyncFor      uint64

	pending    []pendingLap
	pendingCap int

	stats Stats

	requester SnapshotRequester
	exporter  ExportHandler

	notify notifier

	qmu   sync.Mutex
	queue []Event
	wake  chan struct{}
}

// NewEngine creates an engine in the Disconnected state with an empty model.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PendingCap <= 0 {
		cfg.PendingCap = DefaultPendingCap
	}
	if cfg.Filter.IsZero() {
		cfg.Filter = FilterAll()
	}

	return &Engine{
		clock:      cfg.Clock,
		logger:     cfg.Logger.Named("reconcile"),
		catalog:    NewCarCatalog(),
		ledger:     NewLapLedger(cfg.LapCap),
		standings:  NewStandingsTable(),
		session:    DefaultSessionInfo(),
		filter:     cfg.Filter,
		state:      Disconnected,
		pendingCap: cfg.PendingCap,
		wake:       make(chan struct{}, 1),
	}
}

// SetSnapshotRequester wires the pull refresh source.
func (e *Engine) SetSnapshotRequester(r SnapshotRequester) {
	e.mu.Lock()
	e.requester = r
	e.mu.Unlock()
}

// SetExportHandler wires the export passthrough.
func (e *Engine) SetExportHandler(h ExportHandler) {
	e.mu.Lock()
	e.exporter = h
	e.mu.Unlock()
}

// OnViewChanged registers fn to run once per coalesced update. The returned
// function removes the subscription.
func (e *Engine) OnViewChanged(fn func()) (unsubscribe func()) {
	return e.notify.subscribe(fn)
}

// Apply processes events in order as one turn and emits at most one
// notification. Per-event failures are joined into the returned error; they
// never stop the remaining events.
func (e *Engine) Apply(events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	var errs []error
	changed := false

	e.mu.Lock()
	for _, ev := range events {
		ok, err := e.applyLocked(ev)
		if err != nil {
			errs = append(errs, err)
		}
		changed = changed || ok
	}
	if changed {
		e.stats.Notifications++
	}
	resyncFor, requester := e.resyncFor, e.requester
	e.resyncFor = 0
	e.mu.Unlock()

	if changed {
		e.notify.fire()
	}
	if resyncFor != 0 && requester != nil {
		requester.RequestSnapshot(resyncFor)
	}
	return errors.Join(errs...)
}

// Submit queues ev for the next turn of Run. It never blocks.
func (e *Engine) Submit(events ...Event) {
	if len(events) == 0 {
		return
	}
	e.qmu.Lock()
	e.queue = append(e.queue, events...)
	e.qmu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run applies submitted events until ctx is done. Everything queued when a
// turn starts is applied together, connection changes included, so they keep
// their place relative to the data events around them.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
		}

		e.qmu.Lock()
		batch := e.queue
		e.queue = nil
		e.qmu.Unlock()

		if err := e.Apply(batch...); err != nil {
			if errors.Is(err, ErrStaleResult) && !errors.Is(err, ErrMalformedEvent) {
				e.logger.Debug("Discarded stale events", zap.Error(err))
			} else {
				e.logger.Warn("Dropped events", zap.Int("batch", len(batch)), zap.Error(err))
			}
		}
	}
}

// Connect applies a Connected event immediately. Push feeds submit
// Connected instead so queued events ahead of it are applied first.
func (e *Engine) Connect() {
	_ = e.Apply(Connected{})
}

// Disconnect applies a Disconnected event immediately. A nil err is a clean
// close.
func (e *Engine) Disconnect(err error) {
	_ = e.Apply(DisconnectedEvent{Err: err})
}

// ReportFault records a failed fetch without changing state. Prior state is
// kept and the transport retries on its own schedule.
func (e *Engine) ReportFault(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.lastErr = fmt.Errorf("%w: %w", ErrTransportFault, err)
	e.mu.Unlock()
}

// Generation returns the current session generation.
func (e *Engine) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// ForceResync requests a fresh snapshot for the current generation.
func (e *Engine) ForceResync() error {
	e.mu.RLock()
	gen := e.generation
	requester := e.requester
	e.mu.RUnlock()

	if requester == nil {
		return ErrNoSnapshotSource
	}
	requester.RequestSnapshot(gen)
	return nil
}

// RequestExport hands kind to the export handler unchanged.
func (e *Engine) RequestExport(ctx context.Context, kind string) error {
	e.mu.RLock()
	exporter := e.exporter
	e.mu.RUnlock()

	if exporter == nil {
		return ErrNoExportHandler
	}
	return exporter.Export(ctx, kind)
}

// ResetSession clears standings, lap history and session info. The car
// catalog is kept.
func (e *Engine) ResetSession() {
	_ = e.Apply(SessionReset{})
}

// SetFilter changes the active standings filter. The zero filter is ignored.
func (e *Engine) SetFilter(f Filter) {
	if f.IsZero() {
		return
	}
	e.mu.Lock()
	changed := e.filter != f
	e.filter = f
	if changed {
		e.stats.Notifications++
	}
	e.mu.Unlock()

	if changed {
		e.notify.fire()
	}
}

// ActiveFilter returns the filter used by queries with the zero filter.
func (e *Engine) ActiveFilter() Filter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// RankedStandings returns drivers in rank order. The zero filter means the
// active one.
func (e *Engine) RankedStandings(f Filter) []DriverRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if f.IsZero() {
		f = e.filter
	}
	return e.standings.RankedView(f)
}

// Driver returns one driver's current record.
func (e *Engine) Driver(driverID string) (DriverRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.standings.Get(driverID)
}

// RecentLaps returns the n newest laps joined with driver and car metadata.
func (e *Engine) RecentLaps(n int) []LapFeedEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	laps := e.ledger.RecentLaps(n)
	out := make([]LapFeedEntry, 0, len(laps))
	for _, lap := range laps {
		entry := LapFeedEntry{Lap: lap, DriverName: lap.DriverID}
		carID := ""
		if rec, ok := e.standings.Get(lap.DriverID); ok {
			if rec.Name != "" {
				entry.DriverName = rec.Name
			}
			carID = rec.CarID
		}
		entry.Car = e.catalog.Lookup(carID)
		if avg, ok := timecodec.Average(lap.SectorTimesMs); ok {
			entry.AverageSectorMs = &avg
		}
		out = append(out, entry)
	}
	return out
}

// HistoryFor returns one driver's retained laps, oldest first.
func (e *Engine) HistoryFor(driverID string) []LapRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.HistoryFor(driverID)
}

// DriverStats aggregates every driver's laps since their last reset, best lap
// first. Drivers without a timed lap come last, by id.
func (e *Engine) DriverStats() []DriverStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.ledger.Drivers()
	out := make([]DriverStats, 0, len(ids))
	for _, id := range ids {
		st, _ := e.ledger.Stats(id)
		st.DriverName = id
		if rec, ok := e.standings.Get(id); ok && rec.Name != "" {
			st.DriverName = rec.Name
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].BestLapMs, out[j].BestLapMs
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		default:
			return *a < *b
		}
	})
	return out
}

// Track returns the last track info received.
func (e *Engine) Track() TrackInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.track
}

// SessionInfo returns the current session.
func (e *Engine) SessionInfo() SessionInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// Car looks a car up, returning the placeholder for unknown ids.
func (e *Engine) Car(carID string) CarRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Lookup(carID)
}

// Cars returns the catalog sorted by id.
func (e *Engine) Cars() []CarRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.All()
}

// Status returns the connectivity summary.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Status{
		State:          e.state,
		StateName:      e.state.String(),
		Generation:     e.generation,
		AwaitingResync: e.awaitingResync,
		LastEventAt:    e.lastEventAt,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// Stats returns event counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.stats
	s.Buffered = uint64(len(e.pending))
	return s
}

// applyLocked dispatches one event. It reports whether the read model or the
// connection state changed.
func (e *Engine) applyLocked(ev Event) (bool, error) {
	switch ev := ev.(type) {
	case FullSnapshot:
		e.applySnapshot(ev)
		e.accepted()
		return true, nil

	case *FullSnapshot:
		if ev == nil {
			return e.malformed(KindFullSnapshot, "nil snapshot")
		}
		return e.applyLocked(*ev)

	case CatalogUpdate:
		if !ev.IsFull && e.state == Disconnected {
			e.stats.Dropped++
			e.logger.Debug("Discarded catalog patch while disconnected")
			return false, nil
		}
		e.applyCatalog(ev)
		e.accepted()
		return true, nil

	case LapCompleted:
		return e.applyLap(ev)

	case Connected:
		e.connectLocked()
		return true, nil

	case DisconnectedEvent:
		return e.disconnectLocked(ev.Err), nil

	case TrackInfo:
		e.applyTrack(ev)
		e.accepted()
		return true, nil

	case SessionReset:
		e.standings.Reset()
		e.ledger.Reset()
		e.session = e.defaultSession()
		e.pending = nil
		e.accepted()
		e.logger.Info("Session reset")
		return true, nil

	case RefreshResult:
		if ev.Generation != e.generation || e.state == Disconnected {
			e.stats.Stale++
			return false, fmt.Errorf("%w: generation %d, current %d", ErrStaleResult, ev.Generation, e.generation)
		}
		if ev.Catalog != nil {
			e.applyCatalog(*ev.Catalog)
		}
		if ev.Snapshot != nil {
			e.applySnapshot(*ev.Snapshot)
		}
		e.accepted()
		return true, nil

	case nil:
		return e.malformed("", "nil event")

	default:
		return e.malformed(ev.Kind(), "unsupported event type")
	}
}

// connectLocked advances the generation and schedules a snapshot request for
// it. An engine that has been Live before holds lap events back until that
// snapshot arrives.
func (e *Engine) connectLocked() {
	e.generation++
	e.state = ConnectedNoData
	e.lastErr = nil
	e.awaitingResync = e.everLive
	e.pending = nil
	e.resyncFor = e.generation
	e.logger.Info("Transport connected", zap.Uint64("generation", e.generation))
}

func (e *Engine) disconnectLocked(err error) bool {
	if e.state == Disconnected && err == nil {
		return false
	}
	e.state = Disconnected
	e.pending = nil
	e.resyncFor = 0
	if err != nil {
		e.lastErr = fmt.Errorf("%w: %w", ErrTransportFault, err)
	}
	e.logger.Warn("Transport disconnected", zap.Uint64("generation", e.generation), zap.Error(err))
	return true
}

func (e *Engine) applyTrack(t TrackInfo) {
	t.Name = strings.TrimSpace(t.Name)
	if t.LengthM < 0 {
		t.LengthM = 0
	}
	if t.Sectors < 0 {
		t.Sectors = 0
	}
	e.track = t
	if t.Name != "" && e.session.TrackName == DefaultSessionInfo().TrackName {
		e.session.TrackName = t.Name
	}
}

func (e *Engine) defaultSession() SessionInfo {
	s := DefaultSessionInfo()
	if e.track.Name != "" {
		s.TrackName = e.track.Name
	}
	return s
}

func (e *Engine) applySnapshot(s FullSnapshot) {
	if skipped := e.standings.ReplaceSnapshot(s.Drivers); skipped > 0 {
		e.stats.Malformed += uint64(skipped)
		e.logger.Warn("Snapshot entries without driver id dropped", zap.Int("skipped", skipped))
	}
	e.restartRuns(s.Drivers)
	if s.Session.TrackName == "" {
		s.Session.TrackName = e.track.Name
	}
	e.session = normalizeSession(s.Session)

	if e.state == Disconnected {
		return
	}
	if e.awaitingResync {
		e.awaitingResync = false
		e.replayPending()
	}
}

// restartRuns clears the lap history of drivers whose snapshot lap count fell
// well below the laps already recorded for them. Upstream starts a new race
// without a reset event, so this is the only sign of it.
func (e *Engine) restartRuns(drivers []DriverRecord) {
	for _, d := range drivers {
		if d.ID == "" {
			continue
		}
		rec, ok := e.standings.Get(d.ID)
		if !ok {
			continue
		}
		mark := e.ledger.HighWater(d.ID)
		if mark-rec.LapsCompleted <= restartSlack {
			continue
		}
		e.ledger.Reset(d.ID)
		e.logger.Info("New run detected",
			zap.String("driver_id", d.ID), zap.Int("recorded", mark), zap.Int("reported", rec.LapsCompleted))
	}
}

func (e *Engine) applyCatalog(u CatalogUpdate) {
	var skipped int
	if u.IsFull {
		skipped = e.catalog.ReplaceAll(u.Cars)
	} else {
		patches := make([]CarPatch, 0, len(u.Cars)+len(u.Patches))
		for _, car := range u.Cars {
			patches = append(patches, patchFromRecord(car))
		}
		patches = append(patches, u.Patches...)
		skipped = e.catalog.MergePatch(patches)
	}
	if skipped > 0 {
		e.stats.Malformed += uint64(skipped)
		e.logger.Warn("Catalog entries without car id dropped", zap.Int("skipped", skipped))
	}
}

func (e *Engine) applyLap(ev LapCompleted) (bool, error) {
	if ev.DriverID == "" {
		return e.malformed(KindLapCompleted, "missing driver id")
	}
	if ev.LapNumber < 1 {
		return e.malformed(KindLapCompleted, fmt.Sprintf("invalid lap number %d", ev.LapNumber))
	}

	now := e.clock.Now()
	switch {
	case e.state == Disconnected:
		e.stats.Dropped++
		e.logger.Debug("Discarded lap while disconnected",
			zap.String("driver_id", ev.DriverID), zap.Int("lap", ev.LapNumber))
		return false, nil

	case e.awaitingResync:
		if len(e.pending) >= e.pendingCap {
			e.pending = e.pending[1:]
			e.stats.Dropped++
		}
		e.pending = append(e.pending, pendingLap{event: ev, arrived: now})
		return false, nil
	}

	prev := e.state
	changed := e.recordLap(ev, now)
	e.accepted()
	return changed || prev != e.state, nil
}

// recordLap writes one lap to the ledger and its side effects to standings.
func (e *Engine) recordLap(ev LapCompleted, arrived time.Time) bool {
	lap := LapRecord{
		DriverID:      ev.DriverID,
		LapNumber:     ev.LapNumber,
		LapTimeMs:     ev.LapTimeMs,
		SectorTimesMs: ev.SectorTimesMs,
		Timestamp:     ev.Timestamp,
		ArrivedAt:     arrived,
	}
	if lap.Timestamp.IsZero() {
		lap.Timestamp = arrived
	}

	if rec, ok := e.standings.Get(ev.DriverID); ok && rec.BestLapMs != nil {
		e.ledger.SeedBest(ev.DriverID, *rec.BestLapMs)
	}
	stored, ok := e.ledger.RecordLap(ev.DriverID, lap)
	if !ok {
		e.stats.Duplicates++
		e.logger.Debug("Duplicate lap ignored",
			zap.String("driver_id", ev.DriverID), zap.Int("lap", ev.LapNumber))
		return false
	}

	if e.standings.Ensure(ev.DriverID, ev.DriverName, ev.CarID) {
		e.logger.Debug("Placeholder driver created", zap.String("driver_id", ev.DriverID))
	}
	e.standings.ApplyLapSideEffects(ev.DriverID, stored)
	return true
}

func (e *Engine) replayPending() {
	pending := e.pending
	e.pending = nil
	for _, p := range pending {
		e.recordLap(p.event, p.arrived)
	}
	if len(pending) > 0 {
		e.logger.Info("Replayed buffered laps after resync", zap.Int("laps", len(pending)))
	}
}

func (e *Engine) accepted() {
	e.stats.Accepted++
	e.lastEventAt = e.clock.Now()
	if e.state == ConnectedNoData && !e.awaitingResync {
		e.state = Live
		e.everLive = true
	}
}

func (e *Engine) malformed(kind EventKind, reason string) (bool, error) {
	e.stats.Malformed++
	e.logger.Warn("Malformed event dropped", zap.String("kind", string(kind)), zap.String("reason", reason))
	return false, fmt.Errorf("%w: %s: %s", ErrMalformedEvent, kind, reason)
}

func normalizeSession(s SessionInfo) SessionInfo {
	def := DefaultSessionInfo()
	if s.TrackName == "" {
		s.TrackName = def.TrackName
	}
	if s.Flag == "" {
		s.Flag = def.Flag
	}
	if s.Status == "" {
		s.Status = def.Status
	}
	if s.ElapsedMs < 0 {
		s.ElapsedMs = 0
	}
	if s.CurrentLap < 0 {
		s.CurrentLap = 0
	}
	return s
}

// patchFromRecord turns a record from an incremental update into a patch that
// sets only its non-empty fields.
func patchFromRecord(c CarRecord) CarPatch {
	p := CarPatch{ID: c.ID, Features: c.Features}
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	p.Name = set(c.Name)
	p.Color = set(c.Color)
	p.Manufacturer = set(c.Manufacturer)
	p.Scale = set(c.Scale)
	p.Class = set(c.Class)
	return p
}
