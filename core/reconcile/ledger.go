package reconcile

import (
	"sort"
	"time"
)

// DefaultLapCap is the number of laps kept per driver. It is also the upper
// bound for a configured capacity.
const DefaultLapCap = 50

// driverRun tracks one driver's laps since the last reset. It outlives the
// eviction of the laps it counted.
type driverRun struct {
	seen    map[int]struct{}
	mark    int
	laps    int
	valid   int
	sumMs   int64
	bestMs  int64
	lastLap int
	lastMs  *int64
	lastAt  time.Time
}

// LapLedger keeps a bounded, arrival-ordered lap history per driver.
// Stored laps are never rewritten; the ledger only appends and evicts.
type LapLedger struct {
	cap   int
	seq   uint64
	laps  map[string][]LapRecord
	best  map[string]int64
	runs  map[string]*driverRun
	total int
}

// NewLapLedger creates a ledger holding at most capacity laps per driver.
// A non-positive capacity falls back to DefaultLapCap and larger ones are
// clamped to it.
func NewLapLedger(capacity int) *LapLedger {
	if capacity <= 0 || capacity > DefaultLapCap {
		capacity = DefaultLapCap
	}
	return &LapLedger{
		cap:  capacity,
		laps: make(map[string][]LapRecord),
		best: make(map[string]int64),
		runs: make(map[string]*driverRun),
	}
}

// Cap returns the per-driver capacity.
func (l *LapLedger) Cap() int {
	return l.cap
}

// Has reports whether lapNumber was recorded for the driver since its last
// reset, including laps already evicted from the history.
func (l *LapLedger) Has(driverID string, lapNumber int) bool {
	run, ok := l.runs[driverID]
	if !ok {
		return false
	}
	_, seen := run.seen[lapNumber]
	return seen
}

// HighWater returns the highest lap number recorded for the driver since its
// last reset, or 0.
func (l *LapLedger) HighWater(driverID string) int {
	if run, ok := l.runs[driverID]; ok {
		return run.mark
	}
	return 0
}

// SeedBest lowers the driver's best to ms when ms is lower, so laps are
// judged against a best known from elsewhere.
func (l *LapLedger) SeedBest(driverID string, ms int64) {
	if best, ok := l.best[driverID]; !ok || ms < best {
		l.best[driverID] = ms
	}
}

// RecordLap appends lap to the driver's history and evicts from the front
// while the history is over capacity. The stored copy is returned with its
// personal-best flag set. A lap number already recorded since the driver's
// last reset is not recorded again and ok is false.
func (l *LapLedger) RecordLap(driverID string, lap LapRecord) (stored LapRecord, ok bool) {
	if l.Has(driverID, lap.LapNumber) {
		return LapRecord{}, false
	}

	stored = lap.clone()
	stored.DriverID = driverID
	l.seq++
	stored.seq = l.seq

	stored.IsPersonalBest = false
	if stored.LapTimeMs != nil {
		best, seen := l.best[driverID]
		if !seen || *stored.LapTimeMs < best {
			l.best[driverID] = *stored.LapTimeMs
			stored.IsPersonalBest = true
		}
	}

	l.count(driverID, stored)

	history := append(l.laps[driverID], stored)
	l.total++
	if over := len(history) - l.cap; over > 0 {
		history = append([]LapRecord(nil), history[over:]...)
		l.total -= over
	}
	l.laps[driverID] = history

	return stored.clone(), true
}

func (l *LapLedger) count(driverID string, lap LapRecord) {
	run, ok := l.runs[driverID]
	if !ok {
		run = &driverRun{seen: make(map[int]struct{})}
		l.runs[driverID] = run
	}
	run.seen[lap.LapNumber] = struct{}{}
	if lap.LapNumber > run.mark {
		run.mark = lap.LapNumber
	}
	run.laps++
	if lap.LapTimeMs != nil {
		if run.valid == 0 || *lap.LapTimeMs < run.bestMs {
			run.bestMs = *lap.LapTimeMs
		}
		run.valid++
		run.sumMs += *lap.LapTimeMs
	}
	if lap.LapNumber >= run.lastLap {
		run.lastLap = lap.LapNumber
		run.lastMs = cloneInt64(lap.LapTimeMs)
		run.lastAt = lap.Timestamp
	}
}

// Stats aggregates the driver's laps since its last reset. Evicted laps are
// still counted. Best and average cover timed laps recorded here, and the
// average is truncated to whole ms.
func (l *LapLedger) Stats(driverID string) (DriverStats, bool) {
	run, ok := l.runs[driverID]
	if !ok {
		return DriverStats{}, false
	}
	st := DriverStats{
		DriverID:  driverID,
		Laps:      run.laps,
		ValidLaps: run.valid,
		LastLap:   run.lastLap,
		LastLapMs: cloneInt64(run.lastMs),
		LastLapAt: run.lastAt,
	}
	if run.valid > 0 {
		best := run.bestMs
		avg := run.sumMs / int64(run.valid)
		st.BestLapMs = &best
		st.AverageLapMs = &avg
	}
	return st, true
}

// Drivers returns the ids with laps since their last reset, sorted.
func (l *LapLedger) Drivers() []string {
	ids := make([]string, 0, len(l.runs))
	for id := range l.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BestLap returns the lowest lap time recorded or seeded for the driver
// since its last reset, including laps already evicted.
func (l *LapLedger) BestLap(driverID string) (int64, bool) {
	v, ok := l.best[driverID]
	return v, ok
}

// HistoryFor returns the driver's laps oldest first.
func (l *LapLedger) HistoryFor(driverID string) []LapRecord {
	history := l.laps[driverID]
	out := make([]LapRecord, len(history))
	for i, lap := range history {
		out[i] = lap.clone()
	}
	return out
}

// RecentLaps returns up to n laps across all drivers, newest arrival first.
// Laps that arrived at the same instant are ordered by driver id, then by
// arrival sequence newest first.
func (l *LapLedger) RecentLaps(n int) []LapRecord {
	if n <= 0 || l.total == 0 {
		return []LapRecord{}
	}

	all := make([]LapRecord, 0, l.total)
	for _, history := range l.laps {
		all = append(all, history...)
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.ArrivedAt.Equal(b.ArrivedAt) {
			return a.ArrivedAt.After(b.ArrivedAt)
		}
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.seq > b.seq
	})

	if n > len(all) {
		n = len(all)
	}
	out := make([]LapRecord, n)
	for i := range out {
		out[i] = all[i].clone()
	}
	return out
}

// Reset clears the named drivers, or every driver when none are given.
func (l *LapLedger) Reset(driverIDs ...string) {
	if len(driverIDs) == 0 {
		l.laps = make(map[string][]LapRecord)
		l.best = make(map[string]int64)
		l.runs = make(map[string]*driverRun)
		l.total = 0
		return
	}
	for _, id := range driverIDs {
		l.total -= len(l.laps[id])
		delete(l.laps, id)
		delete(l.best, id)
		delete(l.runs, id)
	}
}

// Len returns the number of laps held across all drivers.
func (l *LapLedger) Len() int {
	return l.total
}
