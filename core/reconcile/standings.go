package reconcile

import "sort"

// StandingsTable holds the current aggregate record per driver.
type StandingsTable struct {
	drivers map[string]DriverRecord
}

// NewStandingsTable creates an empty table.
func NewStandingsTable() *StandingsTable {
	return &StandingsTable{drivers: make(map[string]DriverRecord)}
}

// ReplaceSnapshot overwrites the table with drivers. Records without an id are
// skipped and counted; for repeated ids the last record wins.
func (t *StandingsTable) ReplaceSnapshot(drivers []DriverRecord) (skipped int) {
	next := make(map[string]DriverRecord, len(drivers))
	for _, d := range drivers {
		if d.ID == "" {
			skipped++
			continue
		}
		rec := d.clone()
		if rec.LapsCompleted < 0 {
			rec.LapsCompleted = 0
		}
		if rec.Position != nil && *rec.Position < 1 {
			rec.Position = nil
		}
		if rec.Status == "" {
			rec.Status = StatusUnknown
		}
		next[rec.ID] = rec
	}
	t.drivers = next
	return skipped
}

// Ensure creates a placeholder record for an unseen driver: no position,
// status Unknown. Existing records only get empty name or car filled in.
func (t *StandingsTable) Ensure(driverID, name, carID string) (created bool) {
	rec, ok := t.drivers[driverID]
	if !ok {
		if name == "" {
			name = driverID
		}
		t.drivers[driverID] = DriverRecord{
			ID:     driverID,
			Name:   name,
			CarID:  carID,
			Status: StatusUnknown,
		}
		return true
	}

	if rec.Name == "" && name != "" {
		rec.Name = name
	}
	if rec.CarID == "" && carID != "" {
		rec.CarID = carID
	}
	t.drivers[driverID] = rec
	return false
}

// ApplyLapSideEffects updates lap count, last lap and best lap of one driver.
// Position, gap and other drivers are never touched. A lap older than the
// current count does not replace the last lap time.
func (t *StandingsTable) ApplyLapSideEffects(driverID string, lap LapRecord) {
	rec, ok := t.drivers[driverID]
	if !ok {
		return
	}

	if lap.LapNumber >= rec.LapsCompleted {
		rec.LastLapMs = cloneInt64(lap.LapTimeMs)
		rec.LapsCompleted = lap.LapNumber
	}
	if lap.LapTimeMs != nil && (rec.BestLapMs == nil || *lap.LapTimeMs < *rec.BestLapMs) {
		rec.BestLapMs = cloneInt64(lap.LapTimeMs)
	}

	t.drivers[driverID] = rec
}

// Get returns a copy of one driver's record.
func (t *StandingsTable) Get(driverID string) (DriverRecord, bool) {
	rec, ok := t.drivers[driverID]
	if !ok {
		return DriverRecord{}, false
	}
	return rec.clone(), true
}

// RankedView orders drivers by position ascending, unpositioned drivers last,
// ties by driver id. The zero filter behaves like FilterAll.
func (t *StandingsTable) RankedView(filter Filter) []DriverRecord {
	out := make([]DriverRecord, 0, len(t.drivers))
	for _, rec := range t.drivers {
		out = append(out, rec.clone())
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Position != nil && b.Position != nil:
			if *a.Position != *b.Position {
				return *a.Position < *b.Position
			}
		case a.Position != nil:
			return true
		case b.Position != nil:
			return false
		}
		return a.ID < b.ID
	})

	if k := filter.Limit(); k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// Reset removes every driver.
func (t *StandingsTable) Reset() {
	t.drivers = make(map[string]DriverRecord)
}

// Len returns the number of drivers.
func (t *StandingsTable) Len() int {
	return len(t.drivers)
}
