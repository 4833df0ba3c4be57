package reconcile

import (
	"strings"
	"time"
)

// DriverStatus is the race status of a driver.
type DriverStatus string

const (
	StatusRunning  DriverStatus = "Running"
	StatusFinished DriverStatus = "Finished"
	StatusDNF      DriverStatus = "DNF"
	StatusDNS      DriverStatus = "DNS"
	StatusUnknown  DriverStatus = "Unknown"
)

// ParseDriverStatus maps upstream status text case-insensitively.
// Unrecognised values become StatusUnknown.
func ParseDriverStatus(s string) DriverStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StatusRunning
	case "finished":
		return StatusFinished
	case "dnf":
		return StatusDNF
	case "dns":
		return StatusDNS
	default:
		return StatusUnknown
	}
}

// FlagStatus is the track flag currently shown.
type FlagStatus string

const (
	FlagGreen     FlagStatus = "Green"
	FlagYellow    FlagStatus = "Yellow"
	FlagRed       FlagStatus = "Red"
	FlagCheckered FlagStatus = "Checkered"
	FlagUnknown   FlagStatus = "Unknown"
)

// ParseFlagStatus maps upstream flag text case-insensitively.
func ParseFlagStatus(s string) FlagStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return FlagGreen
	case "yellow":
		return FlagYellow
	case "red":
		return FlagRed
	case "checkered", "chequered":
		return FlagCheckered
	default:
		return FlagUnknown
	}
}

// SessionStatus is the run state of the timing session.
type SessionStatus string

const (
	SessionStopped SessionStatus = "Stopped"
	SessionRunning SessionStatus = "Running"
	SessionPaused  SessionStatus = "Paused"
)

// ParseSessionStatus maps upstream session text; anything unknown is Stopped.
func ParseSessionStatus(s string) SessionStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "active", "started":
		return SessionRunning
	case "paused":
		return SessionPaused
	default:
		return SessionStopped
	}
}

// DriverRecord is the current aggregate for one driver.
// Time fields are integral milliseconds; nil means unknown.
type DriverRecord struct {
	// ID is stable for the session.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// CarID references the CarCatalog.
	CarID string `json:"car_id"`

	// Position is nil when the driver is not ranked yet.
	Position *int `json:"position"`

	// LapsCompleted is never negative.
	LapsCompleted int `json:"laps_completed"`

	BestLapMs   *int64 `json:"best_lap_ms"`
	LastLapMs   *int64 `json:"last_lap_ms"`
	TotalTimeMs *int64 `json:"total_time_ms"`

	// GapMs is the signed gap to the leader.
	GapMs *int64 `json:"gap_ms"`

	Status DriverStatus `json:"status"`
}

func (d DriverRecord) clone() DriverRecord {
	out := d
	out.Position = cloneInt(d.Position)
	out.BestLapMs = cloneInt64(d.BestLapMs)
	out.LastLapMs = cloneInt64(d.LastLapMs)
	out.TotalTimeMs = cloneInt64(d.TotalTimeMs)
	out.GapMs = cloneInt64(d.GapMs)
	return out
}

// LapRecord is one completed lap. Immutable once stored in the ledger.
type LapRecord struct {
	DriverID string `json:"driver_id"`

	// LapNumber is positive.
	LapNumber int `json:"lap_number"`

	// LapTimeMs is nil when upstream marked the lap invalid.
	LapTimeMs *int64 `json:"lap_time_ms"`

	// SectorTimesMs holds 0..N sector durations in track order.
	SectorTimesMs []int64 `json:"sector_times_ms"`

	// Timestamp is the source-reported instant, or the arrival time when absent.
	Timestamp time.Time `json:"timestamp"`

	// ArrivedAt is stamped by the engine clock on acceptance.
	ArrivedAt time.Time `json:"arrived_at"`

	// IsPersonalBest is derived when the lap is recorded.
	IsPersonalBest bool `json:"is_personal_best"`

	// seq is the global arrival order.
	seq uint64
}

func (l LapRecord) clone() LapRecord {
	out := l
	out.LapTimeMs = cloneInt64(l.LapTimeMs)
	if l.SectorTimesMs != nil {
		out.SectorTimesMs = append([]int64(nil), l.SectorTimesMs...)
	}
	return out
}

// CarRecord is reference metadata for a car.
type CarRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Color        string          `json:"color"`
	Manufacturer string          `json:"manufacturer"`
	Scale        string          `json:"scale"`
	Class        string          `json:"class"`
	Features     map[string]bool `json:"features"`
}

func (c CarRecord) clone() CarRecord {
	out := c
	if c.Features != nil {
		out.Features = make(map[string]bool, len(c.Features))
		for k, v := range c.Features {
			out.Features[k] = v
		}
	}
	return out
}

// CarPatch carries only the fields an incremental update sets.
type CarPatch struct {
	ID           string          `json:"id"`
	Name         *string         `json:"name,omitempty"`
	Color        *string         `json:"color,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	Scale        *string         `json:"scale,omitempty"`
	Class        *string         `json:"class,omitempty"`
	Features     map[string]bool `json:"features,omitempty"`
}

// SessionInfo describes the running timing session.
type SessionInfo struct {
	TrackName   string        `json:"track_name"`
	SessionName string        `json:"session_name"`
	SessionType string        `json:"session_type"`
	ElapsedMs   int64         `json:"elapsed_ms"`
	CurrentLap  int           `json:"current_lap"`
	Flag        FlagStatus    `json:"flag"`
	Status      SessionStatus `json:"status"`
}

// DefaultSessionInfo is the session shown before any snapshot arrived.
func DefaultSessionInfo() SessionInfo {
	return SessionInfo{
		TrackName: "Unknown Track",
		Flag:      FlagUnknown,
		Status:    SessionStopped,
	}
}

// DriverStats aggregates one driver's laps since its last reset.
type DriverStats struct {
	DriverID     string    `json:"driver_id"`
	DriverName   string    `json:"driver_name"`
	Laps         int       `json:"laps"`
	ValidLaps    int       `json:"valid_laps"`
	BestLapMs    *int64    `json:"best_lap_ms"`
	AverageLapMs *int64    `json:"average_lap_ms"`
	LastLap      int       `json:"last_lap"`
	LastLapMs    *int64    `json:"last_lap_ms"`
	LastLapAt    time.Time `json:"last_lap_at"`
}

// LapFeedEntry is one row of the live lap monitor.
type LapFeedEntry struct {
	Lap        LapRecord `json:"lap"`
	DriverName string    `json:"driver_name"`
	Car        CarRecord `json:"car"`

	// AverageSectorMs is nil when the lap has no sector times.
	AverageSectorMs *int64 `json:"average_sector_ms"`
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
