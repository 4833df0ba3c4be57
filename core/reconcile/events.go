package reconcile

import "time"

// EventKind names an inbound event on the wire and in logs.
type EventKind string

const (
	KindFullSnapshot  EventKind = "full_snapshot"
	KindCatalogUpdate EventKind = "catalog_update"
	KindLapCompleted  EventKind = "lap_completed"
	KindSessionReset  EventKind = "session_reset"
	KindRefreshResult EventKind = "refresh_result"
	KindTrackInfo     EventKind = "track_info"
	KindConnected     EventKind = "connected"
	KindDisconnected  EventKind = "disconnected"
)

// Event is anything the engine accepts through Apply or Submit.
type Event interface {
	Kind() EventKind
}

// FullSnapshot is an authoritative replacement of all drivers and the session.
type FullSnapshot struct {
	Drivers []DriverRecord
	Session SessionInfo
}

// Kind implements Event.
func (FullSnapshot) Kind() EventKind { return KindFullSnapshot }

// CatalogUpdate replaces the whole catalog when IsFull, otherwise merges.
// Cars holds complete records for a full update and only the set fields of
// Patches are applied for a merge.
type CatalogUpdate struct {
	IsFull  bool
	Cars    []CarRecord
	Patches []CarPatch
}

// Kind implements Event.
func (CatalogUpdate) Kind() EventKind { return KindCatalogUpdate }

// LapCompleted reports one finished lap.
type LapCompleted struct {
	DriverID      string
	DriverName    string
	CarID         string
	LapNumber     int
	LapTimeMs     *int64
	SectorTimesMs []int64
	Timestamp     time.Time
}

// Kind implements Event.
func (LapCompleted) Kind() EventKind { return KindLapCompleted }

// SessionReset clears standings and lap history for a new session.
type SessionReset struct{}

// Kind implements Event.
func (SessionReset) Kind() EventKind { return KindSessionReset }

// RefreshResult is the resolved outcome of a pull refresh issued at
// Generation. Either part may be nil when that fetch was not requested.
type RefreshResult struct {
	Generation uint64
	Snapshot   *FullSnapshot
	Catalog    *CatalogUpdate
}

// Kind implements Event.
func (RefreshResult) Kind() EventKind { return KindRefreshResult }

// TrackInfo describes the circuit. It is reference data and survives session
// resets and snapshots.
type TrackInfo struct {
	Name    string `json:"name"`
	LengthM int    `json:"length_m"`
	Layout  string `json:"layout"`
	Sectors int    `json:"sectors"`
}

// Kind implements Event.
func (TrackInfo) Kind() EventKind { return KindTrackInfo }

// Connected reports a transport (re)connect. It is ordered with the data
// events around it when submitted through the same inbox.
type Connected struct{}

// Kind implements Event.
func (Connected) Kind() EventKind { return KindConnected }

// DisconnectedEvent reports a transport loss. A nil Err is a clean close.
type DisconnectedEvent struct {
	Err error
}

// Kind implements Event.
func (DisconnectedEvent) Kind() EventKind { return KindDisconnected }
