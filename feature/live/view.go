package live

import (
	"race-telemetry/core/reconcile"
	"race-telemetry/core/timecodec"
)

// Display tones, matching the dashboard's badge classes.
const (
	ToneSuccess   = "success"
	ToneWarning   = "warning"
	ToneDanger    = "danger"
	ToneDark      = "dark"
	TonePrimary   = "primary"
	ToneSecondary = "secondary"
)

// StandingRow is one leaderboard line.
type StandingRow struct {
	Rank int `json:"rank"`
	reconcile.DriverRecord
	Car reconcile.CarRecord `json:"car"`

	BestLap    string `json:"best_lap"`
	LastLap    string `json:"last_lap"`
	TotalTime  string `json:"total_time"`
	Gap        string `json:"gap"`
	StatusTone string `json:"status_tone"`
}

// LapRow is one lap monitor line.
type LapRow struct {
	reconcile.LapFeedEntry
	LapTime       string   `json:"lap_time"`
	Sectors       []string `json:"sectors"`
	AverageSector string   `json:"average_sector"`
}

// SessionView is the session header.
type SessionView struct {
	reconcile.SessionInfo
	Track      reconcile.TrackInfo `json:"track"`
	Elapsed    string              `json:"elapsed"`
	FlagTone   string              `json:"flag_tone"`
	StatusTone string              `json:"status_tone"`
}

// StatusView is the connectivity badge plus event counters.
type StatusView struct {
	reconcile.Status
	Tone  string          `json:"tone"`
	Stats reconcile.Stats `json:"stats"`
}

// FlagTone maps a track flag to a display tone.
func FlagTone(f reconcile.FlagStatus) string {
	switch f {
	case reconcile.FlagGreen:
		return ToneSuccess
	case reconcile.FlagYellow:
		return ToneWarning
	case reconcile.FlagRed:
		return ToneDanger
	case reconcile.FlagCheckered:
		return ToneDark
	default:
		return ToneSecondary
	}
}

// DriverStatusTone maps a driver status to a display tone.
func DriverStatusTone(s reconcile.DriverStatus) string {
	switch s {
	case reconcile.StatusRunning:
		return ToneSuccess
	case reconcile.StatusFinished:
		return TonePrimary
	case reconcile.StatusDNF:
		return ToneDanger
	default:
		return ToneSecondary
	}
}

func sessionStatusTone(s reconcile.SessionStatus) string {
	switch s {
	case reconcile.SessionRunning:
		return ToneSuccess
	case reconcile.SessionPaused:
		return ToneWarning
	default:
		return ToneSecondary
	}
}

func connTone(s reconcile.ConnState) string {
	switch s {
	case reconcile.Live:
		return ToneSuccess
	case reconcile.ConnectedNoData:
		return ToneWarning
	default:
		return ToneDanger
	}
}

// formatGap renders a gap with an explicit sign; the leader shows "-".
func formatGap(gap *int64) string {
	if gap == nil || *gap == 0 {
		return timecodec.Placeholder
	}
	text := timecodec.Format(*gap, timecodec.Compact)
	if *gap > 0 {
		return "+" + text
	}
	return text
}

func newStandingRow(rank int, d reconcile.DriverRecord, car reconcile.CarRecord) StandingRow {
	return StandingRow{
		Rank:         rank,
		DriverRecord: d,
		Car:          car,
		BestLap:      timecodec.FormatOptional(d.BestLapMs, timecodec.Full),
		LastLap:      timecodec.FormatOptional(d.LastLapMs, timecodec.Full),
		TotalTime:    timecodec.FormatOptional(d.TotalTimeMs, timecodec.Full),
		Gap:          formatGap(d.GapMs),
		StatusTone:   DriverStatusTone(d.Status),
	}
}

func newLapRow(e reconcile.LapFeedEntry) LapRow {
	row := LapRow{
		LapFeedEntry:  e,
		LapTime:       timecodec.FormatOptional(e.Lap.LapTimeMs, timecodec.Full),
		Sectors:       make([]string, len(e.Lap.SectorTimesMs)),
		AverageSector: timecodec.FormatOptional(e.AverageSectorMs, timecodec.Compact),
	}
	for i, s := range e.Lap.SectorTimesMs {
		row.Sectors[i] = timecodec.Format(s, timecodec.Compact)
	}
	return row
}

func newSessionView(s reconcile.SessionInfo, track reconcile.TrackInfo) SessionView {
	return SessionView{
		SessionInfo: s,
		Track:       track,
		Elapsed:     timecodec.Format(s.ElapsedMs, timecodec.Full),
		FlagTone:    FlagTone(s.Flag),
		StatusTone:  sessionStatusTone(s.Status),
	}
}

// DriverStatsView is one row of the driver statistics table.
type DriverStatsView struct {
	reconcile.DriverStats
	BestLap     string `json:"best_lap"`
	AverageLap  string `json:"average_lap"`
	LastLapTime string `json:"last_lap_time"`
}

func newDriverStatsView(st reconcile.DriverStats) DriverStatsView {
	return DriverStatsView{
		DriverStats: st,
		BestLap:     timecodec.FormatOptional(st.BestLapMs, timecodec.Full),
		AverageLap:  timecodec.FormatOptional(st.AverageLapMs, timecodec.Full),
		LastLapTime: timecodec.FormatOptional(st.LastLapMs, timecodec.Full),
	}
}

// LapRecordView is one lap of a driver's history.
type LapRecordView struct {
	reconcile.LapRecord
	LapTime string   `json:"lap_time"`
	Sectors []string `json:"sectors"`
}

func newLapRecordView(l reconcile.LapRecord) LapRecordView {
	v := LapRecordView{
		LapRecord: l,
		LapTime:   timecodec.FormatOptional(l.LapTimeMs, timecodec.Full),
		Sectors:   make([]string, len(l.SectorTimesMs)),
	}
	for i, s := range l.SectorTimesMs {
		v.Sectors[i] = timecodec.Format(s, timecodec.Compact)
	}
	return v
}
