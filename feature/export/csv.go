package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/timecodec"
)

// Export kinds.
const (
	KindRaceResults = "race-results"
	KindLapHistory  = "lap-history"
)

// Kinds lists every export kind in upload order.
var Kinds = []string{KindRaceResults, KindLapHistory}

// Source is the read side of the engine an export is built from.
type Source interface {
	RankedStandings(f reconcile.Filter) []reconcile.DriverRecord
	HistoryFor(driverID string) []reconcile.LapRecord
	Car(carID string) reconcile.CarRecord
	SessionInfo() reconcile.SessionInfo
}

// IsKnownKind reports whether kind can be rendered.
func IsKnownKind(kind string) bool {
	return kind == KindRaceResults || kind == KindLapHistory
}

// Render builds the CSV for kind.
func Render(src Source, kind string) ([]byte, error) {
	var rows [][]string
	switch kind {
	case KindRaceResults:
		rows = raceResults(src)
	case KindLapHistory:
		rows = lapHistory(src)
	default:
		return nil, fmt.Errorf("%w: %q", reconcile.ErrUnknownExportKind, kind)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write %s csv: %w", kind, err)
	}
	return buf.Bytes(), nil
}

func raceResults(src Source) [][]string {
	session := src.SessionInfo()
	rows := [][]string{{
		"Track", "Session", "Position", "Driver ID", "Driver", "Car", "Manufacturer",
		"Laps", "Best Lap", "Last Lap", "Total Time", "Gap", "Status",
	}}
	for _, d := range src.RankedStandings(reconcile.FilterAll()) {
		car := src.Car(d.CarID)
		position := ""
		if d.Position != nil {
			position = strconv.Itoa(*d.Position)
		}
		rows = append(rows, []string{
			session.TrackName,
			session.SessionName,
			position,
			d.ID,
			d.Name,
			car.Name,
			car.Manufacturer,
			strconv.Itoa(d.LapsCompleted),
			timecodec.FormatOptional(d.BestLapMs, timecodec.Full),
			timecodec.FormatOptional(d.LastLapMs, timecodec.Full),
			timecodec.FormatOptional(d.TotalTimeMs, timecodec.Full),
			timecodec.FormatOptional(d.GapMs, timecodec.Compact),
			string(d.Status),
		})
	}
	return rows
}

// lapHistory emits one row per retained lap, grouped by driver in rank order.
// The sector columns widen to the longest lap.
func lapHistory(src Source) [][]string {
	drivers := src.RankedStandings(reconcile.FilterAll())
	histories := make([][]reconcile.LapRecord, len(drivers))
	sectors := 0
	for i, d := range drivers {
		histories[i] = src.HistoryFor(d.ID)
		for _, lap := range histories[i] {
			sectors = max(sectors, len(lap.SectorTimesMs))
		}
	}

	header := []string{"Driver ID", "Driver", "Car", "Lap", "Lap Time"}
	for i := range sectors {
		header = append(header, fmt.Sprintf("Sector %d", i+1))
	}
	header = append(header, "Personal Best", "Timestamp")
	rows := [][]string{header}

	for i, d := range drivers {
		car := src.Car(d.CarID)
		for _, lap := range histories[i] {
			row := []string{
				d.ID,
				d.Name,
				car.Name,
				strconv.Itoa(lap.LapNumber),
				timecodec.FormatOptional(lap.LapTimeMs, timecodec.Full),
			}
			for s := range sectors {
				cell := ""
				if s < len(lap.SectorTimesMs) {
					cell = timecodec.Format(lap.SectorTimesMs[s], timecodec.Compact)
				}
				row = append(row, cell)
			}
			row = append(row, strconv.FormatBool(lap.IsPersonalBest), lap.Timestamp.UTC().Format(time.RFC3339))
			rows = append(rows, row)
		}
	}
	return rows
}
