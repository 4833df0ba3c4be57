package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/utils"
)

// SmartRace posts laps as {"time", "event_type", "event_data"} where
// event_data carries the controller, lap, times and nested driver and car.
type smartRaceLap struct {
	Time      any    `json:"time"`
	EventType string `json:"event_type"`
	EventData struct {
		ControllerID any `json:"controller_id"`
		Lap          any `json:"lap"`
		Laptime      any `json:"laptime"`
		LaptimeRaw   any `json:"laptime_raw"`
		Sector1      any `json:"sector_1"`
		Sector2      any `json:"sector_2"`
		Sector3      any `json:"sector_3"`
		DriverData   struct {
			ID   any    `json:"id"`
			Name string `json:"name"`
		} `json:"driver_data"`
		CarData struct {
			ID           any    `json:"id"`
			Name         string `json:"name"`
			Manufacturer string `json:"manufacturer"`
		} `json:"car_data"`
	} `json:"event_data"`
}

type raceDriver struct {
	Name        string `json:"name"`
	CarID       any    `json:"carId"`
	Laps        any    `json:"laps"`
	BestLapTime any    `json:"bestLapTime"`
	LastLapTime any    `json:"lastLapTime"`
	Position    any    `json:"position"`
	TotalTime   any    `json:"totalTime"`
	Gap         any    `json:"gap"`
	Status      string `json:"status"`
}

type raceData struct {
	RaceTime     any                   `json:"raceTime"`
	TotalLaps    any                   `json:"totalLaps"`
	RaceMode     string                `json:"raceMode"`
	TrackName    string                `json:"trackName"`
	IsRaceActive any                   `json:"isRaceActive"`
	Flag         string                `json:"flagStatus"`
	Drivers      map[string]raceDriver `json:"drivers"`
}

// DecodeSmartRaceLap decodes a SmartRace lap update. The car carried with the
// lap is returned first as a catalog patch so the lap feed can show it.
func DecodeSmartRaceLap(data []byte) ([]reconcile.Event, error) {
	var msg smartRaceLap
	if err := unmarshal(data, &msg); err != nil {
		return nil, malformed("smartrace_lap", err)
	}
	ed := msg.EventData

	driverID := utils.ToString(ed.DriverData.ID)
	if driverID == "" {
		driverID = utils.ToString(ed.ControllerID)
	}
	if driverID == "" {
		return nil, fmt.Errorf("%w: smartrace lap without driver or controller id", reconcile.ErrMalformedEvent)
	}

	lap := reconcile.LapCompleted{
		DriverID:   driverID,
		DriverName: ed.DriverData.Name,
		CarID:      utils.ToString(ed.CarData.ID),
		LapTimeMs:  utils.ToMillisPtr(ed.LaptimeRaw),
	}
	if lap.LapTimeMs == nil {
		lap.LapTimeMs = utils.ToMillisPtr(ed.Laptime)
	}
	lap.LapNumber, _ = utils.ToInt(ed.Lap)
	lap.Timestamp, _ = utils.ToTime(msg.Time)
	lap.SectorTimesMs = toSectors([]any{ed.Sector1, ed.Sector2, ed.Sector3})

	events := make([]reconcile.Event, 0, 2)
	if lap.CarID != "" && (ed.CarData.Name != "" || ed.CarData.Manufacturer != "") {
		patch := reconcile.CarPatch{ID: lap.CarID}
		if ed.CarData.Name != "" {
			patch.Name = &ed.CarData.Name
		}
		if ed.CarData.Manufacturer != "" {
			patch.Manufacturer = &ed.CarData.Manufacturer
		}
		events = append(events, reconcile.CatalogUpdate{Patches: []reconcile.CarPatch{patch}})
	}
	return append(events, lap), nil
}

// DecodeRaceData decodes the SmartRace race-data webhook body, an object with
// camelCase session fields and drivers keyed by id, as a full snapshot.
func DecodeRaceData(data []byte) (*reconcile.FullSnapshot, error) {
	var rd raceData
	if err := unmarshal(data, &rd); err != nil {
		return nil, malformed("race_data", err)
	}

	snap := &reconcile.FullSnapshot{
		Drivers: make([]reconcile.DriverRecord, 0, len(rd.Drivers)),
		Session: reconcile.DefaultSessionInfo(),
	}
	if rd.TrackName != "" {
		snap.Session.TrackName = rd.TrackName
	}
	snap.Session.SessionType = rd.RaceMode
	snap.Session.SessionName = rd.RaceMode
	if ms, ok := utils.ToMillis(rd.RaceTime); ok {
		snap.Session.ElapsedMs = ms
	}
	snap.Session.CurrentLap, _ = utils.ToInt(rd.TotalLaps)
	if utils.ToBool(rd.IsRaceActive) {
		snap.Session.Status = reconcile.SessionRunning
	}
	snap.Session.Flag = reconcile.ParseFlagStatus(rd.Flag)

	for id, d := range rd.Drivers {
		name := d.Name
		if name == "" {
			name = "Driver " + id
		}
		rec := reconcile.DriverRecord{
			ID:          id,
			Name:        name,
			CarID:       utils.ToString(d.CarID),
			Position:    toPosition(d.Position),
			BestLapMs:   utils.ToMillisPtr(d.BestLapTime),
			LastLapMs:   utils.ToMillisPtr(d.LastLapTime),
			TotalTimeMs: utils.ToMillisPtr(d.TotalTime),
			GapMs:       utils.ToMillisPtr(d.Gap),
			Status:      reconcile.ParseDriverStatus(d.Status),
		}
		rec.LapsCompleted, _ = utils.ToInt(d.Laps)
		snap.Drivers = append(snap.Drivers, rec)
	}
	return snap, nil
}

// DecodeWebhook accepts either an Envelope or a SmartRace race-data body.
func DecodeWebhook(data []byte) (reconcile.Event, error) {
	var head struct {
		Type json.RawMessage `json:"type"`
	}
	if err := unmarshal(data, &head); err != nil {
		return nil, malformed("webhook", err)
	}
	if len(bytes.TrimSpace(head.Type)) > 0 {
		return DecodeEnvelope(data)
	}

	snap, err := DecodeRaceData(data)
	if err != nil {
		return nil, err
	}
	return *snap, nil
}
