package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/utils"
)

// Envelope is the push wire format: a kind tag and its payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireDriver struct {
	ID            any    `json:"id"`
	Name          string `json:"name"`
	CarID         any    `json:"car_id"`
	Position      any    `json:"position"`
	LapsCompleted any    `json:"laps_completed"`
	Laps          any    `json:"laps"`
	BestLap       any    `json:"best_lap_ms"`
	LastLap       any    `json:"last_lap_ms"`
	TotalTime     any    `json:"total_time_ms"`
	Gap           any    `json:"gap_ms"`
	Status        string `json:"status"`
}

type wireSession struct {
	TrackName   string `json:"track_name"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
	Elapsed     any    `json:"elapsed_ms"`
	CurrentLap  any    `json:"current_lap"`
	Flag        string `json:"flag"`
	FlagStatus  string `json:"flag_status"`
	Status      string `json:"status"`
}

type wireSnapshot struct {
	Drivers     json.RawMessage `json:"drivers"`
	Session     *wireSession    `json:"session"`
	SessionInfo *wireSession    `json:"session_info"`
}

type wireCar struct {
	ID           any             `json:"id"`
	Name         *string         `json:"name"`
	Color        *string         `json:"color"`
	Manufacturer *string         `json:"manufacturer"`
	Scale        *string         `json:"scale"`
	Class        *string         `json:"class"`
	Features     map[string]bool `json:"features"`
}

type wireCatalog struct {
	IsFull bool            `json:"is_full"`
	Cars   json.RawMessage `json:"cars"`
}

type wireLap struct {
	DriverID    any    `json:"driver_id"`
	DriverName  string `json:"driver_name"`
	CarID       any    `json:"car_id"`
	LapNumber   any    `json:"lap_number"`
	LapTime     any    `json:"lap_time"`
	SectorTimes []any  `json:"sector_times"`
	Timestamp   any    `json:"timestamp"`
}

type wireTrack struct {
	Name    string `json:"name"`
	Length  any    `json:"length"`
	Layout  string `json:"layout"`
	Sectors any    `json:"sectors"`
}

type wireTrackBody struct {
	wireTrack
	TrackData *wireTrack `json:"track_data"`
}

// DecodeEnvelope turns one push message into an engine event.
// Unknown kinds and undecodable payloads wrap reconcile.ErrMalformedEvent.
func DecodeEnvelope(data []byte) (reconcile.Event, error) {
	var env Envelope
	if err := unmarshal(data, &env); err != nil {
		return nil, malformed("envelope", err)
	}

	switch reconcile.EventKind(strings.ToLower(env.Type)) {
	case reconcile.KindFullSnapshot:
		snap, err := DecodeSnapshot(env.Data)
		if err != nil {
			return nil, err
		}
		return *snap, nil
	case reconcile.KindCatalogUpdate:
		var wc wireCatalog
		if err := unmarshal(env.Data, &wc); err != nil {
			return nil, malformed(env.Type, err)
		}
		update, err := decodeCars(wc.Cars, wc.IsFull)
		if err != nil {
			return nil, err
		}
		return *update, nil
	case reconcile.KindLapCompleted:
		return DecodeLap(env.Data)
	case reconcile.KindSessionReset:
		return reconcile.SessionReset{}, nil
	case reconcile.KindTrackInfo:
		return DecodeTrack(env.Data)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", reconcile.ErrMalformedEvent, env.Type)
	}
}

// DecodeSnapshot decodes a full standings snapshot. Drivers may be a list or
// an object keyed by driver id.
func DecodeSnapshot(data []byte) (*reconcile.FullSnapshot, error) {
	var ws wireSnapshot
	if err := unmarshal(data, &ws); err != nil {
		return nil, malformed(reconcile.KindFullSnapshot, err)
	}

	drivers, keys, err := decodeList[wireDriver](ws.Drivers)
	if err != nil {
		return nil, malformed(reconcile.KindFullSnapshot, err)
	}

	snap := &reconcile.FullSnapshot{
		Drivers: make([]reconcile.DriverRecord, 0, len(drivers)),
		Session: reconcile.DefaultSessionInfo(),
	}
	for i, d := range drivers {
		id := utils.ToString(d.ID)
		if id == "" {
			id = keys[i]
		}
		rec := reconcile.DriverRecord{
			ID:          id,
			Name:        d.Name,
			CarID:       utils.ToString(d.CarID),
			Position:    toPosition(d.Position),
			BestLapMs:   utils.ToMillisPtr(d.BestLap),
			LastLapMs:   utils.ToMillisPtr(d.LastLap),
			TotalTimeMs: utils.ToMillisPtr(d.TotalTime),
			GapMs:       utils.ToMillisPtr(d.Gap),
			Status:      reconcile.ParseDriverStatus(d.Status),
		}
		if laps, ok := utils.ToInt(d.LapsCompleted); ok {
			rec.LapsCompleted = laps
		} else if laps, ok := utils.ToInt(d.Laps); ok {
			rec.LapsCompleted = laps
		}
		snap.Drivers = append(snap.Drivers, rec)
	}

	session := ws.Session
	if session == nil {
		session = ws.SessionInfo
	}
	if session != nil {
		snap.Session = session.toInfo()
	}
	return snap, nil
}

// DecodeCatalog decodes a car database: a list of cars or an object keyed by
// car id. full selects wholesale replacement over key-by-key merge.
func DecodeCatalog(data []byte, full bool) (*reconcile.CatalogUpdate, error) {
	return decodeCars(data, full)
}

// DecodeLap decodes a lap_completed payload.
func DecodeLap(data []byte) (reconcile.LapCompleted, error) {
	var wl wireLap
	if err := unmarshal(data, &wl); err != nil {
		return reconcile.LapCompleted{}, malformed(reconcile.KindLapCompleted, err)
	}

	ev := reconcile.LapCompleted{
		DriverID:      utils.ToString(wl.DriverID),
		DriverName:    wl.DriverName,
		CarID:         utils.ToString(wl.CarID),
		LapTimeMs:     utils.ToMillisPtr(wl.LapTime),
		SectorTimesMs: toSectors(wl.SectorTimes),
	}
	ev.LapNumber, _ = utils.ToInt(wl.LapNumber)
	ev.Timestamp, _ = utils.ToTime(wl.Timestamp)
	return ev, nil
}

// DecodeTrack decodes track data, bare or wrapped in a track_data object.
// Sectors may be a count or the list of sectors.
func DecodeTrack(data []byte) (reconcile.TrackInfo, error) {
	var body wireTrackBody
	if err := unmarshal(data, &body); err != nil {
		return reconcile.TrackInfo{}, malformed(reconcile.KindTrackInfo, err)
	}
	wt := body.wireTrack
	if body.TrackData != nil {
		wt = *body.TrackData
	}

	name := strings.TrimSpace(wt.Name)
	if name == "" {
		return reconcile.TrackInfo{}, fmt.Errorf("%w: %s: track without name", reconcile.ErrMalformedEvent, reconcile.KindTrackInfo)
	}
	track := reconcile.TrackInfo{Name: name, Layout: wt.Layout}
	track.LengthM, _ = utils.ToInt(wt.Length)
	switch v := wt.Sectors.(type) {
	case []any:
		track.Sectors = len(v)
	default:
		track.Sectors, _ = utils.ToInt(v)
	}
	return track, nil
}

func decodeCars(raw json.RawMessage, full bool) (*reconcile.CatalogUpdate, error) {
	cars, keys, err := decodeList[wireCar](raw)
	if err != nil {
		return nil, malformed(reconcile.KindCatalogUpdate, err)
	}

	update := &reconcile.CatalogUpdate{IsFull: full}
	for i, c := range cars {
		id := utils.ToString(c.ID)
		if id == "" {
			id = keys[i]
		}
		if full {
			update.Cars = append(update.Cars, reconcile.CarRecord{
				ID:           id,
				Name:         deref(c.Name),
				Color:        deref(c.Color),
				Manufacturer: deref(c.Manufacturer),
				Scale:        deref(c.Scale),
				Class:        deref(c.Class),
				Features:     c.Features,
			})
			continue
		}
		update.Patches = append(update.Patches, reconcile.CarPatch{
			ID:           id,
			Name:         c.Name,
			Color:        c.Color,
			Manufacturer: c.Manufacturer,
			Scale:        c.Scale,
			Class:        c.Class,
			Features:     c.Features,
		})
	}
	return update, nil
}

func (s wireSession) toInfo() reconcile.SessionInfo {
	info := reconcile.SessionInfo{
		TrackName:   s.TrackName,
		SessionName: s.SessionName,
		SessionType: s.SessionType,
		Status:      reconcile.ParseSessionStatus(s.Status),
	}
	if ms, ok := utils.ToMillis(s.Elapsed); ok {
		info.ElapsedMs = ms
	}
	info.CurrentLap, _ = utils.ToInt(s.CurrentLap)

	flag := s.Flag
	if flag == "" {
		flag = s.FlagStatus
	}
	info.Flag = reconcile.ParseFlagStatus(flag)
	return info
}

// decodeList accepts a JSON array or an object of T. For objects the keys are
// returned index-aligned with the values; for arrays they are empty.
func decodeList[T any](raw json.RawMessage) ([]T, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := unmarshal(raw, &items); err != nil {
			return nil, nil, err
		}
		return items, make([]string, len(items)), nil
	}

	var keyed map[string]T
	if err := unmarshal(raw, &keyed); err != nil {
		return nil, nil, err
	}
	items := make([]T, 0, len(keyed))
	keys := make([]string, 0, len(keyed))
	for k, v := range keyed {
		items = append(items, v)
		keys = append(keys, k)
	}
	return items, keys, nil
}

func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func toPosition(v any) *int {
	p, ok := utils.ToInt(v)
	if !ok || p < 1 {
		return nil
	}
	return &p
}

// toSectors converts sector times in order and stops at the first missing or
// unreadable one, so every kept time stays at its sector's position.
func toSectors(values []any) []int64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]int64, 0, len(values))
	for _, v := range values {
		ms, ok := utils.ToMillis(v)
		if !ok {
			break
		}
		out = append(out, ms)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func malformed[K ~string](kind K, err error) error {
	return fmt.Errorf("%w: %s: %w", reconcile.ErrMalformedEvent, kind, err)
}
