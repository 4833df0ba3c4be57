package ingest

import (
	"errors"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/transport"

	"go.uber.org/zap"
)

// ErrEmptyBody is returned when a webhook carries no payload.
var ErrEmptyBody = errors.New("no JSON data received")

// Applier is the part of the engine the webhooks feed.
type Applier interface {
	Apply(events ...reconcile.Event) error
}

// Service decodes webhook payloads and applies them in one engine turn.
type Service struct {
	engine Applier
	logger *zap.Logger
}

// NewService creates a new ingest service.
func NewService(engine Applier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, logger: logger}
}

// RaceData handles an envelope or a race-data body.
func (s *Service) RaceData(body []byte) (reconcile.EventKind, error) {
	if len(body) == 0 {
		return "", ErrEmptyBody
	}
	ev, err := transport.DecodeWebhook(body)
	if err != nil {
		return "", err
	}
	return ev.Kind(), s.engine.Apply(ev)
}

// Lap handles a SmartRace lap event, including its car patch.
func (s *Service) Lap(body []byte) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	events, err := transport.DecodeSmartRaceLap(body)
	if err != nil {
		return err
	}
	return s.engine.Apply(events...)
}

// Track handles track data and returns the applied track.
func (s *Service) Track(body []byte) (reconcile.TrackInfo, error) {
	if len(body) == 0 {
		return reconcile.TrackInfo{}, ErrEmptyBody
	}
	track, err := transport.DecodeTrack(body)
	if err != nil {
		return reconcile.TrackInfo{}, err
	}
	return track, s.engine.Apply(track)
}

// Cars handles a catalog body. merge applies it as a patch instead of a
// replacement.
func (s *Service) Cars(body []byte, merge bool) (int, error) {
	if len(body) == 0 {
		return 0, ErrEmptyBody
	}
	update, err := transport.DecodeCatalog(body, !merge)
	if err != nil {
		return 0, err
	}
	return len(update.Cars) + len(update.Patches), s.engine.Apply(*update)
}
