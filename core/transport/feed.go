package transport

import (
	"race-telemetry/core/reconcile"

	"go.uber.org/zap"
)

// Link is the engine surface a push feed drives. Feeds report connection
// changes as Connected and Disconnected events through the same Submit as
// data, so the engine sees them in arrival order.
type Link interface {
	Submit(events ...reconcile.Event)
}

// dispatch decodes one push message and submits it. Undecodable messages are
// logged and dropped.
func dispatch(link Link, logger *zap.Logger, data []byte) {
	ev, err := DecodeEnvelope(data)
	if err != nil {
		logger.Warn("Dropped push message", zap.Int("bytes", len(data)), zap.Error(err))
		return
	}
	link.Submit(ev)
}
