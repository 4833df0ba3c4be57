// Package transport adapts the timing server's wire formats and connections
// to the reconcile engine.
//
// # Decoding
//
// Push messages use an Envelope: {"type": kind, "data": payload} with kinds
// full_snapshot, catalog_update, lap_completed and session_reset. SmartRace's
// own webhook bodies (race data and lap updates) are decoded as well. Field
// types are lenient: times may be milliseconds or "M:SS.mmm" text, ids and
// positions may be numbers or strings. Anything that cannot be decoded wraps
// reconcile.ErrMalformedEvent.
//
// # Pull refreshes
//
// Poller fetches /api/data and /api/car-database through a Fetcher on a fixed
// interval and whenever the engine asks for a resync. Results carry the
// generation they were issued for, so the engine can discard those that
// complete after a reconnect.
//
// # Push feeds
//
// WSFeed (gorilla/websocket) and NATSFeed (nats.go) submit envelopes and
// their own Connected and Disconnected events through the Link interface, so
// a lap read before a drop is applied before the drop.
package transport
