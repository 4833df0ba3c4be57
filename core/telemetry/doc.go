// Package telemetry holds the configuration of the live telemetry pipeline:
// which push transport feeds the engine, where pull refreshes come from and
// how much history the engine keeps.
//
// # Transports
//
//   - webhook: the timing software posts to /webhook* on the API port.
//   - websocket: the service dials FeedURL and reads envelopes.
//   - nats: the service subscribes to NATSSubject on NATSURL.
//
// Polling of UpstreamURL runs alongside any transport when it is set.
package telemetry
