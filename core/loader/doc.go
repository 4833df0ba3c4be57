// Package loader registers HTTP features with the fiber app.
//
// A feature owns one route group and reports whether it is enabled; the
// start command builds live, ingest and export, registers them and calls
// LoadAll once. Disabled features are logged and skipped, which is how the
// webhook routes disappear when the telemetry transport is websocket or nats.
//
//	mgr := loader.NewManager(logg)
//	_ = mgr.Register(live.NewFeature(engine, logg))
//	if err := mgr.LoadAll(app); err != nil { ... }
//
// Registering two features under the same name is an error.
package loader
