// Package reconcile merges live race telemetry into one consistent read model.
//
// Push events (lap completions, catalog patches) and authoritative pull
// snapshots arrive out of order, partially and sometimes twice. The Engine
// folds them into a bounded, queryable view of the current race from which
// every display is derived.
//
// # Components
//
// The engine owns three stores and never hands their internals out:
//
//   - CarCatalog: car metadata, replaced in bulk or patched key by key.
//     Lookups never fail; unknown ids get a placeholder car.
//   - LapLedger: per-driver lap history capped at 50 entries, evicted
//     oldest first. Stored laps are never rewritten.
//   - StandingsTable: one aggregate record per driver, replaced wholesale by
//     snapshots. Lap events only touch lap count, last lap and best lap.
//
// # Connection states
//
// The engine starts Disconnected. Connect moves it to ConnectedNoData,
// advances the session generation and asks the SnapshotRequester for a full
// refresh. The first accepted event makes it Live. Disconnect returns it to
// Disconnected from any state.
//
// While Disconnected, lap events and catalog patches are discarded and
// refresh results are stale. After a reconnect of an engine that was Live
// before, lap events are held back until the refresh snapshot lands and are
// then replayed on top of it.
//
// # Event precedence
//
// Events apply in arrival order:
//
//  1. FullSnapshot and RefreshResult replace standings and session info.
//  2. CatalogUpdate merges a patch, or replaces the catalog when IsFull.
//  3. LapCompleted records the lap, then applies its side effects. A lap for
//     an unknown driver creates a placeholder standings entry.
//  4. TrackInfo sets the circuit, which outlives snapshots and resets.
//
// A lap number is recorded once per driver run, even after eviction. A
// snapshot whose lap count trails a driver's recorded laps by more than two
// starts a new run for that driver.
//
// A RefreshResult whose generation is not current is dropped with
// ErrStaleResult. Events missing a required id are dropped with
// ErrMalformedEvent. Neither is fatal.
//
// Connection changes are events too. Connect and Disconnect apply them at
// once, while feeds Submit Connected and Disconnected so they keep their
// place in the inbox.
//
// # Notifications
//
// Apply processes a batch as one turn and fires OnViewChanged subscribers at
// most once. Subscribers get no payload and re-query the engine.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(reconcile.Config{Logger: log})
//	unsubscribe := engine.OnViewChanged(func() {
//	    render(engine.RankedStandings(reconcile.FilterTop(6)))
//	})
//	defer unsubscribe()
//
//	engine.Connect()
//	_ = engine.Apply(reconcile.LapCompleted{DriverID: "1", LapNumber: 1, LapTimeMs: &ms})
package reconcile
