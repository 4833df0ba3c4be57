// Package live exposes the reconciled race view over HTTP.
//
// Every handler re-queries the engine; nothing is cached here. Clients learn
// about changes from the websocket hub and pull the rows they display.
//
// Display tones are returned as plain tokens (success, warning, danger, dark,
// primary, secondary) so a frontend can map them to its own styling:
//
//	flag:    Green=success Yellow=warning Red=danger Checkered=dark
//	driver:  Running=success Finished=primary DNF=danger otherwise secondary
//	link:    live=success connected_no_data=warning disconnected=danger
//
// HTTP Endpoints:
//
//	GET  /live/standings?filter=top6   ranked rows
//	GET  /live/laps?n=20               newest laps first
//	GET  /live/session                 session header
//	GET  /live/status                  connectivity and counters
//	GET  /live/drivers/:id/laps        one driver's history
//	GET  /live/cars                    catalog
//	GET  /live/cars/:id                one car or the placeholder
//	POST /live/filter                  {"mode": "all"}
//	POST /live/resync                  request a fresh snapshot
//	POST /live/reset                   clear session data
//	POST /live/export/:kind            export and upload
package live
