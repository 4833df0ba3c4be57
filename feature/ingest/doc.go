// Package ingest receives pushes from the timing software over HTTP.
//
// Each request is decoded and applied to the engine in a single turn, so a
// lap and the car patch riding along with it produce one view notification.
//
// HTTP Endpoints:
//
//	POST /webhook             envelope or race-data body
//	POST /webhook/lap         lap event with nested driver and car
//	POST /webhook/cars        car catalog (?merge=true to patch)
//
// Responses are {"status": "success"|"error", "message": "..."}. Bodies that
// cannot be decoded return 400.
package ingest
