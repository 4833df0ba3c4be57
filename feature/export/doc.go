// Package export renders race data as CSV and uploads it to object storage.
//
// Two kinds exist: race-results (one row per driver in rank order) and
// lap-history (one row per retained lap). Uploads land in the configured
// bucket as {export_prefix}/{kind}_{20060102-150405}.csv; after each upload
// only the newest export_retain files of that kind are kept.
//
// The Service implements reconcile.ExportHandler so the engine's export
// command ends up here.
//
// HTTP Endpoints:
//
//	GET  /export/csv/:kind        download a CSV
//	POST /export/upload           upload every kind
//	POST /export/upload/:kind     upload one kind
//	GET  /export/uploads          list uploads, newest first
//	GET  /export/uploads/:name    download an upload
package export
