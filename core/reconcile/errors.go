package reconcile

import "errors"

var (
	// ErrMalformedEvent marks an event missing a required field. It is dropped.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrStaleResult marks a refresh issued for an older session generation.
	ErrStaleResult = errors.New("stale refresh result")

	// ErrTransportFault marks a connect or fetch failure reported by a transport.
	ErrTransportFault = errors.New("transport fault")

	// ErrUnknownFilter is returned when a filter mode cannot be parsed.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrNoExportHandler is returned by RequestExport when nothing is wired.
	ErrNoExportHandler = errors.New("no export handler configured")
)

// ErrNoSnapshotSource is returned by ForceResync when no requester is wired.
var ErrNoSnapshotSource = errors.New("no snapshot source configured")

// ErrUnknownExportKind is returned by export handlers for a kind they do not produce.
var ErrUnknownExportKind = errors.New("unknown export kind")
