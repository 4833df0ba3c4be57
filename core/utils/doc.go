// Package utils provides lenient conversions for loosely typed telemetry JSON.
//
// Timing software is inconsistent about types: positions arrive as numbers or
// numeric strings, lap times as milliseconds or "M:SS.mmm" text, timestamps as
// RFC 3339 or epoch milliseconds. Decoders unmarshal such fields into any
// (with json.Decoder.UseNumber) and convert them here.
package utils
