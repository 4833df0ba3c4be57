// Package timecodec converts between integral millisecond durations and the
// lap-time strings shown on the timing screens.
//
// All arithmetic (averages, gaps) is done on int64 milliseconds. Text is only
// produced at the presentation boundary, so repeated format/parse cycles never
// drift.
//
// # Formats
//
//   - Full:    always M:SS.mmm ("0:45.231", "62:03.456")
//   - Compact: drops the leading "0:" below one minute ("45.231")
//
// Negative values (gaps to a reference driver) carry a leading "-" and are
// formatted on their absolute magnitude.
//
// # Usage
//
//	ms, ok := timecodec.Parse("1:02.345")
//	text := timecodec.Format(ms, timecodec.Compact)
package timecodec
