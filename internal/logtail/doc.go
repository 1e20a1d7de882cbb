// Package logtail reads and colours folio's own log file for the log pane.
//
// # Reading
//
// Read uses a ring buffer of maxLines entries so the last lines of a large
// file are returned in one pass with O(maxLines) memory. Missing files
// return nil, nil.
//
// # Parsing
//
// The viewer logs through logrus' TextFormatter with colours disabled, so
// every line is a sequence of key=value pairs:
//
//	time="2026-10-19T10:01:05+02:00" level=info msg="page rendered" component=viewer page=3
//
// Parse splits such a line into time, level, message and the remaining
// fields. Lines that are not key=value formatted (panics, stray output) do
// not parse and are shown as-is.
//
// # Colorization
//
// ColorizeLine renders the parts with lipgloss styles supplied by the UI
// theme. ColorizeLines also drops entries below a minimum level.
package logtail
