// Package logging configures the process-wide slog logger for cranir.
//
// By default diagnostics go to stderr as text at warn level, so the only
// output of a normal run is its progress display and completion message.
// With --debug, JSON records at debug level are also appended to a
// size-rotated file under ~/.cranir/logs/.
package logging
