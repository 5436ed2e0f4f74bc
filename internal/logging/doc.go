// Package logging assembles the slog loggers used by etdbridge.
//
// It owns the console and JSON handlers, level parsing, and output fan-out to
// stdout plus the daemon log file. Context helpers tag log lines with the
// submission, destination, and stage carried on the context so workflow code
// does not repeat those attributes at every call site.
package logging
