// Package logs reads the daemon's log files for the "etdbridge logs"
// command: the last N lines of the current run and a polling follow mode
// that survives the etdbridge.log pointer moving to a new run.
package logs
