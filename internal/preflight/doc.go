// Package preflight provides readiness checks for the filesystem paths,
// programs, and services etdbridge depends on.
//
// The daemon runs RunAll at startup and logs every failed check; the CLI
// "etdbridge check" command renders the same results as a table and exits
// non-zero when any check fails.
package preflight
