// Package daemon coordinates the long-running etdbridge process.
//
// It holds the flock-based lock that keeps a second daemon (or an operator
// ledger edit) from writing the ledger concurrently, runs the workflow
// manager, and serves the optional status API. Individual pipeline steps
// live in their own packages; the daemon only handles startup, shutdown,
// and high level coordination.
package daemon
