// Package daemonrun assembles the etdbridge runtime from configuration:
// logging, the instance lock, the ledger and journal, the storage backend,
// the workflow stages, and the daemon with its optional status API.
package daemonrun
