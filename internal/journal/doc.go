// Package journal records the history of every submission the daemon
// processes in a SQLite database.
//
// The ledger files decide whether an archive is processed; the journal only
// describes what happened to it (current state, failure kind, published
// record) for the history command and the status API. Losing the journal
// never causes reprocessing.
package journal
