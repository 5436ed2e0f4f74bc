// Command etdbridge runs the thesis intake daemon and offers operator
// utilities for inspecting the ledger, the submission journal, and the
// configured storage backend.
package main
