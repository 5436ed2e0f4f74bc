// Package workflow drives submission archives through the intake pipeline.
//
// The Manager scans every configured destination folder on each tick,
// records an archive in the ledger before touching it, and then runs the
// stages strictly in order: extract, aggregate, transform, publish, rewrite,
// notify. A failure in any stage quarantines the archive (ledger broken log
// plus a failure notification) and processing moves on to the next archive.
// Archives are processed one at a time.
//
// Progress is mirrored into the submission journal and Prometheus metrics
// for the history command and the status API; neither influences which
// archives are processed.
package workflow
