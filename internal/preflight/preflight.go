package preflight

import (
	"context"

	"etdbridge/internal/config"
	"etdbridge/internal/storage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check. backend may be nil to skip the
// storage round trip.
func RunAll(ctx context.Context, cfg *config.Config, backend storage.Backend) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Intake root", cfg.Paths.IntakeRoot))
	for _, name := range cfg.DestinationNames() {
		results = append(results, CheckDirectoryAccess("Intake "+name, cfg.DestinationDir(name)))
	}
	results = append(results, CheckDirectoryAccess("Ledger directory", cfg.Paths.LedgerDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckStylesheet(cfg.Transform.Stylesheet))
	results = append(results, CheckDependencies(cfg)...)

	if backend != nil {
		results = append(results, CheckStorage(ctx, backend, cfg.Storage.RemoteRoot))
	}
	if cfg.Notifications.Transport == config.TransportNtfy {
		for _, name := range cfg.DestinationNames() {
			if recipient, ok := cfg.Recipient(name); ok {
				results = append(results, CheckNtfy(ctx, "Notifications "+name, recipient))
			}
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
