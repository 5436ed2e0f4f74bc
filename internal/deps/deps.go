// Package deps reports the availability of external programs etdbridge
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"etdbridge/internal/config"
)

// Requirement defines an external program the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when available.
	Path   string
	Detail string
}

// Requirements lists the programs the configuration needs.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{{
		Name:        "XSLT processor",
		Command:     cfg.Transform.Processor,
		Description: "Required to transform combined metadata",
	}}
	if cfg.Storage.Backend == config.BackendUploader {
		reqs = append(reqs, Requirement{
			Name:        "Uploader",
			Command:     cfg.Storage.UploaderPath,
			Description: "Required to publish resources",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
