package workflow

import (
	"time"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	LastCycle  time.Time
	LastError  string
	LastResult *Result
	Processed  int
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := StatusSummary{
		Running:   m.running,
		LastCycle: m.lastCycle,
		Processed: m.processed,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastResult != nil {
		copy := *m.lastResult
		summary.LastResult = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastResult(result Result) {
	m.mu.Lock()
	m.lastResult = &result
	m.processed++
	m.mu.Unlock()
}
