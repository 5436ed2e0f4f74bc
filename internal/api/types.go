package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Submission describes a journal record in a transport-friendly format.
type Submission struct {
	ID           int64    `json:"id"`
	RequestID    string   `json:"requestId"`
	ArchivePath  string   `json:"archivePath"`
	Destination  string   `json:"destination"`
	Submission   string   `json:"submission"`
	State        string   `json:"state"`
	ErrorKind    string   `json:"errorKind,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	Resources    int      `json:"resources"`
	ManualFiles  []string `json:"manualFiles,omitempty"`
	RecordKey    string   `json:"recordKey,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool        `json:"running"`
	LastCycle  string      `json:"lastCycle,omitempty"`
	LastError  string      `json:"lastError,omitempty"`
	Processed  int         `json:"processed"`
	LastResult *LastResult `json:"lastResult,omitempty"`
}

// LastResult is the outcome of the most recently processed submission.
type LastResult struct {
	ArchivePath string   `json:"archivePath"`
	Destination string   `json:"destination"`
	Submission  string   `json:"submission"`
	State       string   `json:"state"`
	Resources   int      `json:"resources"`
	ManualFiles []string `json:"manualFiles,omitempty"`
	RecordKey   string   `json:"recordKey,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// LedgerStatus reports ledger sizes.
type LedgerStatus struct {
	Dir    string `json:"dir"`
	Seen   int    `json:"seen"`
	Broken int    `json:"broken"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	StartedAt    string         `json:"startedAt,omitempty"`
	LockFilePath string         `json:"lockFilePath"`
	JournalPath  string         `json:"journalPath,omitempty"`
	Destinations []string       `json:"destinations"`
	Workflow     WorkflowStatus `json:"workflow"`
	Ledger       LedgerStatus   `json:"ledger"`
	StateCounts  map[string]int `json:"stateCounts,omitempty"`
}

// SubmissionListResponse wraps a collection of submissions.
type SubmissionListResponse struct {
	Items []Submission `json:"items"`
}

// SubmissionResponse wraps a single submission.
type SubmissionResponse struct {
	Item Submission `json:"item"`
}

// ErrorResponse is returned for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
