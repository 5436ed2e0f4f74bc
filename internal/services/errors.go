package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDirectoryConflict    = errors.New("directory conflict")
	ErrSourceMissing        = errors.New("source missing")
	ErrAggregation          = errors.New("aggregation error")
	ErrTransform            = errors.New("transform error")
	ErrPublish              = errors.New("publish error")
	ErrUnresolvedReference  = errors.New("unresolved reference")
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrUnknownFileType      = errors.New("unknown file type")
)

// ErrorKind names the failure classes the workflow manager reacts to.
type ErrorKind string

const (
	KindDirectoryConflict    ErrorKind = "DirectoryConflict"
	KindSourceMissing        ErrorKind = "SourceMissing"
	KindAggregation          ErrorKind = "AggregationError"
	KindTransform            ErrorKind = "TransformError"
	KindPublish              ErrorKind = "PublishError"
	KindUnresolvedReference  ErrorKind = "UnresolvedReference"
	KindMissingConfiguration ErrorKind = "MissingConfiguration"
	KindUnknownFileType      ErrorKind = "UnknownFileType"
	KindInternal             ErrorKind = "Internal"
)

var markerKinds = []struct {
	marker error
	kind   ErrorKind
}{
	{ErrDirectoryConflict, KindDirectoryConflict},
	{ErrSourceMissing, KindSourceMissing},
	{ErrAggregation, KindAggregation},
	{ErrTransform, KindTransform},
	{ErrPublish, KindPublish},
	{ErrUnresolvedReference, KindUnresolvedReference},
	{ErrMissingConfiguration, KindMissingConfiguration},
	{ErrUnknownFileType, KindUnknownFileType},
}

// StageError carries the marker and context of a failed pipeline stage.
type StageError struct {
	Marker     error
	Stage      string
	Operation  string
	Message    string
	DetailPath string
	Hint       string
	Cause      error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	marker := e.Marker
	if marker == nil {
		marker = errors.New(string(KindInternal))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", marker, detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", marker, detail)
}

// Is reports whether target is the marker this error was built with.
func (e *StageError) Is(target error) bool {
	return e.Marker != nil && target == e.Marker
}

func (e *StageError) Unwrap() error { return e.Cause }

// WithPath records the file or directory the failure refers to.
func (e *StageError) WithPath(path string) *StageError {
	e.DetailPath = strings.TrimSpace(path)
	return e
}

// WithHint records an operator-facing remediation hint.
func (e *StageError) WithHint(hint string) *StageError {
	e.Hint = strings.TrimSpace(hint)
	return e
}

// Fail builds a StageError. The marker should be one of the exported
// sentinel errors above.
func Fail(marker error, stage, operation, message string, err error) *StageError {
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification.
func Wrap(marker error, stage, operation, message string, err error) error {
	return Fail(marker, stage, operation, message, err)
}

// KindOf classifies err by the marker it carries.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, mk := range markerKinds {
		if errors.Is(err, mk.marker) {
			return mk.kind
		}
	}
	return KindInternal
}

// ErrorDetails flattens a StageError for structured logging.
type ErrorDetails struct {
	Kind       ErrorKind
	Stage      string
	Operation  string
	Message    string
	DetailPath string
	Hint       string
	Cause      error
}

// Details extracts logging fields from err. Errors that are not StageErrors
// only populate Kind and Message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: KindOf(err), Message: err.Error()}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		details.Stage = stageErr.Stage
		details.Operation = stageErr.Operation
		details.Message = stageErr.Message
		details.DetailPath = stageErr.DetailPath
		details.Hint = stageErr.Hint
		details.Cause = stageErr.Cause
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
