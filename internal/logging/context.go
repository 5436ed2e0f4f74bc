package logging

import (
	"context"
	"log/slog"

	"etdbridge/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldSubmission is the key for the archive file name being processed.
	FieldSubmission = "submission"
	// FieldDestination is the key for the intake folder name.
	FieldDestination = "destination"
	// FieldStage is the key for workflow stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorKind     = "error_kind"
	FieldErrorHint     = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if value, ok := services.DestinationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDestination, value))
	}
	if value, ok := services.SubmissionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSubmission, value))
	}
	if value, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, value))
	}
	if value, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, value))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
