package services

import "context"

type contextKey string

const (
	submissionKey  contextKey = "submission"
	destinationKey contextKey = "destination"
	stageKey       contextKey = "stage"
	requestIDKey   contextKey = "request_id"
)

// WithSubmission annotates context with the submission name.
func WithSubmission(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, submissionKey, name)
}

// SubmissionFromContext extracts the submission name if present.
func SubmissionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(submissionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDestination annotates context with the intake destination folder.
func WithDestination(ctx context.Context, destination string) context.Context {
	if destination == "" {
		return ctx
	}
	return context.WithValue(ctx, destinationKey, destination)
}

// DestinationFromContext returns the destination folder if present.
func DestinationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(destinationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
