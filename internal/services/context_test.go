package services_test

import (
	"context"
	"testing"

	"etdbridge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSubmission(ctx, "etd_0042")
	ctx = services.WithDestination(ctx, "dept1")
	ctx = services.WithStage(ctx, "extracting")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.SubmissionFromContext(ctx); !ok || name != "etd_0042" {
		t.Fatalf("unexpected submission: %v %v", name, ok)
	}
	if dest, ok := services.DestinationFromContext(ctx); !ok || dest != "dept1" {
		t.Fatalf("unexpected destination: %v %v", dest, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "extracting" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithSubmission(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.SubmissionFromContext(ctx); ok {
		t.Fatal("expected no submission value")
	}
}
