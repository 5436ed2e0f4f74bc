// Package transform maps the combined metadata record onto the repository's
// import schema by running an XSLT stylesheet.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"etdbridge/internal/logging"
	"etdbridge/internal/services"
)

const stage = "transforming"

// Transformer produces the transformed record for a combined record on disk.
type Transformer interface {
	Transform(ctx context.Context, inputPath string) ([]byte, error)
}

// XSLTProc runs an xsltproc-compatible processor:
//
//	<processor> --nonet <stylesheet> <input>
type XSLTProc struct {
	processor  string
	stylesheet string
	timeout    time.Duration
	exec       services.Executor
	logger     *slog.Logger
}

// Option configures an XSLTProc.
type Option func(*XSLTProc)

// WithExecutor injects a custom command executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(x *XSLTProc) {
		if exec != nil {
			x.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *XSLTProc) {
		x.logger = logging.NewComponentLogger(logger, "transform")
	}
}

// NewXSLTProc constructs a processor-backed Transformer.
func NewXSLTProc(processor, stylesheet string, timeout time.Duration, opts ...Option) *XSLTProc {
	x := &XSLTProc{
		processor:  processor,
		stylesheet: stylesheet,
		timeout:    timeout,
		exec:       services.CommandExecutor{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Transform applies the stylesheet to inputPath and returns the result with
// deterministic two-space indentation.
func (x *XSLTProc) Transform(ctx context.Context, inputPath string) ([]byte, error) {
	if _, err := os.Stat(x.stylesheet); err != nil {
		return nil, services.Fail(services.ErrTransform, stage, "Stylesheet", "stylesheet unavailable", err).
			WithPath(x.stylesheet).
			WithHint("check transform.stylesheet in the configuration")
	}

	runCtx := ctx
	if x.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	started := time.Now()
	args := []string{"--nonet", x.stylesheet, inputPath}
	out, err := x.exec.Run(runCtx, x.processor, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", x.timeout)
		}
		return nil, services.Fail(services.ErrTransform, stage, x.processor, "stylesheet processing failed", err).
			WithPath(inputPath).
			WithHint("run the processor manually against the combined record to see the full diagnostic")
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, services.Fail(services.ErrTransform, stage, x.processor, "processor produced no output", nil).
			WithPath(inputPath)
	}

	indented, err := Indent(out)
	if err != nil {
		return nil, services.Fail(services.ErrTransform, stage, "Indent", "processor output is not well-formed", err).
			WithPath(inputPath)
	}
	x.logger.Debug("stylesheet applied",
		logging.String(logging.FieldEventType, "transform_complete"),
		logging.String("input", filepath.Base(inputPath)),
		logging.Int("bytes", len(indented)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return indented, nil
}
