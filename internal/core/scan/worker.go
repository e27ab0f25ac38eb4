package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/core/ports"
	"github.com/phensley/less-scanner/internal/engine/classifier"
	"github.com/phensley/less-scanner/internal/shared/observability"
)

// worker owns one classifier and serves its inbox sequentially, so its
// counters are never shared.
type worker struct {
	id       int
	inbox    chan message
	parser   ports.StylesheetParser
	scanner  *classifier.Scanner
	readFile func(string) ([]byte, error)
	progress func()

	scanned     int
	failed      int
	diagnostics []Diagnostic
	// fatal is set when handling a message panicked. The worker keeps
	// draining its inbox so the coordinator is never left waiting.
	fatal error
}

func (w *worker) run(ctx context.Context) {
	for msg := range w.inbox {
		switch m := msg.(type) {
		case scanMessage:
			w.handle(ctx, m.path)
		case reportMessage:
			m.reply <- w.report()
		case exitMessage:
			return
		}
	}
}

func (w *worker) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.New(errors.CodeTransportFailure, fmt.Sprintf("worker panicked: %v", r))
			err = errors.AddContext(err, errors.CtxWorker, w.id)
			w.fatal = errors.AddContext(err, errors.CtxPath, path)
			slog.Error("scan worker panicked", "worker", w.id, "path", path, "panic", r)
		}
	}()
	if w.fatal != nil || ctx.Err() != nil {
		return
	}
	w.scanFile(ctx, path)
	if w.progress != nil {
		w.progress()
	}
}

func (w *worker) scanFile(ctx context.Context, path string) {
	backend := w.parser.BackendFor(path)
	_, span := observability.Tracer.Start(ctx, "scan.File", trace.WithAttributes(
		attribute.String("file.path", path),
		attribute.String("parser.backend", string(backend)),
		attribute.Int("scan.worker", w.id),
	))
	defer span.End()

	content, err := w.readFile(path)
	if err != nil {
		span.SetStatus(codes.Error, "read failed")
		w.fail(path, readError(err, path))
		return
	}

	start := time.Now()
	sheet, err := w.parser.ParseFile(path, content)
	observability.ParsingDuration.WithLabelValues(string(backend)).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, "parse failed")
		w.fail(path, err)
		return
	}

	w.scanner.Scan(sheet)
	w.scanned++
	observability.FilesScannedTotal.WithLabelValues("ok").Inc()
	slog.Debug("scanned file", "worker", w.id, "path", path, "backend", backend)
}

func (w *worker) fail(path string, err error) {
	w.failed++
	w.diagnostics = append(w.diagnostics, Diagnostic{Path: path, Err: err})
	observability.FilesScannedTotal.WithLabelValues("failed").Inc()
	slog.Warn("failed to scan file", "worker", w.id, "path", path, "error", err)
}

func (w *worker) report() workerReport {
	diags := make([]Diagnostic, len(w.diagnostics))
	copy(diags, w.diagnostics)
	return workerReport{
		id:          w.id,
		stats:       w.scanner.Snapshot(),
		scanned:     w.scanned,
		failed:      w.failed,
		diagnostics: diags,
		err:         w.fatal,
	}
}

func readError(err error, path string) error {
	code := errors.CodeInternal
	switch {
	case os.IsNotExist(err):
		code = errors.CodeNotFound
	case os.IsPermission(err):
		code = errors.CodePermissionDenied
	}
	return errors.AddContext(errors.Wrap(err, code, "read failed"), errors.CtxPath, path)
}
