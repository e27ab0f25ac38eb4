// Package app wires configuration, path enumeration, the scan pool, report
// files and run history into one batch run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phensley/less-scanner/internal/core/config"
	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/core/ports"
	"github.com/phensley/less-scanner/internal/core/scan"
	"github.com/phensley/less-scanner/internal/data/history"
	"github.com/phensley/less-scanner/internal/engine/parser"
	"github.com/phensley/less-scanner/internal/output"
	"github.com/phensley/less-scanner/internal/shared/observability"
	"github.com/phensley/less-scanner/internal/shared/util"
)

type App struct {
	Config      *config.Config
	Parser      *parser.Parser
	Filter      *PathFilter
	Coordinator *scan.Coordinator
	Writer      ports.ReportWriter

	history ports.HistoryStore

	mu   sync.RWMutex
	last *Report
}

// Report describes one completed run.
type Report struct {
	Result *scan.Result
	// Missing lists arguments that did not exist.
	Missing     []scan.Diagnostic
	Outputs     []string
	SummaryPath string
	Summary     output.Summary

	// RunID, Previous and Deltas are set when history is enabled. Previous
	// is nil on the first recorded run.
	RunID    string
	Previous *history.Run
	Deltas   []history.SectionDelta
}

func New(cfg *config.Config) (*App, error) {
	backend, err := parser.ParseBackend(cfg.Parser.CSSBackend)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	filter, err := NewPathFilter(cfg.Scan.Recursive, cfg.Scan.Extensions, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	p := parser.New(parser.Options{CSSBackend: backend, MaxDepth: cfg.Parser.MaxDepth})
	a := &App{
		Config: cfg,
		Parser: p,
		Filter: filter,
		Coordinator: scan.NewCoordinator(scan.Options{
			Workers:      cfg.Scan.Workers,
			Parser:       p,
			ProgressRate: cfg.Observability.ProgressRate,
		}),
		Writer: output.NewWriter(cfg.Output.Dir, format),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, cfg.History.Path)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Last returns the most recent successful report, or nil.
func (a *App) Last() *Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Run scans args, writes the section reports and summary, and records the
// run in history when enabled. Unreadable or malformed files and missing
// arguments are reported, not returned as errors.
func (a *App) Run(ctx context.Context, args []string) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Run", trace.WithAttributes(
		attribute.Int("app.args", len(args)),
	))
	defer span.End()

	paths, missing, err := a.Filter.CollectPaths(args)
	if err != nil {
		return nil, err
	}
	slog.Info("collected stylesheets", "files", len(paths), "missing", len(missing))

	result, err := a.Coordinator.Run(ctx, paths)
	if err != nil {
		return nil, err
	}

	report := &Report{Result: result, Missing: missing}
	report.Outputs, err = a.Writer.Write(result.Stats)
	if err != nil {
		return nil, err
	}

	if a.history != nil {
		if err := a.record(report); err != nil {
			return nil, err
		}
	}

	report.Summary = a.summary(report)
	report.SummaryPath, err = a.Writer.WriteSummary(report.Summary)
	if err != nil {
		return nil, err
	}

	slog.Info("scan complete",
		"files", result.Files,
		"scanned", result.Scanned,
		"failed", result.Failed,
		"workers", result.Workers,
		"duration", result.Duration,
		"heap_mb", util.HeapAllocMB(),
	)

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()
	return report, nil
}

func (a *App) record(report *Report) error {
	prev, ok, err := a.history.LatestRun()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load previous run")
	}
	if ok {
		prevStats, err := a.history.LoadCounts(prev.ID)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("load counts of run %s", prev.ID))
		}
		report.Previous = &prev
		report.Deltas = history.Compare(prevStats, report.Result.Stats)
	}

	run, err := a.history.SaveRun(history.Run{
		Timestamp: time.Now().UTC(),
		Files:     report.Result.Files,
		Scanned:   report.Result.Scanned,
		Failed:    report.Result.Failed,
		Workers:   report.Result.Workers,
		Duration:  report.Result.Duration,
	}, report.Result.Stats)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "save run")
	}
	report.RunID = run.ID
	slog.Debug("recorded run", "run_id", run.ID, "path", a.history.Path())
	return nil
}

func (a *App) summary(report *Report) output.Summary {
	s := output.NewSummary(report.Result.Stats)
	s.RunID = report.RunID
	s.Timestamp = time.Now().UTC()
	s.Files = report.Result.Files
	s.Scanned = report.Result.Scanned
	s.Failed = report.Result.Failed
	s.Missing = len(report.Missing)
	s.Workers = report.Result.Workers
	s.DurationMS = report.Result.Duration.Milliseconds()
	return s
}
