// Package scan fans stylesheet paths out to a fixed pool of workers and
// merges their counters into one result.
package scan

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/core/ports"
	"github.com/phensley/less-scanner/internal/engine/classifier"
	"github.com/phensley/less-scanner/internal/engine/counter"
	"github.com/phensley/less-scanner/internal/engine/parser"
	"github.com/phensley/less-scanner/internal/shared/observability"
	"github.com/phensley/less-scanner/internal/shared/util"
)

// Diagnostic records a file that could not be read or parsed. It does not
// stop the run.
type Diagnostic struct {
	Path string
	Err  error
}

// Result is the merged outcome of one run.
type Result struct {
	Stats       *counter.Store
	Files       int
	Scanned     int
	Failed      int
	Workers     int
	Diagnostics []Diagnostic
	Duration    time.Duration
}

type Options struct {
	// Workers is the pool size. Zero means one per CPU.
	Workers int
	// Parser defaults to the LESS parser with default options.
	Parser ports.StylesheetParser
	// MaxDepth bounds classifier traversal; zero keeps the default.
	MaxDepth int
	// ProgressRate is the maximum number of progress log lines per second.
	// Zero disables progress logging.
	ProgressRate float64
	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Coordinator runs scans. A Coordinator may be reused for several runs but
// runs must not overlap.
type Coordinator struct {
	opts Options
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Parser == nil {
		opts.Parser = parser.New(parser.DefaultOptions())
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	return &Coordinator{opts: opts}
}

// Workers returns the configured pool size; Run never starts more workers
// than it has files.
func (c *Coordinator) Workers() int { return c.opts.Workers }

// Run scans paths. The pool is capped at len(paths) and file i goes to
// worker i mod pool size. Per-file failures
// become diagnostics; a worker failure aborts the run with
// CodeTransportFailure.
func (c *Coordinator) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	n := min(c.opts.Workers, max(len(paths), 1))

	ctx, span := observability.Tracer.Start(ctx, "scan.Run", trace.WithAttributes(
		attribute.Int("scan.files", len(paths)),
		attribute.Int("scan.workers", n),
	))
	defer span.End()

	progress := c.progressFunc(len(paths))
	// Inboxes hold every message a worker will receive, so dispatch never
	// blocks on a slow worker.
	capacity := (len(paths)+n-1)/n + 2

	workers := make([]*worker, n)
	var wg sync.WaitGroup
	for i := range workers {
		scanner := classifier.New()
		if c.opts.MaxDepth > 0 {
			scanner.WithMaxDepth(c.opts.MaxDepth)
		}
		w := &worker{
			id:       i,
			inbox:    make(chan message, capacity),
			parser:   c.opts.Parser,
			scanner:  scanner,
			readFile: c.opts.ReadFile,
			progress: progress,
		}
		workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}
	observability.ActiveWorkers.Add(float64(n))
	defer observability.ActiveWorkers.Sub(float64(n))

	for i, path := range paths {
		workers[i%n].inbox <- scanMessage{path: path}
	}
	observability.FilesDispatchedTotal.Add(float64(len(paths)))
	slog.Debug("dispatched scan requests", "files", len(paths), "workers", n)

	reports := make([]workerReport, n)
	var g errgroup.Group
	for i, w := range workers {
		reply := make(chan workerReport, 1)
		w.inbox <- reportMessage{reply: reply}
		g.Go(func() error {
			reports[i] = <-reply
			return reports[i].err
		})
	}
	err := g.Wait()

	for _, w := range workers {
		w.inbox <- exitMessage{}
	}
	wg.Wait()

	if err != nil {
		observability.WorkerFailuresTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, errors.Wrap(ctxErr, errors.CodeInternal, "scan cancelled")
	}

	result := &Result{Stats: counter.NewStore(), Files: len(paths), Workers: n}
	for _, r := range reports {
		counter.Merge(result.Stats, r.stats)
		result.Scanned += r.scanned
		result.Failed += r.failed
		result.Diagnostics = append(result.Diagnostics, r.diagnostics...)
	}
	sort.SliceStable(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].Path < result.Diagnostics[j].Path
	})
	result.Duration = time.Since(start)

	for _, section := range counter.Sections {
		observability.CounterKeys.WithLabelValues(string(section)).Set(float64(result.Stats.Counter(section).Len()))
	}
	observability.ScanDuration.Observe(result.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("scan.scanned", result.Scanned),
		attribute.Int("scan.failed", result.Failed),
	)
	return result, nil
}

// progressFunc returns a callback that logs completed files at most
// ProgressRate times per second, plus the final file.
func (c *Coordinator) progressFunc(total int) func() {
	limiter := util.NewProgressLimiter(c.opts.ProgressRate)
	if limiter == nil {
		return nil
	}
	var done atomic.Int64
	return func() {
		finished := done.Add(1)
		if finished == int64(total) || limiter.Allow() {
			slog.Info("scan progress", "done", finished, "total", total)
		}
	}
}
