package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreapp "github.com/phensley/less-scanner/internal/core/app"
	"github.com/phensley/less-scanner/internal/core/config"
	"github.com/phensley/less-scanner/internal/shared/observability"
	"github.com/phensley/less-scanner/internal/ui/report"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "lessscan v%s\n", versionString)
		return exitOK
	}

	if len(opts.args) == 0 {
		fmt.Fprintln(stderr, "usage: lessscan [flags] <path>...")
		return exitUsage
	}

	configureLogging(stderr, opts.quiet, opts.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitError
	}

	cfg, cfgPath, err := config.LoadOrDefault(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		return exitError
	}
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(opts, cfg)
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		return exitError
	}
	if cfgPath != "" {
		slog.Debug("loaded config", "path", cfgPath)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		ServiceVersion: versionString,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return exitError
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitError
	}
	defer a.Close()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, coreapp.NewHealthService(a))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err, "addr", addr)
			return exitError
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	result, err := a.Run(ctx, opts.args)
	if err != nil {
		slog.Error("scan failed", "error", err)
		return exitError
	}

	if !opts.quiet {
		fmt.Fprint(stdout, report.RenderSummary(result, report.Options{
			Top:       cfg.Output.Top,
			OutputDir: cfg.Output.Dir,
		}))
	}
	return exitOK
}

// applyFlagOverrides copies explicitly given flags over config values.
func applyFlagOverrides(opts cliOptions, cfg *config.Config) {
	if opts.set["workers"] {
		cfg.Scan.Workers = opts.workers
	}
	if opts.set["recursive"] {
		cfg.Scan.Recursive = opts.recursive
	}
	if opts.set["out"] {
		cfg.Output.Dir = opts.outDir
	}
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	if opts.set["top"] {
		cfg.Output.Top = opts.top
	}
	if opts.set["css-backend"] {
		cfg.Parser.CSSBackend = opts.cssBackend
	}
	if opts.set["history"] {
		cfg.History.Enabled = opts.history
	}
	if opts.set["metrics-addr"] {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.set["otlp-endpoint"] {
		cfg.Observability.OTLPEndpoint = opts.otlpEndpoint
	}
}

func configureLogging(w io.Writer, quiet, verbose bool) {
	logLevel := slog.LevelInfo
	switch {
	case verbose:
		logLevel = slog.LevelDebug
	case quiet:
		logLevel = slog.LevelWarn
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
