// Package cli implements the lessscan command line.
package cli

import (
	"flag"
	"io"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath   string
	workers      int
	outDir       string
	format       string
	recursive    bool
	cssBackend   string
	history      bool
	metricsAddr  string
	otlpEndpoint string
	top          int
	quiet        bool
	verbose      bool
	version      bool
	args         []string

	// set records the flags given explicitly, so only those override config.
	set map[string]bool
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("lessscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		io.WriteString(stderr, "usage: lessscan [flags] <path>...\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: ./lessscan.toml, then ./data/config/lessscan.toml)")
	fs.IntVar(&opts.workers, "workers", 0, "Number of scan workers (0 = one per CPU)")
	fs.StringVar(&opts.outDir, "out", "", "Directory for per-section report files")
	fs.StringVar(&opts.format, "format", "", "Report format: tsv or json")
	fs.BoolVar(&opts.recursive, "recursive", false, "Descend into subdirectories of directory arguments")
	fs.StringVar(&opts.cssBackend, "css-backend", "", "Parser for .css files: tree-sitter or less")
	fs.BoolVar(&opts.history, "history", false, "Record the run in the local history database")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address during the run")
	fs.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/gRPC endpoint")
	fs.IntVar(&opts.top, "top", -1, "Keys listed per section in the summary")
	fs.BoolVar(&opts.quiet, "quiet", false, "Only log warnings and errors; skip the summary")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.args = fs.Args()
	return opts, nil
}
