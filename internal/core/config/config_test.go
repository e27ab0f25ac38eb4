package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phensley/less-scanner/internal/core/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[scan]
workers = 4
recursive = true
extensions = ["less", ".CSS", " "]

[parser]
css_backend = "LESS"
max_depth = 64

[exclude]
dirs = ["node_modules", ".git"]
files = ["*.min.css"]

[output]
dir = "out"
format = "json"
top = 10

[history]
enabled = true
path = "runs.db"

[observability]
metrics_addr = "127.0.0.1:9464"
otlp_endpoint = "localhost:4317"
progress_rate = 2.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Expected default version 1, got %d", cfg.Version)
	}
	if cfg.Scan.Workers != 4 || !cfg.Scan.Recursive {
		t.Errorf("Unexpected scan section: %+v", cfg.Scan)
	}
	if strings.Join(cfg.Scan.Extensions, ",") != ".less,.css" {
		t.Errorf("Expected normalized extensions, got %v", cfg.Scan.Extensions)
	}
	if cfg.Parser.CSSBackend != "less" || cfg.Parser.MaxDepth != 64 {
		t.Errorf("Unexpected parser section: %+v", cfg.Parser)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Files[0] != "*.min.css" {
		t.Errorf("Unexpected exclude section: %+v", cfg.Exclude)
	}
	if cfg.Output.Dir != "out" || cfg.Output.Format != "json" || cfg.Output.Top != 10 {
		t.Errorf("Unexpected output section: %+v", cfg.Output)
	}
	if !cfg.History.Enabled || cfg.History.Path != "runs.db" {
		t.Errorf("Unexpected history section: %+v", cfg.History)
	}
	if cfg.Observability.ProgressRate != 2.5 || cfg.Observability.OTLPEndpoint != "localhost:4317" {
		t.Errorf("Unexpected observability section: %+v", cfg.Observability)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Parser.CSSBackend != "tree-sitter" {
		t.Errorf("Expected tree-sitter css backend, got %q", cfg.Parser.CSSBackend)
	}
	if cfg.Parser.MaxDepth != 256 {
		t.Errorf("Expected max depth 256, got %d", cfg.Parser.MaxDepth)
	}
	if cfg.Output.Dir != "stats" || cfg.Output.Format != "tsv" || cfg.Output.Top != 5 {
		t.Errorf("Unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.History.Enabled {
		t.Error("History should be disabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config does not validate: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[scan\nworkers = 1", "decode config"},
		{"unknown key", "[scan]\nthreads = 2", `unknown config key "scan.threads"`},
		{"negative workers", "[scan]\nworkers = -1", "scan.workers"},
		{"bad backend", "[parser]\ncss_backend = \"antlr\"", "parser.css_backend"},
		{"bad format", "[output]\nformat = \"xml\"", "output.format"},
		{"bad glob", "[exclude]\nfiles = [\"[a-\"]", "exclude.files[0]"},
		{"bad metrics addr", "[observability]\nmetrics_addr = \"9464\"", "observability.metrics_addr"},
		{"bad version", "version = 3", "unsupported config version"},
		{"separator in extension", "[scan]\nextensions = [\"a/b\"]", "scan.extensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("Expected VALIDATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !os.IsNotExist(err) {
		t.Fatalf("Expected not-exist error, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	cwd := t.TempDir()

	if got := Discover("", cwd); got != "" {
		t.Fatalf("Expected no config, got %q", got)
	}

	nested := writeConfig(t, filepath.Join(cwd, "data", "config"), "")
	if got := Discover("", cwd); got != nested {
		t.Fatalf("Expected %q, got %q", nested, got)
	}

	root := writeConfig(t, cwd, "")
	if got := Discover("", cwd); got != root {
		t.Fatalf("Expected root config %q to win, got %q", root, got)
	}

	if got := Discover("custom.toml", cwd); got != "custom.toml" {
		t.Fatalf("Expected explicit path, got %q", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cwd := t.TempDir()
	cfg, path, err := LoadOrDefault("", cwd)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" || cfg.Output.Format != "tsv" {
		t.Fatalf("Expected defaults, got path %q format %q", path, cfg.Output.Format)
	}

	writeConfig(t, cwd, "[output]\nformat = \"json\"\n")
	cfg, path, err = LoadOrDefault("", cwd)
	if err != nil {
		t.Fatal(err)
	}
	if path == "" || cfg.Output.Format != "json" {
		t.Fatalf("Expected discovered config, got path %q format %q", path, cfg.Output.Format)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LESSSCAN_SCAN_WORKERS", "7")
	t.Setenv("LESSSCAN_SCAN_RECURSIVE", "TRUE")
	t.Setenv("LESSSCAN_OUTPUT_FORMAT", " JSON ")
	t.Setenv("LESSSCAN_OBSERVABILITY_PROGRESS_RATE", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Scan.Workers != 7 {
		t.Errorf("Expected workers 7, got %d", cfg.Scan.Workers)
	}
	if !cfg.Scan.Recursive {
		t.Error("Expected recursive override")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected normalized json format, got %q", cfg.Output.Format)
	}
	if cfg.Observability.ProgressRate != 0 {
		t.Errorf("Expected invalid rate to be ignored, got %v", cfg.Observability.ProgressRate)
	}
}
