package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "github.com/phensley/less-scanner/internal/core/app"
	"github.com/phensley/less-scanner/internal/core/config"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if strings.TrimSpace(stdout) != "lessscan v"+versionString {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no paths", nil},
		{"unknown flag", []string{"--bogus", "x"}},
		{"bad int", []string{"--workers", "many", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Fatalf("expected exit %d, got %d", exitUsage, code)
			}
			if !strings.Contains(stderr, "lessscan") {
				t.Fatalf("expected usage on stderr, got %q", stderr)
			}
		})
	}
}

func TestRun_Scan(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.less"), "@w: 10px;\n.a { width: @w; color: #fff; }\n")
	writeFile(t, filepath.Join(src, "nested", "b.less"), ".b { .mixin(1px) !important; }\n")
	writeFile(t, filepath.Join(src, "broken.less"), ".c {")
	out := filepath.Join(t.TempDir(), "stats")

	code, stdout, stderr := runCLI(t,
		"--out", out, "--workers", "2", "--recursive", "--format", "json", "--top", "3",
		src, filepath.Join(src, "missing.less"))
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d; stderr:\n%s", code, stderr)
	}

	for _, want := range []string{"lessscan summary", "Files: 3", "Failed: 1", "Missing paths: 1", "properties ("} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "failed to scan file") {
		t.Errorf("expected a warning for the broken file, got:\n%s", stderr)
	}

	data, err := os.ReadFile(filepath.Join(out, "properties.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var entries []struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected width and color, got %+v", entries)
	}
	if _, err := os.Stat(filepath.Join(out, "summary.json")); err != nil {
		t.Fatalf("missing summary.json: %v", err)
	}
}

func TestRun_Quiet(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.css"), "p { margin: 0; }")

	code, stdout, stderr := runCLI(t, "--quiet", "--out", t.TempDir(), "--css-backend", "less", src)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d; stderr:\n%s", code, stderr)
	}
	if stdout != "" {
		t.Fatalf("expected no summary in quiet mode, got %q", stdout)
	}
	if strings.Contains(stderr, "scan complete") {
		t.Fatalf("expected info logs to be suppressed, got %q", stderr)
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "lessscan.toml")
	writeFile(t, bad, "[output]\nformat = \"xml\"\n")

	tests := []struct {
		name string
		args []string
	}{
		{"invalid config file", []string{"--config", bad, "."}},
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "."}},
		{"invalid flag value", []string{"--format", "xml", "."}},
		{"invalid backend", []string{"--css-backend", "antlr", "."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			if code != exitError {
				t.Fatalf("expected exit %d, got %d", exitError, code)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.Workers = 8
	cfg.Output.Format = "json"

	opts, err := parseOptions([]string{"--workers", "2", "--history", "--top", "0", "x.less"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	applyFlagOverrides(opts, cfg)

	if cfg.Scan.Workers != 2 {
		t.Errorf("expected workers 2, got %d", cfg.Scan.Workers)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled")
	}
	if cfg.Output.Top != 0 {
		t.Errorf("expected top 0, got %d", cfg.Output.Top)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("unset --format must keep config value, got %q", cfg.Output.Format)
	}
	if len(opts.args) != 1 || opts.args[0] != "x.less" {
		t.Errorf("unexpected positional args %v", opts.args)
	}
}

func TestObservabilityServer(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	a, err := coreapp.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	server := NewObservabilityServer("127.0.0.1:0", coreapp.NewHealthService(a))
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer server.Stop(context.Background())

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	var status coreapp.HealthStatus
	err = json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.StatusCode != http.StatusOK || status.Status != "up" {
		t.Fatalf("unexpected health %d %+v", resp.StatusCode, status)
	}

	resp, err = http.Get("http://" + server.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "lessscan_active_workers") {
		t.Fatalf("expected lessscan metrics, got:\n%s", body)
	}
}

func TestObservabilityServer_BadAddress(t *testing.T) {
	server := NewObservabilityServer("256.0.0.1:bad", nil)
	if err := server.Start(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
