package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"
)

var (
	cssBackends   = []string{"less", "tree-sitter"}
	outputFormats = []string{"tsv", "json"}
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	for _, ext := range cfg.Scan.Extensions {
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("scan.extensions entry %q must not contain a path separator", ext)
		}
	}
	return nil
}

func validateParser(cfg *Config) error {
	if !oneOf(cfg.Parser.CSSBackend, cssBackends) {
		return fmt.Errorf("parser.css_backend must be one of: %s, got %q", strings.Join(cssBackends, ", "), cfg.Parser.CSSBackend)
	}
	if cfg.Parser.MaxDepth > 4096 {
		return fmt.Errorf("parser.max_depth must be <= 4096, got %d", cfg.Parser.MaxDepth)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	if err := compilePatterns("exclude.dirs", cfg.Exclude.Dirs); err != nil {
		return err
	}
	return compilePatterns("exclude.files", cfg.Exclude.Files)
}

func compilePatterns(field string, patterns []string) error {
	for i, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s[%d] must not be empty", field, i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("%s[%d] invalid pattern %q: %w", field, i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !oneOf(cfg.Output.Format, outputFormats) {
		return fmt.Errorf("output.format must be one of: %s, got %q", strings.Join(outputFormats, ", "), cfg.Output.Format)
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if cfg.Output.Top < 0 {
		return fmt.Errorf("output.top must be >= 0, got %d", cfg.Output.Top)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	if cfg.Observability.ProgressRate < 0 {
		return fmt.Errorf("observability.progress_rate must be >= 0, got %v", cfg.Observability.ProgressRate)
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
