package config

import (
	"os"
	"path/filepath"
	"strings"
)

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Parser.CSSBackend) == "" {
		cfg.Parser.CSSBackend = "tree-sitter"
	}
	if cfg.Parser.MaxDepth <= 0 {
		cfg.Parser.MaxDepth = 256
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "stats"
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "tsv"
	}
	if cfg.Output.Top == 0 {
		cfg.Output.Top = 5
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join("data", "database", "history.db")
	}
}

func normalize(cfg *Config) {
	cfg.Parser.CSSBackend = strings.ToLower(strings.TrimSpace(cfg.Parser.CSSBackend))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Dir = strings.TrimSpace(cfg.Output.Dir)
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	exts := make([]string, 0, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Scan.Extensions = exts
}

// Discover returns the config file to load: explicit when set, otherwise the
// first of ./lessscan.toml and ./data/config/lessscan.toml that exists under
// cwd. An empty result means defaults apply.
func Discover(explicit, cwd string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	for _, candidate := range []string{
		filepath.Join(cwd, DefaultFile),
		filepath.Join(cwd, "data", "config", DefaultFile),
	} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// LoadOrDefault loads the discovered file, or returns Default when there is
// none. The returned path is empty for defaults.
func LoadOrDefault(explicit, cwd string) (*Config, string, error) {
	path := Discover(explicit, cwd)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
