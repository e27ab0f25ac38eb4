package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/phensley/less-scanner/internal/core/errors"
)

// DefaultFile is the config basename looked up by Discover.
const DefaultFile = "lessscan.toml"

type Config struct {
	Version       int           `toml:"version"`
	Scan          Scan          `toml:"scan"`
	Parser        Parser        `toml:"parser"`
	Exclude       Exclude       `toml:"exclude"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Scan struct {
	// Workers is the pool size; zero means one per CPU.
	Workers   int  `toml:"workers"`
	Recursive bool `toml:"recursive"`
	// Extensions filters directory entries. Empty keeps every regular file.
	Extensions []string `toml:"extensions"`
}

type Parser struct {
	CSSBackend string `toml:"css_backend"`
	MaxDepth   int    `toml:"max_depth"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Output struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
	// Top is the number of keys per section shown in the terminal summary.
	Top int `toml:"top"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string  `toml:"metrics_addr"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	OTLPInsecure bool    `toml:"otlp_insecure"`
	ProgressRate float64 `toml:"progress_rate"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load decodes the TOML file at path, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("unknown config key %q", undecoded[0].String())),
			errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// Validate checks every section of cfg.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateScan,
		validateParser,
		validateExclude,
		validateOutput,
		validateHistory,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}
