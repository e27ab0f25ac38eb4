package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: LESSSCAN_[SECTION]_[KEY] (e.g., LESSSCAN_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvInt(&cfg.Scan.Workers, "LESSSCAN_SCAN_WORKERS")
	setEnvBool(&cfg.Scan.Recursive, "LESSSCAN_SCAN_RECURSIVE")

	setEnvString(&cfg.Parser.CSSBackend, "LESSSCAN_PARSER_CSS_BACKEND")

	setEnvString(&cfg.Output.Dir, "LESSSCAN_OUTPUT_DIR")
	setEnvString(&cfg.Output.Format, "LESSSCAN_OUTPUT_FORMAT")

	setEnvBool(&cfg.History.Enabled, "LESSSCAN_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "LESSSCAN_HISTORY_PATH")

	setEnvString(&cfg.Observability.MetricsAddr, "LESSSCAN_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "LESSSCAN_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvFloat64(&cfg.Observability.ProgressRate, "LESSSCAN_OBSERVABILITY_PROGRESS_RATE")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}
