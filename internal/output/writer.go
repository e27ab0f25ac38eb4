// Package output writes merged counters as one report file per section.
package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/engine/counter"
	"github.com/phensley/less-scanner/internal/shared/util"
)

type Format string

const (
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// SummaryFile is written next to the section reports.
const SummaryFile = "summary.json"

func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTSV, FormatJSON:
		return f, nil
	case "":
		return FormatTSV, nil
	}
	return "", errors.New(errors.CodeValidationError, fmt.Sprintf("unknown output format %q (want tsv or json)", name))
}

// Summary holds run totals for summary.json.
type Summary struct {
	RunID       string         `json:"run_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Files       int            `json:"files"`
	Scanned     int            `json:"scanned"`
	Failed      int            `json:"failed"`
	Missing     int            `json:"missing"`
	Workers     int            `json:"workers"`
	DurationMS  int64          `json:"duration_ms"`
	Keys        map[string]int `json:"keys"`
	Occurrences map[string]int `json:"occurrences"`
}

// NewSummary fills the per-section key and occurrence totals from stats.
func NewSummary(stats *counter.Store) Summary {
	s := Summary{
		Keys:        make(map[string]int, len(counter.Sections)),
		Occurrences: make(map[string]int, len(counter.Sections)),
	}
	for _, section := range counter.Sections {
		c := stats.Counter(section)
		s.Keys[string(section)] = c.Len()
		s.Occurrences[string(section)] = c.Total()
	}
	return s
}

type Writer struct {
	Dir    string
	Format Format
}

func NewWriter(dir string, format Format) *Writer {
	if format == "" {
		format = FormatTSV
	}
	return &Writer{Dir: dir, Format: format}
}

// Path returns the report file for section.
func (w *Writer) Path(section counter.Section) string {
	return filepath.Join(w.Dir, string(section)+"."+string(w.Format))
}

// Write emits every section of stats, including empty ones, and returns the
// written paths in section order.
func (w *Writer) Write(stats *counter.Store) ([]string, error) {
	paths := make([]string, 0, len(counter.Sections))
	for _, section := range counter.Sections {
		data, err := w.Generate(stats.Counter(section))
		if err != nil {
			return paths, err
		}
		path := w.Path(section)
		if err := util.WriteReportFile(path, data); err != nil {
			return paths, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write report"), errors.CtxPath, path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteSummary writes summary.json into Dir.
func (w *Writer) WriteSummary(summary Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(w.Dir, SummaryFile)
	if err := util.WriteReportFile(path, append(data, '\n')); err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write summary"), errors.CtxPath, path)
	}
	return path, nil
}

// Generate renders one counter in the writer's format. Entries are ordered by
// count descending, ties by first insertion.
func (w *Writer) Generate(c *counter.Counter) ([]byte, error) {
	entries := c.Sorted()
	switch w.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal entries: %w", err)
		}
		return append(data, '\n'), nil
	case FormatTSV:
		return []byte(GenerateTSV(entries)), nil
	}
	return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("output format %q", w.Format))
}

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// GenerateTSV renders entries as "key\tcount" lines under a header. Tabs,
// newlines and backslashes in keys are escaped.
func GenerateTSV(entries []counter.Entry) string {
	var buf strings.Builder

	buf.WriteString("key\tcount\n")
	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("%s\t%d\n", tsvEscaper.Replace(e.Key), e.Count))
	}

	return buf.String()
}
