package ports

import (
	"github.com/phensley/less-scanner/internal/data/history"
	"github.com/phensley/less-scanner/internal/engine/ast"
	"github.com/phensley/less-scanner/internal/engine/counter"
	"github.com/phensley/less-scanner/internal/engine/parser"
	"github.com/phensley/less-scanner/internal/output"
)

// StylesheetParser abstracts source parsing for scan workers. Implementations
// must be safe for concurrent use.
type StylesheetParser interface {
	ParseFile(path string, content []byte) (*ast.Stylesheet, error)
	BackendFor(path string) parser.Backend
}

// HistoryStore abstracts run persistence for comparisons between runs.
type HistoryStore interface {
	SaveRun(run history.Run, stats *counter.Store) (history.Run, error)
	LatestRun() (history.Run, bool, error)
	LoadCounts(runID string) (*counter.Store, error)
	Path() string
	Close() error
}

// ReportWriter abstracts the per-section report files and run summary.
type ReportWriter interface {
	Write(stats *counter.Store) ([]string, error)
	WriteSummary(summary output.Summary) (string, error)
}

var (
	_ StylesheetParser = (*parser.Parser)(nil)
	_ HistoryStore     = (*history.Store)(nil)
	_ ReportWriter     = (*output.Writer)(nil)
)
