package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/phensley/less-scanner/internal/engine/counter"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// tsLayout has a fixed-width fraction so stored timestamps sort as text.
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and every key of stats in one transaction. A missing ID
// or timestamp is filled in; the stored run is returned.
func (s *Store) SaveRun(run Run, stats *counter.Store) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.Timestamp = run.Timestamp.UTC()

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if err := insertRun(tx, run, stats); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func insertRun(tx *sql.Tx, run Run, stats *counter.Store) error {
	if _, err := tx.Exec(`
INSERT INTO runs (id, ts_utc, files, scanned, failed, workers, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Timestamp.Format(tsLayout),
		run.Files,
		run.Scanned,
		run.Failed,
		run.Workers,
		run.Duration.Milliseconds(),
	); err != nil {
		return err
	}
	if stats == nil {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO run_counts (run_id, section, key, count, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, section := range counter.Sections {
		position := 0
		var insertErr error
		stats.Counter(section).Each(func(key string, count int) {
			if insertErr != nil {
				return
			}
			_, insertErr = stmt.Exec(run.ID, string(section), key, count, position)
			position++
		})
		if insertErr != nil {
			return fmt.Errorf("insert %s counts: %w", section, insertErr)
		}
	}
	return nil
}

// LoadRuns returns runs at or after since, oldest first. A zero since loads
// every run.
func (s *Store) LoadRuns(since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, ts_utc, files, scanned, failed, workers, duration_ms FROM runs`
	args := make([]any, 0, 1)
	if !since.IsZero() {
		query += " WHERE ts_utc >= ?"
		args = append(args, since.UTC().Format(tsLayout))
	}
	query += " ORDER BY ts_utc ASC, id ASC"

	return s.queryRuns("load runs", query, args...)
}

// LatestRun returns the most recent run. ok is false when none is stored.
func (s *Store) LatestRun() (run Run, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.queryRuns("load latest run", `
SELECT id, ts_utc, files, scanned, failed, workers, duration_ms
FROM runs ORDER BY ts_utc DESC, created_at_utc DESC LIMIT 1`)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

func (s *Store) queryRuns(op, query string, args ...any) ([]Run, error) {
	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &tsRaw, &run.Files, &run.Scanned, &run.Failed, &run.Workers, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// LoadCounts rebuilds the counter store saved with runID, keeping the
// original key order of every section.
func (s *Store) LoadCounts(runID string) (*counter.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load counts", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT section, key, count FROM run_counts
WHERE run_id = ?
ORDER BY section ASC, position ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := counter.NewStore()
	for rows.Next() {
		var (
			section string
			key     string
			count   int
		)
		if err := rows.Scan(&section, &key, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		c := stats.Counter(counter.Section(section))
		if c == nil {
			return nil, fmt.Errorf("run %s has unknown section %q", runID, section)
		}
		c.Add(key, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}
	return stats, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
