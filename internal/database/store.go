package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leadscan/internal/model"
)

// FileName is the database file inside the data directory.
const FileName = "leadscan.db"

var (
	// ErrRunNotFound is returned when no run matches the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")
)

// Store provides SQLite-based storage for runs and their site records.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store in dbDir.
// With CreateIfNotExists false, a missing database is an error.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		emails INTEGER NOT NULL DEFAULT 0,
		phones INTEGER NOT NULL DEFAULT 0,
		social INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		emails TEXT NOT NULL DEFAULT '[]',
		phones TEXT NOT NULL DEFAULT '[]',
		social TEXT NOT NULL DEFAULT '{}',
		success INTEGER NOT NULL DEFAULT 0,
		error_reason TEXT NOT NULL DEFAULT '',
		skipped INTEGER NOT NULL DEFAULT 0,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT NOT NULL,
		UNIQUE(run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_sites_domain ON sites(domain);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a run and all its records in one transaction.
// Saving the same run ID again replaces the previous copy.
func (s *Store) SaveRun(ctx context.Context, result *model.RunResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sites WHERE run_id = ?`, result.RunID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	st := result.Stats
	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, query, started_at, elapsed_ms, total, success, errors, skipped, emails, phones, social)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		query = excluded.query,
		started_at = excluded.started_at,
		elapsed_ms = excluded.elapsed_ms,
		total = excluded.total,
		success = excluded.success,
		errors = excluded.errors,
		skipped = excluded.skipped,
		emails = excluded.emails,
		phones = excluded.phones,
		social = excluded.social
	`,
		result.RunID,
		result.Query,
		formatTimestamp(result.StartedAt),
		st.Elapsed.Milliseconds(),
		st.Total, st.Success, st.Errors, st.Skipped,
		st.TotalEmails, st.TotalPhones, st.TotalSocial,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO sites (run_id, idx, url, domain, title, emails, phones, social, success, error_reason, skipped, pages_crawled, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare site insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range result.Records {
		emails, phones, social, encErr := encodeContacts(r)
		if encErr != nil {
			err = encErr
			return err
		}
		_, err = stmt.ExecContext(ctx,
			result.RunID,
			r.Index,
			r.URL,
			strings.ToLower(r.Domain()),
			r.Title,
			emails, phones, social,
			r.Success,
			r.ErrorReason,
			r.Skipped,
			r.PagesCrawled,
			formatTimestamp(r.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("failed to save site %d: %w", r.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func encodeContacts(r *model.SiteRecord) (emails, phones, social string, err error) {
	e, err := json.Marshal(r.Emails)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to serialize emails: %w", err)
	}
	p, err := json.Marshal(r.Phones)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to serialize phones: %w", err)
	}
	so, err := json.Marshal(r.SocialLinks)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to serialize social links: %w", err)
	}
	return string(e), string(p), string(so), nil
}

// RunSummary is a run without its records, for listings.
type RunSummary struct {
	ID        string
	Query     string
	StartedAt time.Time
	Stats     model.RunStatistics
}

const runColumns = `id, query, started_at, elapsed_ms, total, success, errors, skipped, emails, phones, social`

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var run RunSummary
	var startedAt string
	var elapsedMS int64
	st := &run.Stats

	err := row.Scan(&run.ID, &run.Query, &startedAt, &elapsedMS,
		&st.Total, &st.Success, &st.Errors, &st.Skipped,
		&st.TotalEmails, &st.TotalPhones, &st.TotalSocial)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	st.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	st.Processed = st.Success + st.Errors + st.Skipped
	return run, nil
}

// GetRun loads a run with its records ordered by index. id may be a
// unique prefix of the run ID.
func (s *Store) GetRun(ctx context.Context, id string) (*model.RunResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, id LIMIT 2`,
		escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var matches []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run RunSummary
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(matches) == 1:
		run = matches[0]
	default:
		exact := false
		for _, m := range matches {
			if m.ID == id {
				run, exact = m, true
			}
		}
		if !exact {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
		}
	}

	records, err := s.querySites(ctx, `WHERE run_id = ? ORDER BY idx`, run.ID)
	if err != nil {
		return nil, err
	}

	return &model.RunResult{
		RunID:     run.ID,
		Query:     run.Query,
		StartedAt: run.StartedAt,
		Records:   records,
		Stats:     run.Stats,
	}, nil
}

// SiteHistory returns every stored record of a domain, newest first.
func (s *Store) SiteHistory(ctx context.Context, domain string) ([]*model.SiteRecord, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return s.querySites(ctx, `WHERE domain = ? ORDER BY timestamp DESC`, domain)
}

func (s *Store) querySites(ctx context.Context, where string, args ...any) ([]*model.SiteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT idx, url, title, emails, phones, social, success, error_reason, skipped, pages_crawled, timestamp
	FROM sites `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	records := make([]*model.SiteRecord, 0)
	for rows.Next() {
		var (
			index                  int
			url, title             string
			emails, phones, social string
			timestamp              string
		)
		r := &model.SiteRecord{}
		if err := rows.Scan(&index, &url, &title, &emails, &phones, &social,
			&r.Success, &r.ErrorReason, &r.Skipped, &r.PagesCrawled, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}

		r.Index = index
		r.URL = url
		r.Title = title
		r.Timestamp = parseTimestamp(timestamp)
		if err := json.Unmarshal([]byte(emails), &r.Emails); err != nil {
			return nil, fmt.Errorf("failed to parse emails of %s: %w", url, err)
		}
		if err := json.Unmarshal([]byte(phones), &r.Phones); err != nil {
			return nil, fmt.Errorf("failed to parse phones of %s: %w", url, err)
		}
		if err := json.Unmarshal([]byte(social), &r.SocialLinks); err != nil {
			return nil, fmt.Errorf("failed to parse social links of %s: %w", url, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteRun removes a run and its records.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sites: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the known formats. It returns the zero
// time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
