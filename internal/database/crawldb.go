package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/catalogcrawl/internal/model"
)

// DBFileName is the database file created inside the database directory.
const DBFileName = "catalogcrawl.db"

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("crawl run not found")

	// ErrDatabaseNotFound is returned by Open when the file is missing and
	// creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")
)

// CrawlDB provides SQLite-based storage for crawl runs.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		stop_reason TEXT NOT NULL DEFAULT '',
		link_count INTEGER NOT NULL DEFAULT 0,
		record_count INTEGER NOT NULL DEFAULT 0,
		requests INTEGER NOT NULL DEFAULT 0,
		failed_attempts INTEGER NOT NULL DEFAULT 0,
		skipped TEXT NOT NULL DEFAULT '[]',
		output_file TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- The link table of a run, in discovery order
	CREATE TABLE IF NOT EXISTS catalog_links (
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (run_id, url)
	);

	-- The dataset of a run, in output order
	CREATE TABLE IF NOT EXISTS assessments (
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		job_levels TEXT NOT NULL,
		languages TEXT NOT NULL,
		duration_minutes INTEGER,
		test_type TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		PRIMARY KEY (run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_url ON assessments(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata contains summary information about a stored run.
type RunMetadata struct {
	ID             int64
	BaseURL        string
	StartedAt      time.Time
	FinishedAt     time.Time
	PagesFetched   int
	StopReason     model.StopReason
	LinkCount      int
	RecordCount    int
	Requests       int64
	FailedAttempts int64
	Skipped        []string
	OutputFile     string
	Error          string
}

// Elapsed returns the run duration.
func (m RunMetadata) Elapsed() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}

// SaveRun stores a finished run with its link table and dataset in one
// transaction and sets report.RunID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	skipped, err := json.Marshal(nonNil(report.Skipped))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize skipped URLs: %w", err)
	}

	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	errMsg := report.ErrorMessage
	if errMsg == "" && report.Error != nil {
		errMsg = report.Error.Error()
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // Rollback after Commit is a no-op
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (base_url, started_at, finished_at, pages_fetched, stop_reason,
		link_count, record_count, requests, failed_attempts, skipped, output_file, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.BaseURL,
		formatTimestamp(report.StartedAt),
		formatTimestamp(finished),
		report.PagesFetched,
		string(report.StopReason),
		report.LinkCount(),
		report.RecordCount(),
		report.Requests,
		report.FailedAttempts,
		string(skipped),
		report.OutputFile,
		errMsg,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	if report.Links != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_links (run_id, position, url, name) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare link insert: %w", err)
		}
		defer stmt.Close()

		for i, link := range report.Links.Links() {
			if _, err := stmt.ExecContext(ctx, runID, i, link.URL, link.Name); err != nil {
				return 0, fmt.Errorf("failed to insert link %s: %w", link.URL, err)
			}
		}
	}

	if report.Dataset != nil {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assessments (run_id, position, url, name, description, job_levels, languages,
			duration_minutes, test_type, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare assessment insert: %w", err)
		}
		defer stmt.Close()

		for i, a := range report.Dataset.Records {
			var minutes sql.NullInt64
			if a.DurationMinutes != nil {
				minutes = sql.NullInt64{Int64: int64(*a.DurationMinutes), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, runID, i, a.URL, a.Name, a.Description, a.JobLevels,
				a.Languages, minutes, a.TestType, a.Hash()); err != nil {
				return 0, fmt.Errorf("failed to insert assessment %s: %w", a.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	report.RunID = runID
	return runID, nil
}

const runColumns = `id, base_url, started_at, finished_at, pages_fetched, stop_reason,
	link_count, record_count, requests, failed_attempts, skipped, output_file, error`

// ListRuns returns stored runs, newest first. A limit <= 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *meta)
	}

	return results, rows.Err()
}

// GetRun retrieves a run's metadata by id.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*RunMetadata, error) {
	row := cdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return meta, err
}

// PreviousRunID returns the id of the newest run older than id.
// The second result is false when id is the oldest run.
func (cdb *CrawlDB) PreviousRunID(ctx context.Context, id int64) (int64, bool, error) {
	var prev int64
	err := cdb.db.QueryRowContext(ctx,
		`SELECT id FROM crawl_runs WHERE id < ? ORDER BY id DESC LIMIT 1`, id).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find previous run: %w", err)
	}
	return prev, true, nil
}

// GetRunDataset returns the dataset stored for a run, in output order.
func (cdb *CrawlDB) GetRunDataset(ctx context.Context, id int64) (*model.Dataset, error) {
	if _, err := cdb.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, name, description, job_levels, languages, duration_minutes, test_type
	FROM assessments
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run dataset: %w", err)
	}
	defer rows.Close()

	records := make([]model.Assessment, 0)
	for rows.Next() {
		var a model.Assessment
		var minutes sql.NullInt64
		if err := rows.Scan(&a.URL, &a.Name, &a.Description, &a.JobLevels, &a.Languages, &minutes, &a.TestType); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if minutes.Valid {
			a.DurationMinutes = model.IntPtr(int(minutes.Int64))
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.Dataset{Records: records}, nil
}

// GetRunLinks returns the link table stored for a run.
func (cdb *CrawlDB) GetRunLinks(ctx context.Context, id int64) (*model.LinkTable, error) {
	if _, err := cdb.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, name FROM catalog_links WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run links: %w", err)
	}
	defer rows.Close()

	table := model.NewLinkTable()
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(&link.URL, &link.Name); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		table.Add(link)
	}

	return table, rows.Err()
}

// CompareRuns compares the datasets of two runs.
func (cdb *CrawlDB) CompareRuns(ctx context.Context, baseID, targetID int64) (*Diff, error) {
	base, err := cdb.GetRunDataset(ctx, baseID)
	if err != nil {
		return nil, err
	}
	target, err := cdb.GetRunDataset(ctx, targetID)
	if err != nil {
		return nil, err
	}

	diff := CompareDatasets(base, target)
	diff.BaseRunID = baseID
	diff.TargetRunID = targetID
	return diff, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunMetadata, error) {
	var meta RunMetadata
	var started, finished, stopReason, skipped string

	err := row.Scan(
		&meta.ID,
		&meta.BaseURL,
		&started,
		&finished,
		&meta.PagesFetched,
		&stopReason,
		&meta.LinkCount,
		&meta.RecordCount,
		&meta.Requests,
		&meta.FailedAttempts,
		&skipped,
		&meta.OutputFile,
		&meta.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	meta.StartedAt = parseTimestamp(started)
	meta.FinishedAt = parseTimestamp(finished)
	meta.StopReason = model.StopReason(stopReason)
	if err := json.Unmarshal([]byte(skipped), &meta.Skipped); err != nil {
		meta.Skipped = make([]string, 0)
	}

	return &meta, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}

// formatTimestamp stores times in UTC with nanosecond precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by formatTimestamp
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
