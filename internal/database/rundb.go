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

	"github.com/nao1215/joblevel/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "joblevel.db"

// timestampLayout stores times in UTC with a fixed-width fraction so that
// started_at sorts chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunDB provides SQLite-based storage for run reports.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
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

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (r *RunDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *RunDB) Close() error {
	return r.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (r *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_path TEXT NOT NULL,
		fingerprint TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		final_rows INTEGER NOT NULL,
		accuracy REAL,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores report and sets its ID.
func (r *RunDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var accuracy sql.NullFloat64
	if e := report.Evaluation; e != nil && !e.Skipped {
		accuracy = sql.NullFloat64{Float64: e.Accuracy, Valid: true}
	}

	query := `
	INSERT INTO runs (input_path, fingerprint, started_at, duration_ms, final_rows, accuracy, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		report.InputPath,
		report.Fingerprint,
		report.StartedAt.UTC().Format(timestampLayout),
		report.Duration().Milliseconds(),
		report.FinalRows,
		accuracy,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	report.ID = id
	return id, nil
}

// GetRun retrieves a run report by its database ID.
// It returns nil and no error if there is no such run.
func (r *RunDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := r.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id
	return &report, nil
}

// RunSummary contains summary information about a stored run.
// It is used for listing history without loading full reports.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// InputPath is the CSV file of the run.
	InputPath string `json:"input_path"`

	// Fingerprint is the hex SHA3-256 digest of the input.
	Fingerprint string `json:"fingerprint"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration"`

	// FinalRows is the row count of the output dataset.
	FinalRows int `json:"final_rows"`

	// Accuracy is the test accuracy, or nil when training was skipped.
	Accuracy *float64 `json:"accuracy,omitempty"`

	// Error is the message of the error that aborted the run.
	Error string `json:"error,omitempty"`
}

// ListFilter narrows ListRuns.
type ListFilter struct {
	// Fingerprint restricts the result to runs on identical input.
	Fingerprint string

	// Limit caps the number of runs returned. Zero means no limit.
	Limit int
}

// ListRuns returns stored runs, newest first.
func (r *RunDB) ListRuns(ctx context.Context, filter ListFilter) ([]RunSummary, error) {
	query := `
	SELECT id, input_path, fingerprint, started_at, duration_ms, final_rows, accuracy, error
	FROM runs
	WHERE (? = '' OR fingerprint = ?)
	ORDER BY started_at DESC, id DESC
	`
	args := []any{filter.Fingerprint, filter.Fingerprint}
	if filter.Limit > 0 {
		query += "LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			s           RunSummary
			fingerprint sql.NullString
			startedAt   string
			durationMS  int64
			accuracy    sql.NullFloat64
			errMsg      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.InputPath, &fingerprint, &startedAt,
			&durationMS, &s.FinalRows, &accuracy, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Fingerprint = fingerprint.String
		s.StartedAt = parseTimestamp(startedAt)
		s.Duration = time.Duration(durationMS) * time.Millisecond
		if accuracy.Valid {
			a := accuracy.Float64
			s.Accuracy = &a
		}
		s.Error = errMsg.String
		results = append(results, s)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp tries each known format and returns the zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
