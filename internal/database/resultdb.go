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

	"github.com/nao1215/usercrawl/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "usercrawl.db"

// ResultDB is the SQLite archive of crawl runs.
type ResultDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the crawl command.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the archive in dbDir. Without CreateIfNotExists a missing
// database is an error.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and per-connection pragmas
	// such as foreign_keys then apply to every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{db: db, dbPath: dbPath}

	ctx := context.Background()
	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if opts.EnableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := rdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database.
func (r *ResultDB) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *ResultDB) Path() string {
	return r.dbPath
}

func (r *ResultDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		submissions INTEGER NOT NULL DEFAULT 0,
		ack_json TEXT,
		pending_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Crawled URLs in crawl order
	CREATE TABLE IF NOT EXISTS crawled_urls (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	-- Triplets in extraction order
	CREATE TABLE IF NOT EXISTS triplets (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		value TEXT NOT NULL,
		metadata TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_triplets_value ON triplets(value);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// RunRecord is the summary row of one archived run.
type RunRecord struct {
	ID          int64
	Seed        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      model.RunStatus
	Error       string
	Submissions int
	Crawled     int
	Results     int
}

// Duration returns how long the run took.
func (rr RunRecord) Duration() time.Duration {
	return rr.FinishedAt.Sub(rr.StartedAt)
}

// SaveRun archives summary in one transaction and returns the new run ID.
func (r *ResultDB) SaveRun(ctx context.Context, summary *model.RunSummary) (id int64, err error) {
	if summary == nil {
		return 0, errors.New("summary must not be nil")
	}

	pending := summary.Pending
	if pending == nil {
		pending = []string{}
	}
	pendingJSON, err := json.Marshal(pending)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize pending URLs: %w", err)
	}
	var ackJSON sql.NullString
	if summary.LastAck != nil {
		data, err := json.Marshal(summary.LastAck)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize ack: %w", err)
		}
		ackJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, started_at, finished_at, status, error, submissions, ack_json, pending_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.Seed,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
		string(summary.Status),
		summary.Error,
		summary.Submissions,
		ackJSON,
		string(pendingJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for i, u := range summary.Crawled {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO crawled_urls (run_id, position, url) VALUES (?, ?, ?)`, id, i, u); err != nil {
			return 0, fmt.Errorf("failed to insert crawled URL: %w", err)
		}
	}
	for i, t := range summary.Results {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO triplets (run_id, position, label, value, metadata) VALUES (?, ?, ?, ?, ?)`,
			id, i, t.Label(), t.Value(), t.Metadata()); err != nil {
			return 0, fmt.Errorf("failed to insert triplet: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns archived runs, newest first. An empty seed lists every
// seed; a non-positive limit returns all matching runs.
func (r *ResultDB) ListRuns(ctx context.Context, seed string, limit int) ([]RunRecord, error) {
	query := `
	SELECT r.id, r.seed, r.started_at, r.finished_at, r.status, r.error, r.submissions,
		(SELECT COUNT(*) FROM crawled_urls c WHERE c.run_id = r.id),
		(SELECT COUNT(*) FROM triplets t WHERE t.run_id = r.id)
	FROM runs r
	WHERE (? = '' OR r.seed = ?)
	ORDER BY r.started_at DESC, r.id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, query, seed, seed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished, status string
		if err := rows.Scan(&rec.ID, &rec.Seed, &started, &finished, &status, &rec.Error,
			&rec.Submissions, &rec.Crawled, &rec.Results); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		rec.Status = model.RunStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRun returns the full summary of run id, or nil if there is no such run.
func (r *ResultDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	var summary model.RunSummary
	var started, finished, status, pendingJSON string
	var ackJSON sql.NullString

	err := r.db.QueryRowContext(ctx, `
	SELECT seed, started_at, finished_at, status, error, submissions, ack_json, pending_json
	FROM runs WHERE id = ?`, id).Scan(
		&summary.Seed, &started, &finished, &status, &summary.Error,
		&summary.Submissions, &ackJSON, &pendingJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	summary.StartedAt = parseTimestamp(started)
	summary.FinishedAt = parseTimestamp(finished)
	summary.Status = model.RunStatus(status)
	if err := json.Unmarshal([]byte(pendingJSON), &summary.Pending); err != nil {
		return nil, fmt.Errorf("failed to parse pending URLs: %w", err)
	}
	if ackJSON.Valid {
		var ack model.Ack
		if err := json.Unmarshal([]byte(ackJSON.String), &ack); err != nil {
			return nil, fmt.Errorf("failed to parse ack: %w", err)
		}
		summary.LastAck = &ack
	}

	if summary.Crawled, err = r.crawledURLs(ctx, id); err != nil {
		return nil, err
	}
	if summary.Results, err = r.triplets(ctx, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *ResultDB) crawledURLs(ctx context.Context, runID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT url FROM crawled_urls WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawled URLs: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan crawled URL: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *ResultDB) triplets(ctx context.Context, runID int64) ([]model.Triplet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, value, metadata FROM triplets WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get triplets: %w", err)
	}
	defer rows.Close()

	results := []model.Triplet{}
	for rows.Next() {
		var label, value, metadata string
		if err := rows.Scan(&label, &value, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan triplet: %w", err)
		}
		results = append(results, model.NewTriplet(label, value, metadata))
	}
	return results, rows.Err()
}

// ListSeeds returns every archived seed in alphabetical order.
func (r *ResultDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT seed FROM runs ORDER BY seed`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// timestampLayout is how run times are stored. It sorts lexically in time
// order for UTC values.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are tried in order when reading a stored time.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite CURRENT_TIMESTAMP
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
