package journal

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

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("journal record not found")

// Entry describes a submission when it enters the pipeline.
type Entry struct {
	RequestID   string
	ArchivePath string
	Destination string
	Submission  string
	State       string
}

// Outcome is recorded when a submission reaches a terminal state.
type Outcome struct {
	State        string
	ErrorKind    string
	ErrorMessage string
	Resources    int
	ManualFiles  []string
	RecordKey    string
}

// Record is a stored submission.
type Record struct {
	ID           int64
	RequestID    string
	ArchivePath  string
	Destination  string
	Submission   string
	State        string
	ErrorKind    string
	ErrorMessage string
	Resources    int
	ManualFiles  []string
	RecordKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store persists submission records in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// The API server reads while the workflow writes; keep one connection so
	// pragmas apply to every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Begin inserts a record for a submission entering the pipeline.
func (s *Store) Begin(ctx context.Context, entry Entry) (int64, error) {
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (request_id, archive_path, destination, submission, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.ArchivePath, entry.Destination, entry.Submission, entry.State, ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateState records a state transition.
func (s *Store) UpdateState(ctx context.Context, id int64, state string) error {
	return s.exec(ctx, id, `UPDATE submissions SET state = ?, updated_at = ? WHERE id = ?`, state, s.timestamp(), id)
}

// Complete records the terminal outcome of a submission.
func (s *Store) Complete(ctx context.Context, id int64, outcome Outcome) error {
	manual, err := json.Marshal(outcome.ManualFiles)
	if err != nil {
		return fmt.Errorf("marshal manual files: %w", err)
	}
	if outcome.ManualFiles == nil {
		manual = nil
	}
	return s.exec(ctx, id,
		`UPDATE submissions
		 SET state = ?, error_kind = ?, error_message = ?, resources = ?, manual_files = ?, record_key = ?, updated_at = ?
		 WHERE id = ?`,
		outcome.State,
		nullableString(outcome.ErrorKind),
		nullableString(outcome.ErrorMessage),
		outcome.Resources,
		nullableString(string(manual)),
		nullableString(outcome.RecordKey),
		s.timestamp(),
		id,
	)
}

func (s *Store) exec(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("submission %d: %w", id, ErrNotFound)
	}
	return nil
}

const selectColumns = `id, request_id, archive_path, destination, submission, state,
	error_kind, error_message, resources, manual_files, record_key, created_at, updated_at`

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM submissions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %d: %w", id, ErrNotFound)
	}
	return rec, err
}

// Filter narrows Recent results.
type Filter struct {
	Destination string
	States      []string
	Limit       int
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Destination != "" {
		clauses = append(clauses, "destination = ?")
		args = append(args, filter.Destination)
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			placeholders[i] = "?"
			args = append(args, state)
		}
		clauses = append(clauses, "state IN ("+strings.Join(placeholders, ",")+")")
	}
	query := `SELECT ` + selectColumns + ` FROM submissions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

// CountByState returns the number of records per state.
func (s *Store) CountByState(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM submissions GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                  Record
		errorKind, errorMsg  sql.NullString
		manual, recordKey    sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.RequestID, &rec.ArchivePath, &rec.Destination, &rec.Submission, &rec.State,
		&errorKind, &errorMsg, &rec.Resources, &manual, &recordKey, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMsg.String
	rec.RecordKey = recordKey.String
	if manual.Valid && manual.String != "" {
		if err := json.Unmarshal([]byte(manual.String), &rec.ManualFiles); err != nil {
			return nil, fmt.Errorf("decode manual files for %d: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
