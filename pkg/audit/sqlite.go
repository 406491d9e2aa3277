package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"astro-natal/relay/pkg/upstream"
)

// SchemaVersion is bumped whenever the table layout changes.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS relay_audit (
	id              TEXT PRIMARY KEY,
	request_id      TEXT NOT NULL,
	received_at     TIMESTAMP NOT NULL,
	completed_at    TIMESTAMP NOT NULL,
	operation       TEXT NOT NULL,
	client_ip       TEXT NOT NULL,
	status          INTEGER NOT NULL,
	upstream_status INTEGER NOT NULL,
	auth_style      TEXT NOT NULL,
	attempts        TEXT NOT NULL,
	retries         INTEGER NOT NULL,
	latency_ms      INTEGER NOT NULL,
	error           TEXT,
	error_type      TEXT
);

CREATE INDEX IF NOT EXISTS idx_relay_audit_received_at ON relay_audit(received_at);
CREATE INDEX IF NOT EXISTS idx_relay_audit_operation ON relay_audit(operation);

CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER PRIMARY KEY
);
`

// StoreConfig contains configuration for the SQLite audit store.
type StoreConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// Store persists audit records in SQLite.
type Store struct {
	db     *sql.DB
	config *StoreConfig
	logger *slog.Logger
}

// Query filters audit records. Zero values mean no filter.
type Query struct {
	// Since restricts to records received at or after this time.
	Since time.Time

	// Before restricts to records received strictly before this time.
	Before time.Time

	// Operation restricts to a single operation name.
	Operation string

	// Limit caps the result size. Default 100.
	Limit int
}

// NewStore opens (or creates) the SQLite audit database at config.Path.
func NewStore(config *StoreConfig) (*Store, error) {
	if config == nil {
		config = DefaultStoreConfig()
	}

	logger := slog.Default().With("component", "audit.store")

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "mkdir", Err: err}
		}
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &Store{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("audit store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the schema and enables WAL mode.
func (s *Store) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return &StorageError{Op: "enable_wal", Err: err}
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return &StorageError{Op: "set_busy_timeout", Err: err}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return &StorageError{Op: "create_schema", Err: err}
	}

	if _, err := s.db.Exec("INSERT OR IGNORE INTO schema_info (version) VALUES (?)", SchemaVersion); err != nil {
		return &StorageError{Op: "insert_schema_version", Err: err}
	}

	var version int
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_info").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return &StorageError{Op: "get_schema_version", Err: err}
	}
	if version != SchemaVersion {
		return &StorageError{Op: "schema_version_mismatch",
			Err: fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version)}
	}

	return nil
}

// Store persists a record.
func (s *Store) Store(ctx context.Context, record *Record) error {
	attempts, _ := json.Marshal(record.Attempts)

	var errorVal, errorTypeVal any
	if record.Error != "" {
		errorVal = record.Error
	}
	if record.ErrorType != "" {
		errorTypeVal = record.ErrorType
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relay_audit (
			id, request_id, received_at, completed_at,
			operation, client_ip,
			status, upstream_status, auth_style, attempts, retries,
			latency_ms, error, error_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.RequestID, record.ReceivedAt, record.CompletedAt,
		record.Operation, record.ClientIP,
		record.Status, record.UpstreamStatus, record.AuthStyle, string(attempts), record.Retries,
		record.Latency.Milliseconds(), errorVal, errorTypeVal,
	)
	if err != nil {
		return &StorageError{Op: "store", Err: err}
	}

	return nil
}

// Query retrieves records matching the filters, newest first.
func (s *Store) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	where, args := buildWhere(query)

	sqlQuery := "SELECT id, request_id, received_at, completed_at, operation, client_ip, " +
		"status, upstream_status, auth_style, attempts, retries, latency_ms, error, error_type " +
		"FROM relay_audit" + where + " ORDER BY received_at DESC"

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}

	return records, nil
}

// Count returns the number of records matching the filters.
func (s *Store) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	where, args := buildWhere(query)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relay_audit"+where, args...).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

// DeleteBefore removes records received before the cutoff and returns the
// number deleted.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM relay_audit WHERE received_at < ?", cutoff)
	if err != nil {
		return 0, &StorageError{Op: "delete", Err: err}
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "delete", Err: err}
	}
	return count, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	s.logger.Info("audit store closed")
	return nil
}

func buildWhere(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if !query.Since.IsZero() {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, query.Since)
	}
	if !query.Before.IsZero() {
		conditions = append(conditions, "received_at < ?")
		args = append(args, query.Before)
	}
	if query.Operation != "" {
		conditions = append(conditions, "operation = ?")
		args = append(args, query.Operation)
	}

	where := ""
	for i, c := range conditions {
		if i == 0 {
			where = " WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}

func scanRow(rows *sql.Rows) (*Record, error) {
	var record Record
	var attempts string
	var latencyMs int64
	var errorVal, errorTypeVal sql.NullString

	err := rows.Scan(
		&record.ID, &record.RequestID, &record.ReceivedAt, &record.CompletedAt,
		&record.Operation, &record.ClientIP,
		&record.Status, &record.UpstreamStatus, &record.AuthStyle, &attempts, &record.Retries,
		&latencyMs, &errorVal, &errorTypeVal,
	)
	if err != nil {
		return nil, err
	}

	if errorVal.Valid {
		record.Error = errorVal.String
	}
	if errorTypeVal.Valid {
		record.ErrorType = errorTypeVal.String
	}
	if attempts != "" {
		var trace []upstream.Attempt
		if err := json.Unmarshal([]byte(attempts), &trace); err == nil {
			record.Attempts = trace
		}
	}
	record.Latency = time.Duration(latencyMs) * time.Millisecond

	return &record, nil
}
