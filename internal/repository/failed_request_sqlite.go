package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"pricemind-sync-api/internal/model"
)

// SQLiteFailedRequestRepository implements FailedRequestRepository using SQLite.
type SQLiteFailedRequestRepository struct {
	db *sql.DB
	mu sync.Mutex
}

var _ FailedRequestRepository = (*SQLiteFailedRequestRepository)(nil)

// NewSQLiteFailedRequestRepository opens (and creates if needed) the failure
// store at dbPath.
func NewSQLiteFailedRequestRepository(dbPath string) (*SQLiteFailedRequestRepository, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS pricemind_failed_request (
		entity_id INTEGER PRIMARY KEY AUTOINCREMENT,
		endpoint TEXT NOT NULL,
		method TEXT NOT NULL,
		headers TEXT,
		payload TEXT,
		error TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0,
		next_attempt_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_failed_request_created_at ON pricemind_failed_request(created_at);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteFailedRequestRepository] Initialized with database: %s", dbPath)
	return &SQLiteFailedRequestRepository{db: db}, nil
}

// InsertFailedRequest appends rec and sets its ID.
func (r *SQLiteFailedRequestRepository) InsertFailedRequest(ctx context.Context, rec *model.FailedRequestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var nextAttempt sql.NullString
	if rec.NextAttemptAt != nil {
		nextAttempt = sql.NullString{String: rec.NextAttemptAt.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT INTO pricemind_failed_request
			(endpoint, method, headers, payload, error, retry_count, status, next_attempt_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		rec.Endpoint, rec.Method, rec.Headers, rec.Payload, rec.Error,
		rec.RetryCount, rec.Status, nextAttempt, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert failed request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read failed request id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetStats returns statistics about the failure store.
func (r *SQLiteFailedRequestRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pricemind_failed_request").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count failed requests: %w", err)
	}
	stats["total_failed"] = count

	var last sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM pricemind_failed_request").Scan(&last); err == nil && last.Valid {
		if t, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			stats["last_failure"] = t
		}
	}

	if byMethod, err := r.countByMethod(ctx); err == nil {
		stats["by_method"] = byMethod
	}

	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// countByMethod releases its rows before returning; the pool has one connection.
func (r *SQLiteFailedRequestRepository) countByMethod(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT method, COUNT(*) FROM pricemind_failed_request GROUP BY method")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMethod := make(map[string]int64)
	for rows.Next() {
		var method string
		var n int64
		if err := rows.Scan(&method, &n); err != nil {
			return nil, err
		}
		byMethod[method] = n
	}
	return byMethod, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteFailedRequestRepository) Close() error {
	return r.db.Close()
}
