package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteConfigRepository implements ConfigRepository using SQLite.
type SQLiteConfigRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ ConfigRepository = (*SQLiteConfigRepository)(nil)

// NewSQLiteConfigRepository opens (and creates if needed) the config database
// at dbPath.
func NewSQLiteConfigRepository(dbPath string) (*SQLiteConfigRepository, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS pricemind_config (
		path TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'default',
		scope_code TEXT NOT NULL DEFAULT '',
		value TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (path, scope, scope_code)
	);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteConfigRepository] Initialized with database: %s", dbPath)
	return &SQLiteConfigRepository{db: db}, nil
}

// openSQLite opens a WAL-mode SQLite database limited to a single writer.
func openSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Get returns the value stored at (path, scope, scopeCode).
func (r *SQLiteConfigRepository) Get(ctx context.Context, path, scope, scopeCode string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT value FROM pricemind_config WHERE path = ? AND scope = ? AND scope_code = ?`

	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, path, scope, scopeCode).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get config %s: %w", path, err)
	}
	return value.String, true, nil
}

// Save inserts or replaces the value at (path, scope, scopeCode).
func (r *SQLiteConfigRepository) Save(ctx context.Context, path, value, scope, scopeCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO pricemind_config (path, scope, scope_code, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path, scope, scope_code) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, path, scope, scopeCode, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save config %s: %w", path, err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteConfigRepository) Close() error {
	return r.db.Close()
}
