package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfigRepository implements ConfigRepository using MySQL.
type MySQLConfigRepository struct {
	db *sql.DB
}

var _ ConfigRepository = (*MySQLConfigRepository)(nil)

// NewMySQLConfigRepository connects to MySQL and creates the config table.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLConfigRepository(dsn string) (*MySQLConfigRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS pricemind_config (
		path VARCHAR(255) NOT NULL,
		scope VARCHAR(16) NOT NULL DEFAULT 'default',
		scope_code VARCHAR(64) NOT NULL DEFAULT '',
		value TEXT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (path, scope, scope_code)
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLConfigRepository] Initialized")
	return &MySQLConfigRepository{db: db}, nil
}

// Get returns the value stored at (path, scope, scopeCode).
func (r *MySQLConfigRepository) Get(ctx context.Context, path, scope, scopeCode string) (string, bool, error) {
	query := `SELECT value FROM pricemind_config WHERE path = ? AND scope = ? AND scope_code = ? LIMIT 1`

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
func (r *MySQLConfigRepository) Save(ctx context.Context, path, value, scope, scopeCode string) error {
	query := `
		INSERT INTO pricemind_config (path, scope, scope_code, value)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`

	if _, err := r.db.ExecContext(ctx, query, path, scope, scopeCode, value); err != nil {
		return fmt.Errorf("failed to save config %s: %w", path, err)
	}
	return nil
}

// Close closes the database connection.
func (r *MySQLConfigRepository) Close() error {
	return r.db.Close()
}
