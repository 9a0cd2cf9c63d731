package repository

import (
	"context"

	"pricemind-sync-api/internal/model"
)

// Config scopes. The default scope uses an empty scope code.
const (
	ScopeDefault  = "default"
	ScopeWebsites = "websites"
)

// ConfigRepository stores scoped configuration values by path.
type ConfigRepository interface {
	// Get returns the value stored at exactly (path, scope, scopeCode).
	// found is false when no row exists.
	Get(ctx context.Context, path, scope, scopeCode string) (value string, found bool, err error)

	// Save inserts or replaces the value at (path, scope, scopeCode).
	Save(ctx context.Context, path, value, scope, scopeCode string) error

	// Close closes the repository connection.
	Close() error
}

// FailedRequestRepository is the append-only store of failed outbound calls.
type FailedRequestRepository interface {
	// InsertFailedRequest stores rec and sets rec.ID.
	InsertFailedRequest(ctx context.Context, rec *model.FailedRequestRecord) error

	// GetStats returns statistics about stored failures.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
