// Package database defines the database store port (interface).
package database

import (
	"context"
	"encoding/json"
)

// Config keys under which the manifest document and the enabled-section
// toggle map are persisted. They are stored together but remain logically
// separate entities.
const (
	ConfigKeyManifest = "manifest_json"
	ConfigKeyEnabled  = "enabled_sections"
)

// Row is one record returned by the row store: column name to value, with
// relation columns resolved to nested objects or lists of objects.
type Row = map[string]any

// RowQuery describes a filtered, column-projected, limited read against one
// table. Soft-deleted rows (deleted_at set) are always excluded.
type RowQuery struct {
	Table   string
	Columns []string // manifest column specs, may include relation expansions
	Limit   int
}

// Store is the port interface for durable storage.
type Store interface {
	// FetchRows executes a RowQuery and returns at most Limit rows.
	FetchRows(ctx context.Context, q RowQuery) ([]Row, error)

	// GetConfigValue returns the raw JSON stored under a config key.
	// Returns domain.ErrNotFound when the key does not exist.
	GetConfigValue(ctx context.Context, key string) (json.RawMessage, error)

	// SaveManifestConfig persists the manifest document and the
	// enabled-section map in a single transaction, so a concurrent load
	// never observes half-updated state.
	SaveManifestConfig(ctx context.Context, manifestJSON, enabledJSON json.RawMessage) error
}
