package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rakesh-nandakumar/contextd/internal/domain"
	"github.com/rakesh-nandakumar/contextd/internal/port/database"
)

// GetConfigValue returns the raw JSON stored under a retrieval config key.
func (s *Store) GetConfigValue(ctx context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM rag_config WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("config %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", key, err)
	}
	return value, nil
}

// SaveManifestConfig upserts the manifest document and the enabled-section
// map in one transaction. Both keys become visible together; a concurrent
// reader never sees one updated and the other stale.
func (s *Store) SaveManifestConfig(ctx context.Context, manifestJSON, enabledJSON json.RawMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save config: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsert = `INSERT INTO rag_config (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := tx.Exec(ctx, upsert, database.ConfigKeyManifest, manifestJSON); err != nil {
		return fmt.Errorf("upsert %s: %w", database.ConfigKeyManifest, err)
	}
	if _, err := tx.Exec(ctx, upsert, database.ConfigKeyEnabled, enabledJSON); err != nil {
		return fmt.Errorf("upsert %s: %w", database.ConfigKeyEnabled, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save config: %w", err)
	}
	return nil
}
