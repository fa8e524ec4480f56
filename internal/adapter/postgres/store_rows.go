package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
	"github.com/rakesh-nandakumar/contextd/internal/port/database"
)

// FetchRows executes a column-projected, limited read against one table,
// excluding soft-deleted rows. Relation specs in the projection (e.g.
// "contact_types(name, icon)") are resolved into nested objects or lists on
// each returned row.
//
// Relation direction is resolved by foreign-key convention: when the base
// row carries "<singular(relation)>_id" the relation is belongs-to and
// yields an object; otherwise the relation table is assumed to reference
// the base table through "<singular(table)>_id" and yields a list.
func (s *Store) FetchRows(ctx context.Context, q database.RowQuery) ([]database.Row, error) {
	table, err := validIdent(q.Table)
	if err != nil {
		return nil, fmt.Errorf("row query: %w", err)
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("row query %s: limit must be positive", q.Table)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.deleted_at IS NULL ORDER BY t.id LIMIT $1`, table),
		q.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.Table, err)
	}
	defer rows.Close()

	var full []database.Row
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Table, err)
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", q.Table, err)
		}
		full = append(full, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.Table, err)
	}
	if len(full) == 0 {
		return nil, nil
	}

	specs := manifest.ParseColumns(q.Columns)

	star := false
	for _, sp := range specs {
		if !sp.IsRelation() && sp.Name == "*" {
			star = true
		}
	}

	out := make([]database.Row, len(full))
	for i, rec := range full {
		if star {
			out[i] = rec
			continue
		}
		proj := make(database.Row, len(specs))
		for _, sp := range specs {
			if sp.IsRelation() {
				continue
			}
			if v, ok := rec[sp.Name]; ok {
				proj[sp.Name] = v
			}
		}
		out[i] = proj
	}

	for _, sp := range specs {
		if !sp.IsRelation() {
			continue
		}
		if err := s.expandRelation(ctx, table, sp, full, out); err != nil {
			return nil, fmt.Errorf("expand %s.%s: %w", q.Table, sp.Name, err)
		}
	}

	return out, nil
}

// expandRelation attaches one related table to every row, choosing the
// belongs-to or has-many shape by foreign-key convention.
func (s *Store) expandRelation(ctx context.Context, parent string, sp manifest.ColumnSpec, full, out []database.Row) error {
	rel, err := validIdent(sp.Name)
	if err != nil {
		return err
	}
	for _, c := range sp.Columns {
		if c == "*" {
			continue
		}
		if _, err := validIdent(c); err != nil {
			return err
		}
	}

	fkCol := singularize(rel) + "_id"
	if _, ok := full[0][fkCol]; ok {
		return s.attachBelongsTo(ctx, rel, fkCol, sp.Columns, full, out)
	}
	return s.attachHasMany(ctx, rel, singularize(parent)+"_id", sp.Columns, full, out)
}

// attachBelongsTo resolves rel through the base row's FK column and attaches
// the related record as a nested object. One query per base row; bounded by
// the section item cap.
func (s *Store) attachBelongsTo(ctx context.Context, rel, fkCol string, cols []string, full, out []database.Row) error {
	// ids may be bigint or uuid depending on the table; compare as text.
	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.id::text = $1`, rel)
	for i, rec := range full {
		key, ok := keyText(rec[fkCol])
		if !ok {
			continue
		}
		var raw []byte
		err := s.pool.QueryRow(ctx, query, key).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		out[i][rel] = projectColumns(obj, cols)
	}
	return nil
}

// attachHasMany resolves rel rows referencing the base row and attaches them
// as a list of nested objects.
func (s *Store) attachHasMany(ctx context.Context, rel, parentFK string, cols []string, full, out []database.Row) error {
	fk, err := validIdent(parentFK)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.%s::text = $1 ORDER BY t.id`, rel, fk)
	for i, rec := range full {
		key, ok := keyText(rec["id"])
		if !ok {
			continue
		}
		rows, err := s.pool.Query(ctx, query, key)
		if err != nil {
			return err
		}
		var list []any
		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return err
			}
			var obj map[string]any
			if err := json.Unmarshal(raw, &obj); err != nil {
				rows.Close()
				return err
			}
			list = append(list, projectColumns(obj, cols))
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if list != nil {
			out[i][rel] = list
		}
	}
	return nil
}

// projectColumns keeps only the requested keys of a related record.
func projectColumns(obj map[string]any, cols []string) map[string]any {
	if len(cols) == 0 {
		return obj
	}
	for _, c := range cols {
		if c == "*" {
			return obj
		}
	}
	proj := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := obj[c]; ok {
			proj[c] = v
		}
	}
	return proj
}
