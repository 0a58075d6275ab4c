package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/screens/pkg/types"
)

var _ types.Repository = (*Repository)(nil)

// Repository stores entities of one type as JSON documents with an
// optimistic version counter.
type Repository struct {
	backend    *Backend
	entityType string
	newEntity  func() any
}

// entityRow is one row of the entities table.
type entityRow struct {
	EntityType string `db:"entity_type"`
	EntityID   string `db:"entity_id"`
	Version    int64  `db:"version"`
	Body       string `db:"body"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

var filterKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// decode allocates a fresh instance and fills it from body.
func (r *Repository) decode(body []byte) (any, error) {
	out := r.newEntity()
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.entityType, err)
	}
	return out, nil
}

// Save inserts the entity when its ID is empty and updates it otherwise.
// Updates require the stored version to equal the entity's version; the
// returned instance carries the incremented version. The argument is never
// modified.
func (r *Repository) Save(ctx context.Context, entity any) (any, error) {
	e, ok := entity.(types.Entity)
	if !ok || entity == nil {
		return nil, types.ErrInvalidData
	}
	db, err := r.backend.handle()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", r.entityType, err)
	}
	out, err := r.decode(body)
	if err != nil {
		return nil, err
	}
	rec := out.(types.Entity).RecordMeta()
	prevVersion := e.RecordMeta().Version
	now := time.Now().UTC().Truncate(time.Millisecond)

	isCreate := rec.IsNew()
	if isCreate {
		rec.ID = newUUID()
		rec.Version = 1
		rec.CreatedAt = now
	} else {
		rec.Version = prevVersion + 1
	}
	rec.UpdatedAt = now

	if body, err = json.Marshal(out); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", r.entityType, err)
	}
	stamp := now.Format(time.RFC3339Nano)

	if isCreate {
		_, err = db.ExecContext(ctx,
			"INSERT INTO entities (entity_type, entity_id, version, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			r.entityType, rec.ID, rec.Version, string(body), stamp, stamp,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting %s: %w", r.entityType, err)
		}
		return out, nil
	}

	res, err := db.ExecContext(ctx,
		"UPDATE entities SET version = ?, body = ?, updated_at = ? WHERE entity_type = ? AND entity_id = ? AND version = ?",
		rec.Version, string(body), stamp, r.entityType, rec.ID, prevVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", r.entityType, rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", r.entityType, rec.ID, err)
	}
	if n == 0 {
		var stored int64
		err := db.GetContext(ctx, &stored,
			"SELECT version FROM entities WHERE entity_type = ? AND entity_id = ?", r.entityType, rec.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("checking %s %s: %w", r.entityType, rec.ID, err)
		}
		return nil, fmt.Errorf("%w: %s %s is at version %d, not %d",
			types.ErrConcurrencyConflict, r.entityType, rec.ID, stored, prevVersion)
	}
	return out, nil
}

// Delete removes the entity. Returns ErrNotFound if it does not exist.
func (r *Repository) Delete(ctx context.Context, entity any) error {
	e, ok := entity.(types.Entity)
	if !ok || entity == nil {
		return types.ErrInvalidData
	}
	id := e.RecordMeta().ID
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := r.backend.handle()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"DELETE FROM entities WHERE entity_type = ? AND entity_id = ?", r.entityType, id)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", r.entityType, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", r.entityType, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// FindByID returns a fresh instance of the stored entity.
func (r *Repository) FindByID(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := r.backend.handle()
	if err != nil {
		return nil, err
	}
	var row entityRow
	err = db.GetContext(ctx, &row,
		"SELECT entity_type, entity_id, version, body, created_at, updated_at FROM entities WHERE entity_type = ? AND entity_id = ?",
		r.entityType, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", r.entityType, id, err)
	}
	return r.decode([]byte(row.Body))
}

// List returns the entities whose top-level JSON fields equal the filter
// values, oldest first. Filter keys must be plain identifiers.
func (r *Repository) List(ctx context.Context, filter types.Filter, page types.Page) (types.PageResult, error) {
	var res types.PageResult
	db, err := r.backend.handle()
	if err != nil {
		return res, err
	}
	where, args, err := buildFilter(r.entityType, filter)
	if err != nil {
		return res, err
	}

	if err := db.GetContext(ctx, &res.Total, "SELECT COUNT(*) FROM entities WHERE "+where, args...); err != nil {
		return res, fmt.Errorf("counting %s: %w", r.entityType, err)
	}

	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	query := "SELECT entity_type, entity_id, version, body, created_at, updated_at FROM entities WHERE " + where +
		" ORDER BY created_at, entity_id LIMIT ? OFFSET ?"
	var rows []entityRow
	if err := db.SelectContext(ctx, &rows, query, append(args, limit, page.Offset)...); err != nil {
		return res, fmt.Errorf("listing %s: %w", r.entityType, err)
	}
	for _, row := range rows {
		v, err := r.decode([]byte(row.Body))
		if err != nil {
			return types.PageResult{}, err
		}
		res.Items = append(res.Items, v)
	}
	return res, nil
}

// buildFilter returns the WHERE clause and arguments for filter. Keys are
// sorted so the generated SQL is stable.
func buildFilter(entityType string, filter types.Filter) (string, []any, error) {
	clauses := []string{"entity_type = ?"}
	args := []any{entityType}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !filterKey.MatchString(k) {
			return "", nil, fmt.Errorf("%w: filter key %q", types.ErrInvalidData, k)
		}
		v := filter[k]
		if v == nil {
			clauses = append(clauses, "json_extract(body, '$."+k+"') IS NULL")
			continue
		}
		if b, ok := v.(bool); ok {
			if b {
				v = 1
			} else {
				v = 0
			}
		}
		clauses = append(clauses, "json_extract(body, '$."+k+"') = ?")
		args = append(args, v)
	}
	return strings.Join(clauses, " AND "), args, nil
}
