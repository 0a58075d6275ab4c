package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/screens/pkg/types"
)

var _ types.ScreenSource = (*ScreenStore)(nil)

// ScreenStore reads and writes screen definitions. Reads always return the
// lines loaded and sorted by order.
type ScreenStore struct {
	backend *Backend
}

type screenRow struct {
	ScreenID   string `db:"screen_id"`
	EntityType string `db:"entity_type"`
	Name       string `db:"name"`
	Title      string `db:"title"`
	Active     bool   `db:"active"`
	CreatedAt  string `db:"created_at"`
}

type lineRow struct {
	LineID         string `db:"line_id"`
	ScreenID       string `db:"screen_id"`
	Order          int    `db:"line_order"`
	Target         string `db:"target"`
	RelationField  string `db:"relation_field"`
	Property       string `db:"property"`
	SectionName    string `db:"section_name"`
	Caption        string `db:"caption"`
	Description    string `db:"description"`
	Required       bool   `db:"required"`
	ReadOnly       bool   `db:"readonly"`
	Hidden         bool   `db:"hidden"`
	CaptionVisible bool   `db:"caption_visible"`
	DefaultValue   string `db:"default_value"`
	MaxLength      int    `db:"max_length"`
	DataProvider   string `db:"data_provider"`
	Component      string `db:"component"`
}

const (
	screenColumns = "screen_id, entity_type, name, title, active, created_at"
	lineColumns   = "line_id, screen_id, line_order, target, relation_field, property, section_name, caption, " +
		"description, required, readonly, hidden, caption_visible, default_value, max_length, data_provider, component"
	insertLine = "INSERT INTO screen_lines (" + lineColumns + ") VALUES (:line_id, :screen_id, :line_order, :target, " +
		":relation_field, :property, :section_name, :caption, :description, :required, :readonly, :hidden, " +
		":caption_visible, :default_value, :max_length, :data_provider, :component)"
)

func (r screenRow) toScreen() *types.ScreenDefinition {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return &types.ScreenDefinition{
		ScreenID:   r.ScreenID,
		EntityType: r.EntityType,
		Name:       r.Name,
		Title:      r.Title,
		Active:     r.Active,
		CreatedAt:  created,
	}
}

func (r lineRow) toLine() types.Line {
	return types.Line{
		LineID:         r.LineID,
		ScreenID:       r.ScreenID,
		Order:          r.Order,
		Target:         types.LineTarget(r.Target),
		RelationField:  r.RelationField,
		Property:       r.Property,
		SectionName:    r.SectionName,
		Caption:        r.Caption,
		Description:    r.Description,
		Required:       r.Required,
		ReadOnly:       r.ReadOnly,
		Hidden:         r.Hidden,
		CaptionVisible: r.CaptionVisible,
		DefaultValue:   r.DefaultValue,
		MaxLength:      r.MaxLength,
		DataProvider:   r.DataProvider,
		Component:      r.Component,
	}
}

func fromLine(l types.Line) lineRow {
	return lineRow{
		LineID:         l.LineID,
		ScreenID:       l.ScreenID,
		Order:          l.Order,
		Target:         string(l.Target),
		RelationField:  l.RelationField,
		Property:       l.Property,
		SectionName:    l.SectionName,
		Caption:        l.Caption,
		Description:    l.Description,
		Required:       l.Required,
		ReadOnly:       l.ReadOnly,
		Hidden:         l.Hidden,
		CaptionVisible: l.CaptionVisible,
		DefaultValue:   l.DefaultValue,
		MaxLength:      l.MaxLength,
		DataProvider:   l.DataProvider,
		Component:      l.Component,
	}
}

// GetScreen returns the screen with the given ID and its ordered lines.
func (s *ScreenStore) GetScreen(ctx context.Context, id string) (*types.ScreenDefinition, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	return s.load(ctx, "screen_id = ?", id)
}

// FindScreen returns the screen with the given name and its ordered lines.
func (s *ScreenStore) FindScreen(ctx context.Context, name string) (*types.ScreenDefinition, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	return s.load(ctx, "name = ?", name)
}

func (s *ScreenStore) load(ctx context.Context, where string, arg any) (*types.ScreenDefinition, error) {
	db, err := s.backend.handle()
	if err != nil {
		return nil, err
	}
	var row screenRow
	err = db.GetContext(ctx, &row, "SELECT "+screenColumns+" FROM screens WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting screen: %w", err)
	}
	def := row.toScreen()
	if def.Lines, err = loadLines(ctx, db, def.ScreenID); err != nil {
		return nil, err
	}
	return def, nil
}

func loadLines(ctx context.Context, q sqlx.QueryerContext, screenID string) ([]types.Line, error) {
	var rows []lineRow
	err := sqlx.SelectContext(ctx, q, &rows,
		"SELECT "+lineColumns+" FROM screen_lines WHERE screen_id = ? ORDER BY line_order", screenID)
	if err != nil {
		return nil, fmt.Errorf("getting lines of screen %s: %w", screenID, err)
	}
	lines := make([]types.Line, len(rows))
	for i, r := range rows {
		lines[i] = r.toLine()
	}
	return lines, nil
}

// ListScreens returns every screen without lines, ordered by name. A
// non-empty entityType restricts the result to screens of that type.
func (s *ScreenStore) ListScreens(ctx context.Context, entityType string) ([]*types.ScreenDefinition, error) {
	db, err := s.backend.handle()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + screenColumns + " FROM screens"
	var args []any
	if entityType != "" {
		query += " WHERE entity_type = ?"
		args = append(args, entityType)
	}
	var rows []screenRow
	if err := db.SelectContext(ctx, &rows, query+" ORDER BY name", args...); err != nil {
		return nil, fmt.Errorf("listing screens: %w", err)
	}
	out := make([]*types.ScreenDefinition, len(rows))
	for i, r := range rows {
		out[i] = r.toScreen()
	}
	return out, nil
}

// SaveScreen validates def and stores it with its lines, replacing any lines
// stored before. A screen without an ID is created and gets a UUID v7. On
// success the assigned IDs are written back into def. Returns ErrDuplicate
// when another screen already uses the name.
func (s *ScreenStore) SaveScreen(ctx context.Context, def *types.ScreenDefinition) error {
	if def == nil {
		return types.ErrInvalidData
	}
	if err := def.Validate(); err != nil {
		return err
	}
	db, err := s.backend.handle()
	if err != nil {
		return err
	}

	var taken string
	err = db.GetContext(ctx, &taken, "SELECT screen_id FROM screens WHERE name = ? AND screen_id <> ?", def.Name, def.ScreenID)
	if err == nil {
		return fmt.Errorf("%w: screen %q", types.ErrDuplicate, def.Name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking screen name: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	saved := *def
	saved.Lines = append([]types.Line(nil), def.Lines...)
	if err := writeScreen(ctx, tx, &saved); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing screen: %w", err)
	}
	*def = saved
	return nil
}

func writeScreen(ctx context.Context, tx *sqlx.Tx, def *types.ScreenDefinition) error {
	var err error
	isCreate := def.ScreenID == ""
	if isCreate {
		def.ScreenID = newUUID()
		if def.CreatedAt.IsZero() {
			def.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO screens ("+screenColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			def.ScreenID, def.EntityType, def.Name, def.Title, def.Active, def.CreatedAt.Format(time.RFC3339Nano))
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			"UPDATE screens SET entity_type = ?, name = ?, title = ?, active = ? WHERE screen_id = ?",
			def.EntityType, def.Name, def.Title, def.Active, def.ScreenID)
		if err == nil {
			if n, _ := res.RowsAffected(); n == 0 {
				return types.ErrNotFound
			}
		}
	}
	if err != nil {
		return fmt.Errorf("persisting screen: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM screen_lines WHERE screen_id = ?", def.ScreenID); err != nil {
		return fmt.Errorf("clearing lines: %w", err)
	}
	for i := range def.Lines {
		l := &def.Lines[i]
		if l.LineID == "" {
			l.LineID = newUUID()
		}
		l.ScreenID = def.ScreenID
		if _, err := tx.NamedExecContext(ctx, insertLine, fromLine(*l)); err != nil {
			return fmt.Errorf("persisting line %d: %w", l.Order, err)
		}
	}
	return nil
}

// DeleteScreen removes a screen and its lines.
func (s *ScreenStore) DeleteScreen(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := s.backend.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM screen_lines WHERE screen_id = ?", id); err != nil {
		return fmt.Errorf("deleting lines: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM screens WHERE screen_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting screen: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return tx.Commit()
}

// Reorder rearranges the lines of a screen into the order of lineIDs, which
// must name every line exactly once, and renumbers them 10, 20, 30...
func (s *ScreenStore) Reorder(ctx context.Context, screenID string, lineIDs []string) (*types.ScreenDefinition, error) {
	def, err := s.GetScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if len(lineIDs) != len(def.Lines) {
		return nil, fmt.Errorf("%w: reorder names %d of %d lines", types.ErrInvalidData, len(lineIDs), len(def.Lines))
	}
	byID := make(map[string]types.Line, len(def.Lines))
	for _, l := range def.Lines {
		byID[l.LineID] = l
	}
	lines := make([]types.Line, 0, len(lineIDs))
	for _, id := range lineIDs {
		l, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: line %q is not on screen %s or repeated", types.ErrInvalidData, id, screenID)
		}
		delete(byID, id)
		lines = append(lines, l)
	}
	def.Lines = lines
	def.Renumber()
	if err := def.Validate(); err != nil {
		return nil, err
	}

	db, err := s.backend.handle()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Move every order out of the way first so the unique index never sees
	// two lines on the same order mid-update.
	if _, err := tx.ExecContext(ctx, "UPDATE screen_lines SET line_order = -line_order WHERE screen_id = ?", screenID); err != nil {
		return nil, fmt.Errorf("reordering lines: %w", err)
	}
	for _, l := range def.Lines {
		if _, err := tx.ExecContext(ctx, "UPDATE screen_lines SET line_order = ? WHERE line_id = ?", l.Order, l.LineID); err != nil {
			return nil, fmt.Errorf("reordering line %s: %w", l.LineID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reorder: %w", err)
	}
	return def, nil
}
