package form

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// memRepo is an in-memory Repository with optimistic versioning.
type memRepo struct {
	schema  *meta.Schema
	items   map[string]any
	order   []string
	nextID  int
	saveErr error
	saves   int
}

func newMemRepo(s *meta.Schema) *memRepo {
	return &memRepo{schema: s, items: make(map[string]any)}
}

func (m *memRepo) Save(_ context.Context, entity any) (any, error) {
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	rec := entity.(types.Entity).RecordMeta()
	c := m.schema.Clone(entity)
	if c == nil {
		return nil, types.ErrInvalidData
	}
	cr := c.(types.Entity).RecordMeta()
	if rec.IsNew() {
		m.nextID++
		cr.ID = fmt.Sprintf("id-%d", m.nextID)
		cr.Version = 1
		m.order = append(m.order, cr.ID)
	} else {
		stored, ok := m.items[rec.ID]
		if !ok {
			return nil, types.ErrNotFound
		}
		if stored.(types.Entity).RecordMeta().Version != rec.Version {
			return nil, types.ErrConcurrencyConflict
		}
		cr.Version++
	}
	m.items[cr.ID] = c
	return m.schema.Clone(c), nil
}

func (m *memRepo) Delete(_ context.Context, entity any) error {
	id := entity.(types.Entity).RecordMeta().ID
	if _, ok := m.items[id]; !ok {
		return types.ErrNotFound
	}
	delete(m.items, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (any, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return m.schema.Clone(e), nil
}

func (m *memRepo) List(_ context.Context, _ types.Filter, _ types.Page) (types.PageResult, error) {
	var res types.PageResult
	for _, id := range m.order {
		res.Items = append(res.Items, m.schema.Clone(m.items[id]))
	}
	res.Total = len(res.Items)
	return res, nil
}

// bump simulates another session saving the stored entity.
func (m *memRepo) bump(id string) {
	m.items[id].(types.Entity).RecordMeta().Version++
}

func screen(entityType string, lines ...types.Line) *types.ScreenDefinition {
	for i := range lines {
		lines[i].Order = (i + 1) * 10
	}
	return &types.ScreenDefinition{Name: "test", EntityType: entityType, Title: "Test", Active: true, Lines: lines}
}

func section(name string) types.Line { return types.SectionMarker(name, "", "") }

func field(path string) types.Line { return types.OwnField(path) }
