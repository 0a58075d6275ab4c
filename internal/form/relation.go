package form

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// RelationState is the state of a relation panel.
type RelationState int

// Relation panel states.
const (
	RelationEmpty RelationState = iota
	RelationLoaded
	RelationSelected
	RelationEditing
)

func (s RelationState) String() string {
	switch s {
	case RelationEmpty:
		return "empty"
	case RelationLoaded:
		return "loaded"
	case RelationSelected:
		return "selected"
	case RelationEditing:
		return "editing"
	}
	return fmt.Sprintf("RelationState(%d)", int(s))
}

// RelationPanel lists the items of one collection on the owner entity and
// edits them: empty until an owner is loaded, loaded, selected after a list
// selection, editing while a draft is open.
type RelationPanel struct {
	Relation    string
	RelatedType string

	field    *meta.Resolved
	registry *meta.Registry
	schema   *meta.Schema
	repo     types.Repository // optional; commits persist the draft when set
	onChange func(owner any)

	state    RelationState
	owner    any
	items    []any
	selected int
	draft    any
	adding   bool
}

func newRelationPanel(reg *meta.Registry, field *meta.Resolved, schema *meta.Schema, repo types.Repository) *RelationPanel {
	return &RelationPanel{
		Relation:    field.Path,
		RelatedType: schema.Name(),
		field:       field,
		registry:    reg,
		schema:      schema,
		repo:        repo,
		selected:    -1,
	}
}

// Key returns the relation path.
func (r *RelationPanel) Key() string { return r.Relation }

// State returns the current state.
func (r *RelationPanel) State() RelationState { return r.state }

// Items returns the listed entities.
func (r *RelationPanel) Items() []any { return append([]any(nil), r.items...) }

// Labels returns the display label of each listed entity.
func (r *RelationPanel) Labels() []string {
	out := make([]string, len(r.items))
	for i, it := range r.items {
		out[i] = label(it)
	}
	return out
}

// Selected returns the selected item.
func (r *RelationPanel) Selected() (any, bool) {
	if r.selected < 0 || r.selected >= len(r.items) {
		return nil, false
	}
	return r.items[r.selected], true
}

// Draft returns the entity being edited, or nil outside the editing state.
func (r *RelationPanel) Draft() any { return r.draft }

// Load lists the owner's collection. A nil owner empties the panel.
func (r *RelationPanel) Load(owner any) {
	r.owner = owner
	r.draft = nil
	r.adding = false
	r.selected = -1
	if owner == nil {
		r.items = nil
		r.state = RelationEmpty
		return
	}
	r.items, _ = r.field.Get(owner).([]any)
	r.state = RelationLoaded
}

// rebase moves the panel to owner, writing the listed items into owner's
// collection. Selection and any open draft are kept.
func (r *RelationPanel) rebase(owner any) error {
	if r.owner == nil {
		r.Load(owner)
		return nil
	}
	var items any
	if r.items != nil {
		items = r.items
	}
	if err := r.field.Set(owner, items); err != nil {
		return err
	}
	r.owner = owner
	return nil
}

func (r *RelationPanel) transition(op string, allowed ...RelationState) error {
	for _, s := range allowed {
		if r.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s while %s", types.ErrInvalidTransition, op, r.state)
}

// Select marks the item at index i.
func (r *RelationPanel) Select(i int) error {
	if err := r.transition("select", RelationLoaded, RelationSelected); err != nil {
		return err
	}
	if i < 0 || i >= len(r.items) {
		return fmt.Errorf("%w: index %d of %d", types.ErrNotFound, i, len(r.items))
	}
	r.selected = i
	r.state = RelationSelected
	return nil
}

// Add opens a draft for a new item.
func (r *RelationPanel) Add() error {
	if err := r.transition("add", RelationLoaded, RelationSelected); err != nil {
		return err
	}
	r.draft = r.schema.New()
	r.adding = true
	r.state = RelationEditing
	return nil
}

// Edit opens a draft copy of the selected item.
func (r *RelationPanel) Edit() error {
	if err := r.transition("edit", RelationSelected); err != nil {
		return err
	}
	r.draft = r.schema.Clone(r.items[r.selected])
	r.adding = false
	r.state = RelationEditing
	return nil
}

// Set writes a property of the draft.
func (r *RelationPanel) Set(property string, value any) error {
	if err := r.transition("set", RelationEditing); err != nil {
		return err
	}
	res, err := r.registry.ResolvePath(r.RelatedType, property)
	if err != nil {
		return err
	}
	return res.Set(r.draft, value)
}

// Commit stores the draft in the owner's collection, persisting it first
// when the panel has a repository. On failure the panel stays in editing.
func (r *RelationPanel) Commit(ctx context.Context) error {
	if err := r.transition("commit", RelationEditing); err != nil {
		return err
	}
	item := r.draft
	if r.repo != nil {
		saved, err := r.repo.Save(ctx, item)
		if err != nil {
			return fmt.Errorf("save %s: %w", r.RelatedType, err)
		}
		item = saved
	}

	items := append(make([]any, 0, len(r.items)+1), r.items...)
	idx := r.selected
	if r.adding {
		items = append(items, item)
		idx = len(items) - 1
	} else {
		items[idx] = item
	}
	if err := r.field.Set(r.owner, items); err != nil {
		return err
	}
	r.items = items
	r.selected = idx
	r.draft = nil
	r.adding = false
	r.state = RelationSelected
	r.changed()
	return nil
}

// Cancel drops the draft.
func (r *RelationPanel) Cancel() error {
	if err := r.transition("cancel", RelationEditing); err != nil {
		return err
	}
	r.draft = nil
	r.adding = false
	if r.selected >= 0 {
		r.state = RelationSelected
	} else {
		r.state = RelationLoaded
	}
	return nil
}

// Delete removes the selected item from the owner's collection. The related
// entity itself is not deleted.
func (r *RelationPanel) Delete() error {
	if err := r.transition("delete", RelationSelected); err != nil {
		return err
	}
	items := make([]any, 0, len(r.items)-1)
	items = append(items, r.items[:r.selected]...)
	items = append(items, r.items[r.selected+1:]...)
	if err := r.field.Set(r.owner, items); err != nil {
		return err
	}
	r.items = items
	r.selected = -1
	r.state = RelationLoaded
	r.changed()
	return nil
}

func (r *RelationPanel) changed() {
	if r.onChange != nil {
		r.onChange(r.owner)
	}
}
