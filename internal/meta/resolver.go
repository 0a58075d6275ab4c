package meta

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// Resolved is a field path bound to a root entity type. Paths are either a
// root property or relation.property, where relation is a single reference
// on the root type.
type Resolved struct {
	EntityType string
	Path       string
	Meta       types.FieldMetadata

	relation Field   // nil for root properties
	related  *Schema // schema behind relation
	leaf     Field
}

// Nested reports whether the path goes through a relation.
func (r *Resolved) Nested() bool { return r.relation != nil }

// Get reads the value at the path from a root entity. A nil relation reads
// as the empty value of the leaf kind.
func (r *Resolved) Get(entity any) any {
	if r.relation == nil {
		return r.leaf.Get(entity)
	}
	rel := r.relation.Get(entity)
	if rel == nil {
		v, _ := types.DefaultValue(r.Meta.Kind)
		return v
	}
	return r.leaf.Get(rel)
}

// Coerce converts value into the widget form of the leaf field and checks
// that the field can hold it, so a bad value fails when it is assigned
// rather than when it is flushed.
func (r *Resolved) Coerce(value any) (any, error) {
	c, err := Coerce(r.Meta, value)
	if err != nil {
		return nil, err
	}
	if err := r.leaf.Check(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Set writes value at the path on a root entity. Writes through a relation
// copy the related instance first so entities shared with other owners are
// never mutated. A nil relation is allocated only for a non-empty value.
func (r *Resolved) Set(entity any, value any) error {
	if r.relation == nil {
		return r.leaf.Set(entity, value)
	}
	rel := r.relation.Get(entity)
	if rel == nil {
		if IsEmpty(value) {
			return nil
		}
		rel = r.related.New()
	} else {
		rel = r.related.Clone(rel)
	}
	if err := r.leaf.Set(rel, value); err != nil {
		return err
	}
	return r.relation.Set(entity, rel)
}

// Resolve returns the binding for a screen line against entityType. Section
// markers carry no field and resolve to nil with no error. Failures are
// *types.ConfigurationError values naming the offending property.
func (r *Registry) Resolve(entityType string, line types.Line) (*Resolved, error) {
	if line.IsSection() {
		return nil, nil
	}
	return r.ResolvePath(entityType, line.PropertyPath())
}

// ResolvePath resolves a dotted property path against entityType. Only one
// level of relation traversal is supported. Results are cached for the life
// of the registry.
func (r *Registry) ResolvePath(entityType, path string) (*Resolved, error) {
	key := cacheKey{entityType, path}
	r.mu.RLock()
	res, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return res, nil
	}

	res, err := r.resolve(entityType, path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[key] = res
	r.mu.Unlock()
	return res, nil
}

func (r *Registry) resolve(entityType, path string) (*Resolved, error) {
	root, ok := r.Schema(entityType)
	if !ok {
		return nil, &types.ConfigurationError{Property: path,
			Reason: fmt.Sprintf("unknown entity type %q", entityType)}
	}
	if path == "" {
		return nil, &types.ConfigurationError{Reason: "empty property path"}
	}
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return nil, &types.ConfigurationError{Property: path,
			Reason: "relation paths deeper than one level are not supported"}
	}

	head, ok := root.Field(parts[0])
	if !ok {
		return nil, &types.ConfigurationError{Property: parts[0],
			Reason: "property not found on " + entityType}
	}
	if len(parts) == 1 {
		return &Resolved{EntityType: entityType, Path: path, Meta: head.Metadata(), leaf: head}, nil
	}

	hmd := head.Metadata()
	if hmd.Kind != types.KindReference {
		return nil, &types.ConfigurationError{Property: parts[0], Reason: "not a relation"}
	}
	related, ok := r.Schema(hmd.RelatedType)
	if !ok {
		return nil, &types.ConfigurationError{Property: parts[0],
			Reason: fmt.Sprintf("related type %q is not registered", hmd.RelatedType)}
	}
	leaf, ok := related.Field(parts[1])
	if !ok {
		return nil, &types.ConfigurationError{Property: path,
			Reason: "property not found on " + related.name}
	}
	if !leaf.Metadata().Kind.IsSimple() {
		return nil, &types.ConfigurationError{Property: path,
			Reason: "relation paths deeper than one level are not supported"}
	}
	return &Resolved{
		EntityType: entityType,
		Path:       path,
		Meta:       leaf.Metadata(),
		relation:   head,
		related:    related,
		leaf:       leaf,
	}, nil
}
