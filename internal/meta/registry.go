// Package meta holds the class-keyed metadata table that screen lines are
// resolved against. Entity types are registered explicitly with typed field
// accessors; nothing is discovered by reflection at runtime.
package meta

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// Schema describes one registered entity type: how to allocate and copy an
// instance and which fields it exposes.
type Schema struct {
	name   string
	newFn  func() any
	clone  func(any) any
	fields []Field
	byName map[string]Field
}

// NewSchema builds the schema of entity type T registered under name.
// Fields keep their declaration order.
func NewSchema[T any](name string, fields ...Field) *Schema {
	s := &Schema{
		name:  name,
		newFn: func() any { return new(T) },
		clone: func(v any) any {
			p, ok := v.(*T)
			if !ok || p == nil {
				return nil
			}
			c := *p
			return &c
		},
		fields: fields,
		byName: make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		s.byName[f.Metadata().Name] = f
	}
	return s
}

// Name returns the registered type name.
func (s *Schema) Name() string { return s.name }

// New allocates an empty instance.
func (s *Schema) New() any { return s.newFn() }

// Clone returns a shallow copy of entity, or nil when entity is not an
// instance of this schema. Slices and referenced entities are shared.
func (s *Schema) Clone(entity any) any { return s.clone(entity) }

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Fields returns every field in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Registry maps entity type names to schemas and caches resolved paths.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	cache   map[cacheKey]*Resolved
}

type cacheKey struct {
	entityType string
	path       string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
		cache:   make(map[cacheKey]*Resolved),
	}
}

// Register adds a schema. Returns ErrDuplicate if the name is taken,
// ErrInvalidName for an empty name or field name, and ErrTypeMismatch when a
// field was declared for a different entity type.
func (r *Registry) Register(s *Schema) error {
	if s == nil || s.name == "" {
		return types.ErrInvalidName
	}
	probe := s.New()
	seen := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		name := f.Metadata().Name
		if name == "" || strings.Contains(name, ".") {
			return fmt.Errorf("%w: field %q of %s", types.ErrInvalidName, name, s.name)
		}
		if seen[name] {
			return fmt.Errorf("%w: field %q of %s", types.ErrDuplicate, name, s.name)
		}
		seen[name] = true
		if !f.accepts(probe) {
			return fmt.Errorf("%w: field %q is not declared on %s", types.ErrTypeMismatch, name, s.name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.name]; ok {
		return fmt.Errorf("%w: schema %q", types.ErrDuplicate, s.name)
	}
	r.schemas[s.name] = s
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(schemas ...*Schema) *Registry {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Schema returns the schema registered under entityType.
func (r *Registry) Schema(entityType string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[entityType]
	return s, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fields enumerates the simple fields a line may bind. With an empty
// relation it lists the root type's own fields; otherwise it lists the fields
// of the type behind the named relation.
func (r *Registry) Fields(entityType, relation string) ([]types.FieldMetadata, error) {
	s, ok := r.Schema(entityType)
	if !ok {
		return nil, &types.ConfigurationError{Reason: fmt.Sprintf("unknown entity type %q", entityType)}
	}
	if relation != "" {
		f, ok := s.Field(relation)
		if !ok {
			return nil, &types.ConfigurationError{Property: relation, Reason: "property not found on " + entityType}
		}
		md := f.Metadata()
		if !md.Kind.IsRelation() {
			return nil, &types.ConfigurationError{Property: relation, Reason: "not a relation"}
		}
		if s, ok = r.Schema(md.RelatedType); !ok {
			return nil, &types.ConfigurationError{Property: relation,
				Reason: fmt.Sprintf("related type %q is not registered", md.RelatedType)}
		}
	}
	var out []types.FieldMetadata
	for _, f := range s.fields {
		if md := f.Metadata(); md.Kind.IsSimple() {
			out = append(out, md)
		}
	}
	return out, nil
}
