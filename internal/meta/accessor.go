package meta

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// Field is one registered property of a schema. Values cross the Field
// boundary in their widget form: string for text and enum, float64 for
// number, bool for boolean, time.Time or nil for date, the related pointer or
// nil for reference, and []any or nil for collection.
type Field interface {
	Metadata() types.FieldMetadata
	Get(entity any) any
	Set(entity any, value any) error
	// Check reports whether value, in widget form, can be written.
	Check(value any) error
	accepts(entity any) bool
}

// Option adjusts the metadata of a field at registration time.
type Option func(*types.FieldMetadata)

// DisplayName sets the default caption.
func DisplayName(s string) Option { return func(m *types.FieldMetadata) { m.DisplayName = s } }

// Description sets the default help text.
func Description(s string) Option { return func(m *types.FieldMetadata) { m.Description = s } }

// MaxLength sets the default maximum length of a text field.
func MaxLength(n int) Option { return func(m *types.FieldMetadata) { m.MaxLength = n } }

// Default sets the default value in textual form.
func Default(s string) Option { return func(m *types.FieldMetadata) { m.DefaultValue = s } }

// DataProvider sets the provider used when a line declares none.
func DataProvider(name string) Option { return func(m *types.FieldMetadata) { m.DataProvider = name } }

// Rules appends validator tags, e.g. "email".
func Rules(tags string) Option { return func(m *types.FieldMetadata) { m.Rules = tags } }

type field[T any] struct {
	md    types.FieldMetadata
	get   func(*T) any
	set   func(*T, any) error
	check func(any) error // extra check after Coerce, nil when none
}

func (f *field[T]) Metadata() types.FieldMetadata { return f.md }

func (f *field[T]) Get(entity any) any {
	p, ok := entity.(*T)
	if !ok || p == nil {
		return nil
	}
	return f.get(p)
}

func (f *field[T]) Set(entity any, value any) error {
	p, ok := entity.(*T)
	if !ok || p == nil {
		return fmt.Errorf("%w: field %s cannot be set on %T", types.ErrTypeMismatch, f.md.Name, entity)
	}
	return f.set(p, value)
}

func (f *field[T]) Check(value any) error {
	c, err := Coerce(f.md, value)
	if err != nil {
		return err
	}
	if f.check != nil {
		return f.check(c)
	}
	return nil
}

func (f *field[T]) accepts(entity any) bool {
	_, ok := entity.(*T)
	return ok
}

func newMeta(name string, kind types.FieldKind, opts []Option) types.FieldMetadata {
	md := types.FieldMetadata{Name: name, DisplayName: humanize(name), Kind: kind}
	for _, o := range opts {
		o(&md)
	}
	return md
}

// Text registers a string property.
func Text[T any](name string, lens func(*T) *string, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindText, opts)}
	f.get = func(p *T) any { return *lens(p) }
	f.set = func(p *T, v any) error {
		s, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		*lens(p) = s.(string)
		return nil
	}
	return f
}

// Enum registers a string property restricted to options.
func Enum[T any](name string, lens func(*T) *string, options []string, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindEnum, opts)}
	f.md.Options = append([]string(nil), options...)
	f.get = func(p *T) any { return *lens(p) }
	f.set = func(p *T, v any) error {
		s, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		*lens(p) = s.(string)
		return nil
	}
	return f
}

// Number registers a float64 property.
func Number[T any](name string, lens func(*T) *float64, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindNumber, opts)}
	f.get = func(p *T) any { return *lens(p) }
	f.set = func(p *T, v any) error {
		n, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		*lens(p) = n.(float64)
		return nil
	}
	return f
}

// Integer registers an int64 property. Its widget value is still a float64
// and must be integral.
func Integer[T any](name string, lens func(*T) *int64, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindNumber, opts)}
	f.md.Integer = true
	f.get = func(p *T) any { return float64(*lens(p)) }
	f.set = func(p *T, v any) error {
		n, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		*lens(p) = int64(n.(float64))
		return nil
	}
	return f
}

// Boolean registers a bool property.
func Boolean[T any](name string, lens func(*T) *bool, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindBoolean, opts)}
	f.get = func(p *T) any { return *lens(p) }
	f.set = func(p *T, v any) error {
		b, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		*lens(p) = b.(bool)
		return nil
	}
	return f
}

// Date registers a nullable date property.
func Date[T any](name string, lens func(*T) **time.Time, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindDate, opts)}
	f.get = func(p *T) any {
		if t := *lens(p); t != nil {
			return *t
		}
		return nil
	}
	f.set = func(p *T, v any) error {
		d, err := Coerce(f.md, v)
		if err != nil {
			return err
		}
		if d == nil {
			*lens(p) = nil
			return nil
		}
		t := d.(time.Time)
		*lens(p) = &t
		return nil
	}
	return f
}

// Reference registers a single-valued relation to the schema named related.
func Reference[T, R any](name, related string, lens func(*T) **R, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindReference, opts)}
	f.md.RelatedType = related
	f.get = func(p *T) any {
		if r := *lens(p); r != nil {
			return r
		}
		return nil
	}
	f.check = func(v any) error {
		if v == nil {
			return nil
		}
		if r, ok := v.(*R); !ok {
			return fmt.Errorf("%w: %s expects %T, got %T", types.ErrTypeMismatch, name, r, v)
		}
		return nil
	}
	f.set = func(p *T, v any) error {
		if err := f.check(v); err != nil {
			return err
		}
		if v == nil {
			*lens(p) = nil
			return nil
		}
		*lens(p) = v.(*R)
		return nil
	}
	return f
}

// Collection registers a multi-valued relation to the schema named related.
// Nil and empty slices stay distinct across Get and Set.
func Collection[T, R any](name, related string, lens func(*T) *[]*R, opts ...Option) Field {
	f := &field[T]{md: newMeta(name, types.KindCollection, opts)}
	f.md.RelatedType = related
	f.md.Multi = true
	f.get = func(p *T) any {
		items := *lens(p)
		if items == nil {
			return nil
		}
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = it
		}
		return out
	}
	f.check = func(v any) error {
		vals, _ := v.([]any)
		for _, it := range vals {
			if r, ok := it.(*R); !ok || r == nil {
				return fmt.Errorf("%w: %s items must be %T, got %T", types.ErrTypeMismatch, name, r, it)
			}
		}
		return nil
	}
	f.set = func(p *T, v any) error {
		switch vals := v.(type) {
		case nil:
			*lens(p) = nil
		case []*R:
			*lens(p) = append(make([]*R, 0, len(vals)), vals...)
		case []any:
			out := make([]*R, 0, len(vals))
			for _, it := range vals {
				r, ok := it.(*R)
				if !ok || r == nil {
					return fmt.Errorf("%w: %s items must be %T, got %T", types.ErrTypeMismatch, name, r, it)
				}
				out = append(out, r)
			}
			*lens(p) = out
		default:
			return fmt.Errorf("%w: %s expects a list, got %T", types.ErrTypeMismatch, name, v)
		}
		return nil
	}
	return f
}

// Coerce converts v into the widget form of md's kind. Strings are parsed for
// number, boolean, and date kinds so textual input and stored defaults can be
// assigned directly.
func Coerce(md types.FieldMetadata, v any) (any, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %s (%s) cannot hold %T", types.ErrTypeMismatch, md.Name, md.Kind, v)
	}
	switch md.Kind {
	case types.KindText, types.KindEnum:
		switch s := v.(type) {
		case nil:
			return "", nil
		case string:
			return s, nil
		}
		return nil, mismatch()

	case types.KindNumber:
		var n float64
		switch x := v.(type) {
		case nil:
			return float64(0), nil
		case float64:
			n = x
		case float32:
			n = float64(x)
		case int:
			n = float64(x)
		case int64:
			n = float64(x)
		case int32:
			n = float64(x)
		case string:
			if strings.TrimSpace(x) == "" {
				return float64(0), nil
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %q is not a number", types.ErrTypeMismatch, md.Name, x)
			}
			n = f
		default:
			return nil, mismatch()
		}
		if md.Integer && n != float64(int64(n)) {
			return nil, fmt.Errorf("%w: %s must be a whole number", types.ErrTypeMismatch, md.Name)
		}
		return n, nil

	case types.KindBoolean:
		switch x := v.(type) {
		case nil:
			return false, nil
		case bool:
			return x, nil
		case string:
			if x == "" {
				return false, nil
			}
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %q is not a boolean", types.ErrTypeMismatch, md.Name, x)
			}
			return b, nil
		}
		return nil, mismatch()

	case types.KindDate:
		switch x := v.(type) {
		case nil:
			return nil, nil
		case time.Time:
			if x.IsZero() {
				return nil, nil
			}
			return x, nil
		case *time.Time:
			if x == nil || x.IsZero() {
				return nil, nil
			}
			return *x, nil
		case string:
			if x == "" {
				return nil, nil
			}
			t, err := time.Parse(types.DateLayout, x)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %q is not a date (%s)", types.ErrTypeMismatch, md.Name, x, types.DateLayout)
			}
			return t, nil
		}
		return nil, mismatch()

	case types.KindReference:
		return v, nil

	case types.KindCollection:
		switch x := v.(type) {
		case nil:
			return nil, nil
		case []any:
			return append(make([]any, 0, len(x)), x...), nil
		}
		return nil, mismatch()
	}
	return nil, types.ErrInvalidKind
}

// IsEmpty reports whether v is the empty widget value of its kind.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case bool:
		return !x
	case time.Time:
		return x.IsZero()
	case []any:
		return len(x) == 0
	}
	return false
}

// humanize turns a property name like "startDate" into "Start date".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
		case r == '_':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
