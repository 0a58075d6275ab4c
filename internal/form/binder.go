package form

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// Result is the outcome of validating every bound widget.
type Result struct {
	Errors []types.FieldError
}

// OK reports whether validation passed.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Err returns a *types.ValidationError, or nil when validation passed.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &types.ValidationError{Fields: r.Errors}
}

// Binder moves values between an entity and the widgets bound to it.
type Binder interface {
	// Bind adds a widget. The widget must carry a resolved binding.
	Bind(w *Widget) error
	// ReadBean pushes entity state into every bound widget.
	ReadBean(entity any) error
	// WriteBean validates and then writes every editable widget into
	// entity. Read-only widgets are skipped.
	WriteBean(entity any) error
	// Validate checks the current widget values without writing them.
	Validate() Result
}

var _ Binder = (*FieldBinder)(nil)

// FieldBinder is the Binder used by the builder. It validates with
// go-playground/validator using tags derived from each widget.
type FieldBinder struct {
	entityType string
	widgets    []*Widget
	validate   *validator.Validate
}

// NewBinder returns an empty binder for entityType.
func NewBinder(entityType string) *FieldBinder {
	return &FieldBinder{entityType: entityType, validate: validator.New()}
}

// EntityType returns the root entity type the binder serves.
func (b *FieldBinder) EntityType() string { return b.entityType }

func (b *FieldBinder) Bind(w *Widget) error {
	if w == nil || w.binding == nil {
		return fmt.Errorf("%w: widget has no binding", types.ErrInvalidData)
	}
	if w.binding.EntityType != b.entityType {
		return fmt.Errorf("%w: %s is bound to %s, binder serves %s",
			types.ErrTypeMismatch, w.Path, w.binding.EntityType, b.entityType)
	}
	b.widgets = append(b.widgets, w)
	return nil
}

// ReadBean reads every widget from entity. A nil entity clears the widgets.
// Default values fill empty fields of entities that were never saved. Values
// are converted before any widget changes, so a failed read leaves every
// widget as it was.
func (b *FieldBinder) ReadBean(entity any) error {
	return readWidgets(b.widgets, entity)
}

func readWidgets(ws []*Widget, entity any) error {
	values := make([]any, len(ws))
	for i, w := range ws {
		v, err := readValue(w, entity)
		if err != nil {
			return err
		}
		values[i] = v
	}
	for i, w := range ws {
		w.value = values[i]
	}
	return nil
}

func readValue(w *Widget, entity any) (any, error) {
	var v any
	if entity == nil {
		v, _ = types.DefaultValue(w.Meta.Kind)
	} else {
		v = w.binding.Get(entity)
		if w.Default != "" && isNew(entity) && meta.IsEmpty(v) && !w.Meta.Kind.IsRelation() {
			v = w.Default
		}
	}
	c, err := w.coerce(v)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", w.Path, err)
	}
	return c, nil
}

func isNew(entity any) bool {
	e, ok := entity.(types.Entity)
	return ok && e.RecordMeta().IsNew()
}

// WriteBean flushes widget values into entity after validation. Root
// properties are written before relation paths so a newly chosen reference
// receives the nested edits. entity may be partially written when an error
// is returned; callers flush into a copy.
func (b *FieldBinder) WriteBean(entity any) error {
	if entity == nil {
		return types.ErrNoCurrentEntity
	}
	if err := b.Validate().Err(); err != nil {
		return err
	}
	ordered := make([]*Widget, 0, len(b.widgets))
	for _, w := range b.widgets {
		if !w.ReadOnly {
			ordered = append(ordered, w)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].binding.Nested() && ordered[j].binding.Nested()
	})
	for _, w := range ordered {
		if err := w.binding.Set(entity, w.value); err != nil {
			return fmt.Errorf("write %s: %w", w.Path, err)
		}
	}
	return nil
}

// Validate checks every visible, editable widget.
func (b *FieldBinder) Validate() Result {
	var res Result
	for _, w := range b.widgets {
		if w.ReadOnly || w.Hidden {
			continue
		}
		if msg := b.check(w); msg != "" {
			res.Errors = append(res.Errors, types.FieldError{Path: w.Path, Message: msg})
		}
	}
	return res
}

func (b *FieldBinder) check(w *Widget) string {
	if blank(w.value) {
		if w.Required && w.Kind != Toggle {
			return "is required"
		}
		return ""
	}
	tags := ruleTags(w)
	if tags == "" {
		return ""
	}
	err := b.validate.Var(w.value, tags)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return message(verrs[0])
	}
	return err.Error()
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	}
	return false
}

func ruleTags(w *Widget) string {
	var tags []string
	switch w.Meta.Kind {
	case types.KindText:
		if w.MaxLength > 0 {
			tags = append(tags, "max="+strconv.Itoa(w.MaxLength))
		}
	case types.KindEnum:
		if len(w.Meta.Options) > 0 {
			tags = append(tags, "oneof="+strings.Join(w.Meta.Options, " "))
		}
	}
	if w.Meta.Rules != "" {
		tags = append(tags, w.Meta.Rules)
	}
	return strings.Join(tags, ",")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	}
	return "failed " + fe.Tag() + " check"
}
