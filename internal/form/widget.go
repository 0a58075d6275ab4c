package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// WidgetKind names the input control chosen for a field.
type WidgetKind string

// Widget kinds.
const (
	TextInput   WidgetKind = "text_input"
	TextArea    WidgetKind = "text_area"
	NumberInput WidgetKind = "number_input"
	Toggle      WidgetKind = "toggle"
	DatePicker  WidgetKind = "date_picker"
	Select      WidgetKind = "select"
	MultiSelect WidgetKind = "multi_select"
)

// TextAreaThreshold is the max length from which text fields get a
// multi-line editor.
const TextAreaThreshold = 2000

// WidgetFor maps a field kind to its widget kind. maxLength is the effective
// max length after line overrides.
func WidgetFor(kind types.FieldKind, maxLength int) WidgetKind {
	switch kind {
	case types.KindText:
		if maxLength >= TextAreaThreshold {
			return TextArea
		}
		return TextInput
	case types.KindNumber:
		return NumberInput
	case types.KindBoolean:
		return Toggle
	case types.KindDate:
		return DatePicker
	case types.KindEnum, types.KindReference:
		return Select
	case types.KindCollection:
		return MultiSelect
	}
	return TextInput
}

// Component is anything a surface can hold.
type Component interface {
	Key() string
}

// Choice is one selectable option of a select or multi-select widget.
type Choice struct {
	Label string
	Value any
}

// Widget is a bound input control. Its value is kept in the widget form of
// the field kind (see meta.Field).
type Widget struct {
	Path           string
	Kind           WidgetKind
	Caption        string
	Description    string
	CaptionVisible bool
	Required       bool
	ReadOnly       bool
	Hidden         bool
	MaxLength      int
	Default        string
	Provider       string
	Options        []Choice
	OptionsErr     error // set when the data provider degraded
	Meta           types.FieldMetadata

	binding *meta.Resolved
	value   any
}

func newWidget(line types.Line, res *meta.Resolved) *Widget {
	md := res.Meta
	w := &Widget{
		Path:           res.Path,
		Caption:        md.DisplayName,
		Description:    md.Description,
		CaptionVisible: line.CaptionVisible,
		Required:       line.Required,
		ReadOnly:       line.ReadOnly,
		Hidden:         line.Hidden,
		MaxLength:      md.MaxLength,
		Default:        md.DefaultValue,
		Meta:           md,
		binding:        res,
	}
	if line.Caption != "" {
		w.Caption = line.Caption
	}
	if line.Description != "" {
		w.Description = line.Description
	}
	if line.MaxLength > 0 {
		w.MaxLength = line.MaxLength
	}
	if line.DefaultValue != "" {
		w.Default = line.DefaultValue
	}
	w.Kind = WidgetFor(md.Kind, w.MaxLength)
	w.value, _ = types.DefaultValue(md.Kind)
	return w
}

// Key returns the bound property path.
func (w *Widget) Key() string { return w.Path }

// Binding returns the resolved property the widget reads and writes.
func (w *Widget) Binding() *meta.Resolved { return w.binding }

// Visible reports whether the widget is shown on the surface.
func (w *Widget) Visible() bool { return !w.Hidden }

// Value returns the current widget value.
func (w *Widget) Value() any { return w.value }

// SetValue is a user edit. Read-only widgets reject it with ErrReadOnly.
func (w *Widget) SetValue(v any) error {
	if w.ReadOnly {
		return fmt.Errorf("%w: %s", types.ErrReadOnly, w.Path)
	}
	return w.Assign(v)
}

// Assign sets the value programmatically, bypassing the read-only flag.
// Read-only widgets are still never flushed.
func (w *Widget) Assign(v any) error {
	c, err := w.coerce(v)
	if err != nil {
		return err
	}
	w.value = c
	return nil
}

// coerce converts v to the widget form without changing the widget.
func (w *Widget) coerce(v any) (any, error) {
	if w.binding == nil {
		return meta.Coerce(w.Meta, v)
	}
	return w.binding.Coerce(v)
}

// Choose selects options by label. A select takes exactly one label, or
// none to clear; a multi-select takes any number.
func (w *Widget) Choose(labels ...string) error {
	if w.Kind != Select && w.Kind != MultiSelect {
		return fmt.Errorf("%w: %s is not selectable", types.ErrTypeMismatch, w.Path)
	}
	picked := make([]any, 0, len(labels))
	for _, l := range labels {
		c, ok := w.option(l)
		if !ok {
			return fmt.Errorf("%w: %s has no option %q", types.ErrNotFound, w.Path, l)
		}
		picked = append(picked, c.Value)
	}
	if w.Kind == MultiSelect {
		return w.SetValue(picked)
	}
	switch len(picked) {
	case 0:
		return w.SetValue(nil)
	case 1:
		return w.SetValue(picked[0])
	}
	return fmt.Errorf("%w: %s takes a single option", types.ErrTypeMismatch, w.Path)
}

func (w *Widget) option(label string) (Choice, bool) {
	for _, c := range w.Options {
		if c.Label == label {
			return c, true
		}
	}
	return Choice{}, false
}

// Display renders the value as text.
func (w *Widget) Display() string {
	return display(w.value)
}

func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case time.Time:
		return x.Format(types.DateLayout)
	case []any:
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = display(it)
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
