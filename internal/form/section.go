package form

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// SectionPanel owns the fields of one section. A section that manages a
// relation also carries a RelationPanel.
type SectionPanel struct {
	Name           string
	Caption        string
	CaptionVisible bool

	widgets    []*Widget
	components []Component
	relation   *RelationPanel
	build      *build
}

// Key returns the section name.
func (s *SectionPanel) Key() string { return s.Name }

// processLine builds the widget or custom component of one field line and
// appends it to the section.
func (s *SectionPanel) processLine(ctx context.Context, line types.Line) error {
	st := s.build
	if line.Component != "" {
		return s.addCustom(line)
	}

	res, err := st.registry.Resolve(st.def.EntityType, line)
	if err != nil {
		return err
	}
	if res == nil {
		return &types.ConfigurationError{Order: line.Order, Reason: "section marker inside a field position"}
	}

	if _, taken := st.comps.Widget(res.Path); taken {
		return &types.ConfigurationError{Order: line.Order, Property: res.Path,
			Reason: "property is bound more than once; the first line keeps it"}
	}
	w := newWidget(line, res)
	if w.Kind == Select || w.Kind == MultiSelect {
		st.loadOptions(ctx, w, line)
	}
	if err := st.binder.Bind(w); err != nil {
		return &types.ConfigurationError{Order: line.Order, Property: w.Path, Reason: "cannot bind", Err: err}
	}
	st.comps.addWidget(w)
	s.widgets = append(s.widgets, w)
	s.components = append(s.components, w)
	return nil
}

func (s *SectionPanel) addCustom(line types.Line) error {
	st := s.build
	f, ok := st.factories[line.Component]
	if !ok {
		return &types.ConfigurationError{Order: line.Order, Property: line.Component,
			Reason: fmt.Sprintf("unknown component %q", line.Component)}
	}
	c, err := f(line)
	if err != nil {
		return &types.ConfigurationError{Order: line.Order, Property: line.Component,
			Reason: "component factory failed", Err: err}
	}
	if !st.comps.addCustom(c) {
		return &types.ConfigurationError{Order: line.Order, Property: c.Key(),
			Reason: fmt.Sprintf("component key %q is used more than once; the first line keeps it", c.Key())}
	}
	s.components = append(s.components, c)
	return nil
}

// Populate pushes entity state into the section's widgets and reloads its
// relation list.
func (s *SectionPanel) Populate(entity any) error {
	if err := readWidgets(s.widgets, entity); err != nil {
		return err
	}
	if s.relation != nil {
		s.relation.Load(entity)
	}
	return nil
}

// Widgets returns every bound widget, hidden ones included.
func (s *SectionPanel) Widgets() []*Widget { return append([]*Widget(nil), s.widgets...) }

// Children returns what the surface shows: visible widgets, custom
// components, and the relation panel last.
func (s *SectionPanel) Children() []Component {
	out := make([]Component, 0, len(s.components)+1)
	for _, c := range s.components {
		if w, ok := c.(*Widget); ok && !w.Visible() {
			continue
		}
		out = append(out, c)
	}
	if s.relation != nil {
		out = append(out, s.relation)
	}
	return out
}

// Relation returns the relation panel, or nil for a plain section.
func (s *SectionPanel) Relation() *RelationPanel { return s.relation }
