package types

import (
	"fmt"
	"time"
)

// LineTarget says what a screen line describes. It replaces the sentinel
// relation names of older definitions with a closed set.
type LineTarget string

// Line targets.
const (
	// TargetSection marks a line that opens a new section.
	TargetSection LineTarget = "section"
	// TargetOwnFields binds a property of the screen's own entity type.
	TargetOwnFields LineTarget = "own"
	// TargetRelation binds a property of the type behind RelationField.
	TargetRelation LineTarget = "relation"
)

// IsValid reports whether t is a recognized line target.
func (t LineTarget) IsValid() bool {
	switch t {
	case TargetSection, TargetOwnFields, TargetRelation:
		return true
	}
	return false
}

// Line order and length bounds.
const (
	MinLineOrder = 1
	MaxLineOrder = 999
	MaxMaxLength = 10000
)

// Data provider names that mean "no provider".
const (
	NoProvider = "none"
)

// Line is one row of a screen definition: a section marker or a field line.
type Line struct {
	LineID         string     `json:"line_id"`
	ScreenID       string     `json:"screen_id"`
	Order          int        `json:"order"`
	Target         LineTarget `json:"target"`
	RelationField  string     `json:"relation_field,omitempty"`
	Property       string     `json:"property,omitempty"`
	SectionName    string     `json:"section_name,omitempty"`
	Caption        string     `json:"caption,omitempty"`
	Description    string     `json:"description,omitempty"`
	Required       bool       `json:"required,omitempty"`
	ReadOnly       bool       `json:"readonly,omitempty"`
	Hidden         bool       `json:"hidden,omitempty"`
	CaptionVisible bool       `json:"caption_visible"`
	DefaultValue   string     `json:"default_value,omitempty"`
	MaxLength      int        `json:"max_length,omitempty"`
	DataProvider   string     `json:"data_provider,omitempty"`
	Component      string     `json:"component,omitempty"`
}

// SectionMarker returns a line that opens a section. A non-empty relation
// names a collection on the screen's entity whose items the section manages.
func SectionMarker(name, caption, relation string) Line {
	return Line{
		Target:         TargetSection,
		SectionName:    name,
		Caption:        caption,
		RelationField:  relation,
		CaptionVisible: true,
	}
}

// OwnField returns a field line bound to a property of the screen's entity.
func OwnField(property string) Line {
	return Line{Target: TargetOwnFields, Property: property, CaptionVisible: true}
}

// RelationField returns a field line bound to a property of the entity
// referenced by relation.
func RelationField(relation, property string) Line {
	return Line{Target: TargetRelation, RelationField: relation, Property: property, CaptionVisible: true}
}

// IsSection reports whether the line opens a section.
func (l Line) IsSection() bool {
	return l.Target == TargetSection
}

// PropertyPath returns the binding path of a field line: the property name,
// or relation.property for lines targeting a related type.
func (l Line) PropertyPath() string {
	if l.Target == TargetRelation && l.RelationField != "" {
		return l.RelationField + "." + l.Property
	}
	return l.Property
}

// HasProvider reports whether the line declares a data provider.
func (l Line) HasProvider() bool {
	return l.DataProvider != "" && l.DataProvider != NoProvider
}

// ScreenDefinition is the persisted description of one detail view for one
// entity type. Lines are kept in rendering order.
type ScreenDefinition struct {
	ScreenID   string    `json:"screen_id"`
	EntityType string    `json:"entity_type"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	Lines      []Line    `json:"lines"`
}

// Validate checks the structural invariants of a definition: a name and
// entity type, known line targets, orders within bounds that are unique and
// strictly increasing, and bounded max lengths. It does not resolve
// properties; that happens when the screen is built.
func (s *ScreenDefinition) Validate() error {
	if s.Name == "" {
		return ErrInvalidName
	}
	if s.EntityType == "" {
		return &ConfigurationError{Screen: s.Name, Reason: "entity type is empty"}
	}
	prev := 0
	for i, l := range s.Lines {
		if !l.Target.IsValid() {
			return &ConfigurationError{Screen: s.Name, Order: l.Order,
				Reason: fmt.Sprintf("line %d has unknown target %q", i, l.Target)}
		}
		if l.Order < MinLineOrder || l.Order > MaxLineOrder {
			return &ConfigurationError{Screen: s.Name, Order: l.Order,
				Reason: fmt.Sprintf("line order must be between %d and %d", MinLineOrder, MaxLineOrder)}
		}
		if l.Order <= prev {
			return &ConfigurationError{Screen: s.Name, Order: l.Order,
				Reason: fmt.Sprintf("line order %d does not follow %d", l.Order, prev)}
		}
		prev = l.Order
		if l.MaxLength < 0 || l.MaxLength > MaxMaxLength {
			return &ConfigurationError{Screen: s.Name, Order: l.Order, Property: l.PropertyPath(),
				Reason: fmt.Sprintf("max length must be between 0 and %d", MaxMaxLength)}
		}
		switch l.Target {
		case TargetSection:
			if l.SectionName == "" {
				return &ConfigurationError{Screen: s.Name, Order: l.Order, Reason: "section marker has no name"}
			}
		case TargetOwnFields:
			if l.Property == "" && l.Component == "" {
				return &ConfigurationError{Screen: s.Name, Order: l.Order, Reason: "field line has no property"}
			}
		case TargetRelation:
			if l.RelationField == "" || l.Property == "" {
				return &ConfigurationError{Screen: s.Name, Order: l.Order, Property: l.PropertyPath(),
					Reason: "relation line needs both relation and property"}
			}
		}
	}
	return nil
}

// Renumber assigns orders 10, 20, 30... in the current slice order, falling
// back to a step of 1 when the lines would not fit under MaxLineOrder. It is
// used after inserting or moving lines so orders stay unique and monotonic.
func (s *ScreenDefinition) Renumber() {
	step := 10
	if len(s.Lines)*step > MaxLineOrder {
		step = 1
	}
	for i := range s.Lines {
		s.Lines[i].Order = (i + 1) * step
	}
}

// Sections returns the section names in order.
func (s *ScreenDefinition) Sections() []string {
	var out []string
	for _, l := range s.Lines {
		if l.IsSection() {
			out = append(out, l.SectionName)
		}
	}
	return out
}
