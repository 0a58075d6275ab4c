package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// screenDoc is the YAML form of a screen definition.
type screenDoc struct {
	Name   string    `yaml:"name,omitempty"`
	Entity string    `yaml:"entity,omitempty"`
	Title  string    `yaml:"title,omitempty"`
	Active *bool     `yaml:"active,omitempty"`
	Lines  []lineDoc `yaml:"lines,omitempty"`
}

// lineDoc is the YAML form of a line. A line with section opens a section
// (and manages the collection named by relation, if any); a line with
// relation and field binds a property of the related type; a line with only
// field binds a property of the screen's own type.
type lineDoc struct {
	Order          int    `yaml:"order,omitempty"`
	Section        string `yaml:"section,omitempty"`
	Relation       string `yaml:"relation,omitempty"`
	Field          string `yaml:"field,omitempty"`
	Component      string `yaml:"component,omitempty"`
	Caption        string `yaml:"caption,omitempty"`
	Description    string `yaml:"description,omitempty"`
	Required       bool   `yaml:"required,omitempty"`
	ReadOnly       bool   `yaml:"readonly,omitempty"`
	Hidden         bool   `yaml:"hidden,omitempty"`
	CaptionVisible *bool  `yaml:"caption_visible,omitempty"`
	Default        string `yaml:"default,omitempty"`
	MaxLength      int    `yaml:"max_length,omitempty"`
	Provider       string `yaml:"provider,omitempty"`
}

type fileDoc struct {
	Screens   []screenDoc `yaml:"screens,omitempty"`
	screenDoc `yaml:",inline"`
}

// DecodeScreens reads one screen or a "screens:" list from r. Lines without
// explicit orders are numbered 10, 20, 30... in file order. Every decoded
// definition is validated.
func DecodeScreens(r io.Reader) ([]*types.ScreenDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	docs := doc.Screens
	if doc.Name != "" || doc.Entity != "" || len(doc.Lines) > 0 {
		docs = append(docs, doc.screenDoc)
	}

	out := make([]*types.ScreenDefinition, 0, len(docs))
	for _, d := range docs {
		def, err := d.toScreen()
		if err != nil {
			return nil, err
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func (d screenDoc) toScreen() (*types.ScreenDefinition, error) {
	def := &types.ScreenDefinition{
		Name:       d.Name,
		EntityType: d.Entity,
		Title:      d.Title,
		Active:     d.Active == nil || *d.Active,
	}
	if def.Title == "" {
		def.Title = d.Name
	}
	numbered := true
	for i, ld := range d.Lines {
		l, err := ld.toLine()
		if err != nil {
			return nil, &types.ConfigurationError{Screen: d.Name, Order: ld.Order,
				Reason: fmt.Sprintf("line %d: %v", i+1, err)}
		}
		if l.Order == 0 {
			numbered = false
		}
		def.Lines = append(def.Lines, l)
	}
	if !numbered {
		def.Renumber()
	}
	return def, nil
}

func (ld lineDoc) toLine() (types.Line, error) {
	var l types.Line
	switch {
	case ld.Section != "":
		if ld.Field != "" || ld.Component != "" {
			return l, errors.New("a section line cannot also name a field or component")
		}
		l = types.SectionMarker(ld.Section, ld.Caption, ld.Relation)
	case ld.Relation != "":
		l = types.RelationField(ld.Relation, ld.Field)
	case ld.Field != "" || ld.Component != "":
		l = types.OwnField(ld.Field)
		l.Component = ld.Component
	default:
		return l, errors.New("line needs section, field, or component")
	}
	l.Order = ld.Order
	l.Caption = ld.Caption
	l.Description = ld.Description
	l.Required = ld.Required
	l.ReadOnly = ld.ReadOnly
	l.Hidden = ld.Hidden
	if ld.CaptionVisible != nil {
		l.CaptionVisible = *ld.CaptionVisible
	}
	l.DefaultValue = ld.Default
	l.MaxLength = ld.MaxLength
	l.DataProvider = ld.Provider
	return l, nil
}

// EncodeScreens writes defs as a "screens:" YAML document that
// DecodeScreens reads back.
func EncodeScreens(w io.Writer, defs []*types.ScreenDefinition) error {
	doc := fileDoc{}
	for _, def := range defs {
		active := def.Active
		sd := screenDoc{Name: def.Name, Entity: def.EntityType, Title: def.Title, Active: &active}
		for _, l := range def.Lines {
			sd.Lines = append(sd.Lines, fromTypesLine(l))
		}
		doc.Screens = append(doc.Screens, sd)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func fromTypesLine(l types.Line) lineDoc {
	ld := lineDoc{
		Order:       l.Order,
		Caption:     l.Caption,
		Description: l.Description,
		Required:    l.Required,
		ReadOnly:    l.ReadOnly,
		Hidden:      l.Hidden,
		Default:     l.DefaultValue,
		MaxLength:   l.MaxLength,
		Provider:    l.DataProvider,
		Component:   l.Component,
	}
	if !l.CaptionVisible {
		hidden := false
		ld.CaptionVisible = &hidden
	}
	switch l.Target {
	case types.TargetSection:
		ld.Section = l.SectionName
		ld.Relation = l.RelationField
	case types.TargetRelation:
		ld.Relation = l.RelationField
		ld.Field = l.Property
	default:
		ld.Field = l.Property
	}
	return ld
}

// ImportScreens stores defs, replacing screens that already exist under the
// same name. The stored definitions are returned in input order.
func ImportScreens(ctx context.Context, store *ScreenStore, defs []*types.ScreenDefinition) ([]*types.ScreenDefinition, error) {
	for _, def := range defs {
		existing, err := store.FindScreen(ctx, def.Name)
		switch {
		case err == nil:
			def.ScreenID = existing.ScreenID
			def.CreatedAt = existing.CreatedAt
		case errors.Is(err, types.ErrNotFound):
		default:
			return nil, err
		}
		if err := store.SaveScreen(ctx, def); err != nil {
			return nil, fmt.Errorf("importing screen %q: %w", def.Name, err)
		}
	}
	return defs, nil
}
