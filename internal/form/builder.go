// Package form interprets screen definitions into bound editing surfaces.
//
// A Builder walks the ordered lines of a definition once. Section markers
// open SectionPanels, which are placed on the surface directly or inside a
// TabContainer depending on the layout chosen for that build. Field lines are
// resolved against the metadata registry, turned into widgets, and bound to
// the binder. A Page then runs the populate and save cycle over the result.
package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// Layout selects how sections are placed on the surface.
type Layout string

// Layouts.
const (
	LayoutTabs    Layout = "tabs"
	LayoutStacked Layout = "stacked"
)

// ParseLayout accepts "tabs" or "stacked"; empty means stacked.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutStacked:
		return LayoutStacked, nil
	case LayoutTabs:
		return LayoutTabs, nil
	}
	return "", fmt.Errorf("%w: unknown layout %q", types.ErrInvalidData, s)
}

// LayoutPreference supplies the layout. It is consulted once per build.
type LayoutPreference interface {
	Layout() Layout
}

// FixedLayout is a LayoutPreference that never changes.
type FixedLayout Layout

func (l FixedLayout) Layout() Layout { return Layout(l) }

// ComponentFactory builds a custom component for a line that names it.
type ComponentFactory func(line types.Line) (Component, error)

// Builder turns screen definitions into forms. It holds only shared,
// read-mostly collaborators; every Build gets fresh state.
type Builder struct {
	registry  *meta.Registry
	providers *Providers
	layout    LayoutPreference
	factories map[string]ComponentFactory
	repos     map[string]types.Repository
	log       *logrus.Entry
}

// Option configures a Builder.
type Option func(*Builder)

// WithLayout sets the layout preference. The default is stacked.
func WithLayout(p LayoutPreference) Option { return func(b *Builder) { b.layout = p } }

// WithComponent registers a custom component factory.
func WithComponent(name string, f ComponentFactory) Option {
	return func(b *Builder) { b.factories[name] = f }
}

// WithRepository gives relation panels over entityType a repository to
// persist committed drafts.
func WithRepository(entityType string, repo types.Repository) Option {
	return func(b *Builder) { b.repos[entityType] = repo }
}

// WithLogger sets the log entry.
func WithLogger(log *logrus.Entry) Option { return func(b *Builder) { b.log = log } }

// NewBuilder returns a builder resolving fields against reg. providers may be
// nil, in which case every selectable field gets static or empty options.
func NewBuilder(reg *meta.Registry, providers *Providers, opts ...Option) *Builder {
	b := &Builder{
		registry:  reg,
		providers: providers,
		layout:    FixedLayout(LayoutStacked),
		factories: make(map[string]ComponentFactory),
		repos:     make(map[string]types.Repository),
	}
	for _, o := range opts {
		o(b)
	}
	if b.log == nil {
		b.log = logging.Component(nil, "builder")
	}
	if b.providers == nil {
		b.providers = NewProviders(0, b.log)
	}
	return b
}

// Form is the result of one build.
type Form struct {
	Screen     *types.ScreenDefinition
	Layout     Layout
	Surface    Surface
	Tabs       *TabContainer // nil for stacked layouts or screens without sections
	Sections   []*SectionPanel
	Components *Components
	Binder     Binder
}

// Widgets returns every bound widget in build order.
func (f *Form) Widgets() []*Widget { return f.Components.Widgets() }

// build is the state of one Build call.
type build struct {
	*Builder
	def    *types.ScreenDefinition
	binder Binder
	comps  *Components
	errs   []error
	log    *logrus.Entry
}

// Build interprets def onto surface, binding widgets into binder. A nil
// binder gets a FieldBinder for the screen's entity type; a nil surface gets
// a Stack.
//
// Configuration errors do not stop the build. Each is logged and the joined
// errors are returned with the form; sections built so far stay valid.
func (b *Builder) Build(ctx context.Context, def *types.ScreenDefinition, binder Binder, surface Surface) (*Form, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil screen definition", types.ErrInvalidData)
	}
	if _, ok := b.registry.Schema(def.EntityType); !ok {
		err := &types.ConfigurationError{Screen: def.Name,
			Reason: fmt.Sprintf("unknown entity type %q", def.EntityType)}
		b.log.WithError(err).Warn("screen not built")
		return nil, err
	}
	if binder == nil {
		binder = NewBinder(def.EntityType)
	}
	if surface == nil {
		surface = NewStack()
	}

	st := &build{
		Builder: b,
		def:     def,
		binder:  binder,
		comps:   newComponents(),
		log:     b.log.WithField("screen", def.Name),
	}
	f := &Form{
		Screen:     def,
		Layout:     b.layout.Layout(),
		Surface:    surface,
		Components: st.comps,
		Binder:     binder,
	}

	var current *SectionPanel
	for _, line := range def.Lines {
		if line.IsSection() {
			current = st.openSection(line)
			f.Sections = append(f.Sections, current)
			if f.Layout == LayoutTabs {
				if f.Tabs == nil {
					f.Tabs = &TabContainer{}
					surface.Add(f.Tabs)
				}
				f.Tabs.Add(current)
			} else {
				surface.Add(current)
			}
			continue
		}
		if current == nil {
			st.fail(line, "", &types.ConfigurationError{Property: line.PropertyPath(),
				Reason: "field line with no enclosing section"})
			continue
		}
		if err := current.processLine(ctx, line); err != nil {
			st.fail(line, current.Name, err)
		}
	}

	st.log.WithFields(logrus.Fields{
		"sections": len(f.Sections),
		"widgets":  len(st.comps.order),
		"layout":   f.Layout,
		"errors":   len(st.errs),
	}).Debug("screen built")
	return f, errors.Join(st.errs...)
}

func (st *build) openSection(line types.Line) *SectionPanel {
	s := &SectionPanel{
		Name:           line.SectionName,
		Caption:        line.Caption,
		CaptionVisible: line.CaptionVisible,
		build:          st,
	}
	if s.Caption == "" {
		s.Caption = s.Name
	}
	if !st.comps.addSection(s) {
		st.fail(line, s.Name, &types.ConfigurationError{Reason: "duplicate section name"})
	}
	if line.RelationField != "" {
		if err := st.attachRelation(s, line.RelationField); err != nil {
			st.fail(line, s.Name, err)
		}
	}
	return s
}

func (st *build) attachRelation(s *SectionPanel, relation string) error {
	res, err := st.registry.ResolvePath(st.def.EntityType, relation)
	if err != nil {
		return err
	}
	if res.Meta.Kind != types.KindCollection || res.Nested() {
		return &types.ConfigurationError{Property: relation, Reason: "relation section needs a collection"}
	}
	schema, ok := st.registry.Schema(res.Meta.RelatedType)
	if !ok {
		return &types.ConfigurationError{Property: relation,
			Reason: fmt.Sprintf("related type %q is not registered", res.Meta.RelatedType)}
	}
	rp := newRelationPanel(st.registry, res, schema, st.repos[schema.Name()])
	comps := st.comps
	rp.onChange = func(owner any) {
		if w, ok := comps.Widget(res.Path); ok {
			_ = w.Assign(res.Get(owner))
		}
	}
	s.relation = rp
	return nil
}

// loadOptions fills a selectable widget. A provider named on the line wins,
// then the metadata's provider, then the default provider of the related
// type. Enums without a provider list their declared values. "none" on the
// line disables providers.
func (st *build) loadOptions(ctx context.Context, w *Widget, line types.Line) {
	name := ""
	switch {
	case line.DataProvider == types.NoProvider:
	case line.HasProvider():
		name = line.DataProvider
	case w.Meta.DataProvider != "":
		name = w.Meta.DataProvider
	case w.Meta.RelatedType != "":
		name, _ = st.providers.DefaultFor(w.Meta.RelatedType)
	}
	w.Provider = name

	if name == "" {
		for _, o := range w.Meta.Options {
			w.Options = append(w.Options, Choice{Label: o, Value: o})
		}
		if w.Meta.Kind.IsRelation() {
			st.log.WithField("property", w.Path).Warn("no data provider for relation field")
		}
		return
	}
	opts, err := st.providers.Options(ctx, name)
	w.Options = opts
	w.OptionsErr = err
}

// fail decorates err with the screen, section, and line it came from, logs
// it, and records it.
func (st *build) fail(line types.Line, section string, err error) {
	var cfg *types.ConfigurationError
	if errors.As(err, &cfg) {
		c := *cfg
		if c.Screen == "" {
			c.Screen = st.def.Name
		}
		if c.Section == "" {
			c.Section = section
		}
		if c.Order == 0 {
			c.Order = line.Order
		}
		err = &c
	}
	st.log.WithError(err).Warn("screen configuration error")
	st.errs = append(st.errs, err)
}
