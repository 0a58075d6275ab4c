package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

func paths(ws []*Widget) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Path
	}
	return out
}

func TestBuildSectionTopology(t *testing.T) {
	def := screen(types.TypeProject,
		section("Basic"), field("name"), field("description"), field("status"),
		section("Planning"), field("budget"), field("startDate"),
		section("People"), field("owner"), field("members"), types.RelationField("owner", "email"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)

	require.Len(t, f.Sections, 3)
	assert.Equal(t, []string{"name", "description", "status"}, paths(f.Sections[0].Widgets()))
	assert.Equal(t, []string{"budget", "startDate"}, paths(f.Sections[1].Widgets()))
	assert.Equal(t, []string{"owner", "members", "owner.email"}, paths(f.Sections[2].Widgets()))
	assert.Len(t, f.Widgets(), 8)

	stack := f.Surface.(*Stack)
	require.Len(t, stack.Items(), 3)
	for i, c := range stack.Items() {
		assert.Same(t, f.Sections[i], c)
	}
}

func TestBuildBasicOwnerScenario(t *testing.T) {
	def := screen(types.TypeProject,
		section("Basic"), field("name"), field("description"),
		section("Owner"), field("owner.email"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)

	entity := &types.Project{Record: types.Record{ID: "p1"}, Name: "Acme", Owner: &types.User{Email: "a@b.com"}}
	require.NoError(t, f.Binder.ReadBean(entity))

	require.Len(t, f.Sections, 2)
	owner := f.Sections[1]
	assert.Equal(t, "Owner", owner.Name)
	require.Len(t, owner.Widgets(), 1)
	w := owner.Widgets()[0]
	assert.Equal(t, "owner.email", w.Path)
	assert.Equal(t, "a@b.com", w.Value())

	byPath, ok := f.Components.Widget("owner.email")
	require.True(t, ok)
	assert.Same(t, w, byPath)
	name, _ := f.Components.Widget("name")
	assert.Equal(t, "Acme", name.Value())
	desc, _ := f.Components.Widget("description")
	assert.Equal(t, "", desc.Value())
}

func TestBuildUnresolvablePropertyKeepsEarlierSections(t *testing.T) {
	def := screen(types.TypeProject,
		section("Basic"), field("name"),
		section("Extra"), field("totallyBogus"), field("budget"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrConfiguration)

	var cfg *types.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "totallyBogus", cfg.Property)
	assert.Equal(t, "Extra", cfg.Section)
	assert.Equal(t, "test", cfg.Screen)
	assert.Equal(t, 40, cfg.Order)
	assert.Contains(t, err.Error(), "totallyBogus")

	require.NotNil(t, f)
	require.Len(t, f.Sections, 2)
	assert.Equal(t, []string{"name"}, paths(f.Sections[0].Widgets()))
	assert.Equal(t, []string{"budget"}, paths(f.Sections[1].Widgets()))
}

func TestBuildFieldLineWithoutSection(t *testing.T) {
	def := screen(types.TypeProject,
		field("name"),
		section("Basic"), field("description"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "no enclosing section")

	require.Len(t, f.Sections, 1)
	assert.Equal(t, []string{"description"}, paths(f.Sections[0].Widgets()))
	_, ok := f.Components.Widget("name")
	assert.False(t, ok)
}

func TestBuildCollectsEveryError(t *testing.T) {
	def := screen(types.TypeProject,
		field("name"),
		section("A"), field("nope"), types.RelationField("budget", "x"),
		section("A"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "no enclosing section")
	assert.Contains(t, msg, `"nope"`)
	assert.Contains(t, msg, "not a relation")
	assert.Contains(t, msg, "duplicate section name")
	assert.Len(t, f.Sections, 2)
	first, ok := f.Components.Section("A")
	require.True(t, ok)
	assert.Same(t, f.Sections[0], first)
}

func TestBuildUnknownEntityType(t *testing.T) {
	def := screen("Invoice", section("A"), field("total"))
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = NewBuilder(meta.Domain(), nil).Build(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestWidgetFor(t *testing.T) {
	tests := []struct {
		kind      types.FieldKind
		maxLength int
		want      WidgetKind
	}{
		{types.KindText, 0, TextInput},
		{types.KindText, TextAreaThreshold - 1, TextInput},
		{types.KindText, TextAreaThreshold, TextArea},
		{types.KindNumber, 0, NumberInput},
		{types.KindBoolean, 0, Toggle},
		{types.KindDate, 0, DatePicker},
		{types.KindEnum, 0, Select},
		{types.KindReference, 0, Select},
		{types.KindCollection, 0, MultiSelect},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, WidgetFor(tt.kind, tt.maxLength))
		})
	}
}

func TestLineOverridesMetadata(t *testing.T) {
	name := field("name")
	name.Caption = "Project name"
	name.Description = "Shown on reports"
	name.Required = true
	name.MaxLength = 3000
	name.CaptionVisible = false

	status := field("status")
	status.DefaultValue = types.ProjectActive

	def := screen(types.TypeProject, section("Basic"), name, status, field("description"))
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)

	w, _ := f.Components.Widget("name")
	assert.Equal(t, "Project name", w.Caption)
	assert.Equal(t, "Shown on reports", w.Description)
	assert.True(t, w.Required)
	assert.False(t, w.CaptionVisible)
	assert.Equal(t, 3000, w.MaxLength)
	assert.Equal(t, TextArea, w.Kind)

	s, _ := f.Components.Widget("status")
	assert.Equal(t, types.ProjectActive, s.Default)
	assert.Equal(t, "Status", s.Caption)

	d, _ := f.Components.Widget("description")
	assert.Equal(t, TextArea, d.Kind)
	assert.Equal(t, 4000, d.MaxLength)
}

func TestTabsAndStackedBindTheSameFields(t *testing.T) {
	lines := func() *types.ScreenDefinition {
		return screen(types.TypeProject,
			section("Basic"), field("name"), field("budget"),
			section("Owner"), field("owner.email"),
		)
	}
	entity := &types.Project{Record: types.Record{ID: "p1"}, Name: "Acme", Budget: 10, Owner: &types.User{Email: "a@b.com"}}

	build := func(l Layout) *Form {
		f, err := NewBuilder(meta.Domain(), nil, WithLayout(FixedLayout(l))).
			Build(context.Background(), lines(), nil, nil)
		require.NoError(t, err)
		require.NoError(t, f.Binder.ReadBean(entity))
		return f
	}
	tabs := build(LayoutTabs)
	stacked := build(LayoutStacked)

	assert.Equal(t, paths(stacked.Widgets()), paths(tabs.Widgets()))
	for i, w := range stacked.Widgets() {
		assert.Equal(t, w.Value(), tabs.Widgets()[i].Value())
	}

	require.NotNil(t, tabs.Tabs)
	assert.Equal(t, []Component{tabs.Tabs}, tabs.Surface.(*Stack).Items())
	assert.Len(t, tabs.Tabs.Tabs(), 2)

	assert.Nil(t, stacked.Tabs)
	assert.Len(t, stacked.Surface.(*Stack).Items(), 2)
}

type countingLayout struct{ calls int }

func (c *countingLayout) Layout() Layout {
	c.calls++
	return LayoutTabs
}

func TestLayoutPreferenceReadOncePerBuild(t *testing.T) {
	pref := &countingLayout{}
	def := screen(types.TypeProject, section("A"), field("name"), section("B"), field("budget"), section("C"))
	_, err := NewBuilder(meta.Domain(), nil, WithLayout(pref)).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pref.calls)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutStacked, l)
	l, err = ParseLayout("tabs")
	require.NoError(t, err)
	assert.Equal(t, LayoutTabs, l)
	_, err = ParseLayout("grid")
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

type note struct{ key, text string }

func (n note) Key() string { return n.key }

func TestCustomComponentLines(t *testing.T) {
	custom := types.Line{Target: types.TargetOwnFields, Component: "summary", CaptionVisible: true}
	unknown := types.Line{Target: types.TargetOwnFields, Component: "chart", CaptionVisible: true}
	def := screen(types.TypeProject, section("Basic"), field("name"), custom, unknown)

	b := NewBuilder(meta.Domain(), nil, WithComponent("summary", func(l types.Line) (Component, error) {
		return note{key: "summary", text: "hello"}, nil
	}))
	f, err := b.Build(context.Background(), def, nil, nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), `unknown component "chart"`)

	children := f.Sections[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, "name", children[0].Key())
	assert.Equal(t, note{key: "summary", text: "hello"}, children[1])
	c, ok := f.Components.Custom("summary")
	require.True(t, ok)
	assert.Equal(t, "summary", c.Key())
}

func TestSelectOptions(t *testing.T) {
	reg := meta.Domain()
	users := newMemRepo(meta.UserSchema())
	_, _ = users.Save(context.Background(), &types.User{Name: "Ada"})
	_, _ = users.Save(context.Background(), &types.User{Name: "Lin"})

	providers := NewProviders(0, nil)
	providers.Register(meta.ProviderUsers, RepositoryProvider(users, nil))
	providers.Register("vips", StaticProvider(Choice{Label: "Boss", Value: &types.User{Name: "Boss"}}))

	vip := field("owner")
	vip.DataProvider = "vips"
	noProvider := field("members")
	noProvider.DataProvider = types.NoProvider
	missing := types.RelationField("owner", "email")

	def := screen(types.TypeProject, section("A"), field("status"), vip, noProvider, missing)
	f, err := NewBuilder(reg, providers).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)

	status, _ := f.Components.Widget("status")
	assert.Equal(t, Select, status.Kind)
	assert.Len(t, status.Options, len(types.ProjectStatuses))
	assert.Equal(t, types.ProjectPlanned, status.Options[0].Value)

	owner, _ := f.Components.Widget("owner")
	assert.Equal(t, "vips", owner.Provider)
	require.Len(t, owner.Options, 1)
	assert.Equal(t, "Boss", owner.Options[0].Label)

	members, _ := f.Components.Widget("members")
	assert.Equal(t, MultiSelect, members.Kind)
	assert.Empty(t, members.Options)
	assert.NoError(t, members.OptionsErr)

	def2 := screen(types.TypeActivity, section("A"), field("assignee"), field("project"))
	f2, err := NewBuilder(reg, providers).Build(context.Background(), def2, nil, nil)
	require.NoError(t, err)
	assignee, _ := f2.Components.Widget("assignee")
	assert.Equal(t, []string{"Ada", "Lin"}, []string{assignee.Options[0].Label, assignee.Options[1].Label})

	project, _ := f2.Components.Widget("project")
	assert.Empty(t, project.Options)
	assert.ErrorIs(t, project.OptionsErr, types.ErrDataProviderUnavailable)
}

func TestDefaultProviderByRelatedType(t *testing.T) {
	reg := meta.NewRegistry().MustRegister(
		meta.UserSchema(),
		meta.CompanySchema(),
		meta.NewSchema[types.Project](types.TypeProject,
			meta.Reference("owner", types.TypeUser, func(p *types.Project) **types.User { return &p.Owner }),
		),
	)
	providers := NewProviders(0, nil)
	providers.Register("people", StaticProvider(Choice{Label: "Ada", Value: &types.User{Name: "Ada"}}))
	providers.SetDefault(types.TypeUser, "people")

	f, err := NewBuilder(reg, providers).Build(context.Background(),
		screen(types.TypeProject, section("A"), field("owner")), nil, nil)
	require.NoError(t, err)
	w, _ := f.Components.Widget("owner")
	assert.Equal(t, "people", w.Provider)
	require.Len(t, w.Options, 1)
}

func TestRelationSectionNeedsCollection(t *testing.T) {
	def := screen(types.TypeProject,
		types.SectionMarker("Team", "Team", "members"), field("name"),
		types.SectionMarker("Boss", "Boss", "owner"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "needs a collection")

	require.Len(t, f.Sections, 2)
	require.NotNil(t, f.Sections[0].Relation())
	assert.Equal(t, types.TypeUser, f.Sections[0].Relation().RelatedType)
	assert.Nil(t, f.Sections[1].Relation())
	children := f.Sections[0].Children()
	assert.Same(t, f.Sections[0].Relation(), children[len(children)-1])
}

func TestBuildLeavesDefinitionUntouched(t *testing.T) {
	def := screen(types.TypeProject, section("A"), field("name"), field("bogus"))
	before := *def
	before.Lines = append([]types.Line(nil), def.Lines...)
	_, _ = NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	assert.Equal(t, before, *def)
}

func TestBuildDuplicatePathKeepsFirstBinding(t *testing.T) {
	def := screen(types.TypeProject,
		section("A"), field("name"),
		section("B"), field("name"),
	)
	f, err := NewBuilder(meta.Domain(), nil).Build(context.Background(), def, nil, nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "bound more than once")

	assert.Equal(t, []string{"name"}, paths(f.Widgets()))
	b, ok := f.Components.Section("B")
	require.True(t, ok)
	assert.Empty(t, b.Widgets())
	assert.Empty(t, b.Children())

	require.NoError(t, f.Binder.ReadBean(&types.Project{Name: "Acme"}))
	w, ok := f.Components.Widget("name")
	require.True(t, ok)
	require.NoError(t, w.SetValue("Renamed"))

	out := &types.Project{}
	require.NoError(t, f.Binder.WriteBean(out))
	assert.Equal(t, "Renamed", out.Name)
}

func TestCustomComponentKeyTakenOnce(t *testing.T) {
	custom := types.Line{Target: types.TargetOwnFields, Component: "summary", CaptionVisible: true}
	def := screen(types.TypeProject, section("Basic"), custom, section("More"), custom)

	built := 0
	b := NewBuilder(meta.Domain(), nil, WithComponent("summary", func(l types.Line) (Component, error) {
		built++
		return note{key: "summary", text: "copy"}, nil
	}))
	f, err := b.Build(context.Background(), def, nil, nil)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), `component key "summary" is used more than once`)
	assert.Equal(t, 2, built)

	require.Len(t, f.Sections, 2)
	assert.Len(t, f.Sections[0].Children(), 1)
	assert.Empty(t, f.Sections[1].Children())
	c, ok := f.Components.Custom("summary")
	require.True(t, ok)
	assert.Equal(t, f.Sections[0].Children()[0], c)
}
