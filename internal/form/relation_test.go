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

func teamForm(t *testing.T, opts ...Option) (*Form, *RelationPanel) {
	t.Helper()
	def := screen(types.TypeProject,
		section("Basic"), field("name"), field("members"),
		types.SectionMarker("Team", "Team members", "members"),
	)
	f, err := NewBuilder(meta.Domain(), nil, opts...).Build(context.Background(), def, nil, nil)
	require.NoError(t, err)
	rp := f.Sections[1].Relation()
	require.NotNil(t, rp)
	return f, rp
}

func TestRelationPanelStateMachine(t *testing.T) {
	f, rp := teamForm(t)
	assert.Equal(t, RelationEmpty, rp.State())
	assert.ErrorIs(t, rp.Select(0), types.ErrInvalidTransition)
	assert.ErrorIs(t, rp.Add(), types.ErrInvalidTransition)

	ada := &types.User{Record: types.Record{ID: "u1"}, Name: "Ada"}
	owner := &types.Project{Record: types.Record{ID: "p1"}, Name: "Acme", Members: []*types.User{ada}}
	require.NoError(t, f.Sections[1].Populate(owner))
	assert.Equal(t, RelationLoaded, rp.State())
	assert.Equal(t, []string{"Ada"}, rp.Labels())

	assert.ErrorIs(t, rp.Edit(), types.ErrInvalidTransition)
	assert.ErrorIs(t, rp.Select(3), types.ErrNotFound)

	require.NoError(t, rp.Select(0))
	assert.Equal(t, RelationSelected, rp.State())
	sel, ok := rp.Selected()
	require.True(t, ok)
	assert.Same(t, ada, sel)

	require.NoError(t, rp.Edit())
	assert.Equal(t, RelationEditing, rp.State())
	assert.ErrorIs(t, rp.Select(0), types.ErrInvalidTransition)
	require.NoError(t, rp.Set("name", "Ada L."))
	require.NoError(t, rp.Cancel())
	assert.Equal(t, RelationSelected, rp.State())
	assert.Equal(t, "Ada", owner.Members[0].Name)

	require.NoError(t, rp.Edit())
	require.NoError(t, rp.Set("name", "Ada L."))
	require.NoError(t, rp.Commit(context.Background()))
	assert.Equal(t, RelationSelected, rp.State())
	assert.Equal(t, "Ada L.", owner.Members[0].Name)
	assert.Equal(t, "Ada", ada.Name)

	require.NoError(t, rp.Add())
	require.NoError(t, rp.Set("name", "Lin"))
	require.NoError(t, rp.Set("email", "lin@b.com"))
	require.NoError(t, rp.Commit(context.Background()))
	assert.Equal(t, []string{"Ada L.", "Lin"}, rp.Labels())
	require.Len(t, owner.Members, 2)
	sel, _ = rp.Selected()
	assert.Equal(t, "Lin", sel.(*types.User).Name)

	members, _ := f.Components.Widget("members")
	assert.Equal(t, "Ada L., Lin", members.Display())

	require.NoError(t, rp.Select(0))
	require.NoError(t, rp.Delete())
	assert.Equal(t, RelationLoaded, rp.State())
	assert.Equal(t, []string{"Lin"}, rp.Labels())
	require.Len(t, owner.Members, 1)
	assert.Equal(t, "Lin", members.Display())

	require.NoError(t, rp.Add())
	require.NoError(t, rp.Cancel())
	assert.Equal(t, RelationLoaded, rp.State())

	rp.Load(nil)
	assert.Equal(t, RelationEmpty, rp.State())
	assert.Empty(t, rp.Items())
}

func TestRelationCommitPersistsThroughRepository(t *testing.T) {
	users := newMemRepo(meta.UserSchema())
	_, rp := teamForm(t, WithRepository(types.TypeUser, users))
	owner := &types.Project{Record: types.Record{ID: "p1"}}
	rp.Load(owner)

	require.NoError(t, rp.Add())
	require.NoError(t, rp.Set("name", "Ada"))
	require.NoError(t, rp.Commit(context.Background()))
	require.Len(t, owner.Members, 1)
	assert.Equal(t, "id-1", owner.Members[0].ID)

	users.saveErr = errors.New("disk full")
	require.NoError(t, rp.Edit())
	require.NoError(t, rp.Set("name", "Ada L."))
	err := rp.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, RelationEditing, rp.State())
	assert.Equal(t, "Ada", owner.Members[0].Name)
}

func TestRelationSetUnknownProperty(t *testing.T) {
	_, rp := teamForm(t)
	rp.Load(&types.Project{})
	require.NoError(t, rp.Add())
	assert.ErrorIs(t, rp.Set("salary", 10), types.ErrConfiguration)
	assert.ErrorIs(t, rp.Set("name", 10), types.ErrTypeMismatch)
}

func TestRelationStateString(t *testing.T) {
	assert.Equal(t, "editing", RelationEditing.String())
	assert.Equal(t, "RelationState(9)", RelationState(9).String())
}
