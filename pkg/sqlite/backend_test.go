package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/pkg/sqlite"
	"github.com/mesh-intelligence/screens/pkg/types"
)

func TestOpen(t *testing.T) {
	store, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Detach()

	screens, err := store.Screens()
	require.NoError(t, err)
	_, err = screens.FindScreen(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	repo, err := store.Repository(types.TypeCompany, func() any { return new(types.Company) })
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), &types.Company{Name: "Acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.(*types.Company).ID)
}

func TestNewBackendIsDetached(t *testing.T) {
	_, err := sqlite.NewBackend().Screens()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
