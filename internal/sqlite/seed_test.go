package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/pkg/types"
)

func TestDemoScreensAreValid(t *testing.T) {
	for _, def := range DemoScreens() {
		assert.NoError(t, def.Validate(), def.Name)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	seeded, err := Seed(ctx, b)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = Seed(ctx, b)
	require.NoError(t, err)
	assert.False(t, seeded)

	users, err := b.Repository(types.TypeUser, newUser)
	require.NoError(t, err)
	res, err := users.List(ctx, types.Filter{"active": true}, types.Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	for _, it := range res.Items {
		u := it.(*types.User)
		require.NotNil(t, u.Company)
		assert.Equal(t, "Acme", u.Company.Name)
	}

	activities, err := b.Repository(types.TypeActivity, func() any { return new(types.Activity) })
	require.NoError(t, err)
	res, err = activities.List(ctx, nil, types.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}
