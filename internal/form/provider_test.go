package form

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/pkg/types"
)

func TestProvidersUnknownName(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New("warn", &buf)
	require.NoError(t, err)
	p := NewProviders(0, logging.Component(l, "providers"))

	opts, err := p.Options(context.Background(), "ghosts")
	assert.Empty(t, opts)
	assert.ErrorIs(t, err, types.ErrDataProviderUnavailable)
	assert.Contains(t, buf.String(), "provider=ghosts")
}

func TestProvidersTimeout(t *testing.T) {
	p := NewProviders(20*time.Millisecond, nil)
	release := make(chan struct{})
	defer close(release)
	p.Register("slow", func(ctx context.Context) ([]Choice, error) {
		<-release
		return []Choice{{Label: "late"}}, nil
	})

	start := time.Now()
	opts, err := p.Options(context.Background(), "slow")
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, opts)
	assert.ErrorIs(t, err, types.ErrDataProviderUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvidersFailure(t *testing.T) {
	boom := errors.New("listing failed")
	p := NewProviders(0, nil)
	p.Register("broken", func(context.Context) ([]Choice, error) { return nil, boom })

	opts, err := p.Options(context.Background(), "broken")
	assert.Empty(t, opts)
	assert.ErrorIs(t, err, types.ErrDataProviderUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestProvidersNames(t *testing.T) {
	p := NewProviders(0, nil)
	p.Register("users", StaticProvider())
	p.Register("companies", StaticProvider())
	assert.Equal(t, []string{"companies", "users"}, p.Names())
	_, ok := p.DefaultFor(types.TypeUser)
	assert.False(t, ok)
}

func TestRepositoryProviderLabels(t *testing.T) {
	repo := newMemRepo(meta.CompanySchema())
	_, err := repo.Save(context.Background(), &types.Company{Name: "Acme"})
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), &types.Company{})
	require.NoError(t, err)

	choices, err := RepositoryProvider(repo, nil)(context.Background())
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Acme", choices[0].Label)
	assert.Equal(t, "id-2", choices[1].Label)
	assert.IsType(t, &types.Company{}, choices[0].Value)
}

func TestSlowProviderDoesNotStallBuild(t *testing.T) {
	p := NewProviders(20*time.Millisecond, nil)
	release := make(chan struct{})
	defer close(release)
	p.Register(meta.ProviderUsers, func(ctx context.Context) ([]Choice, error) {
		<-release
		return nil, nil
	})

	f, err := NewBuilder(meta.Domain(), p).Build(context.Background(),
		screen(types.TypeProject, section("A"), field("name"), field("owner"), field("budget")), nil, nil)
	require.NoError(t, err)
	assert.Len(t, f.Widgets(), 3)
	owner, _ := f.Components.Widget("owner")
	assert.Empty(t, owner.Options)
	assert.ErrorIs(t, owner.OptionsErr, types.ErrDataProviderUnavailable)
}
