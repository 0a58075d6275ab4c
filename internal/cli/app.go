package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/screens/internal/form"
	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/internal/meta"
	"github.com/mesh-intelligence/screens/internal/sqlite"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// providerTypes maps the registered data providers to the entity type they
// list.
var providerTypes = map[string]string{
	meta.ProviderCompanies: types.TypeCompany,
	meta.ProviderUsers:     types.TypeUser,
	meta.ProviderProjects:  types.TypeProject,
}

// app is an attached store plus the metadata and providers built on it.
type app struct {
	st        *state
	backend   *sqlite.Backend
	registry  *meta.Registry
	providers *form.Providers
	log       *logrus.Entry

	// page is the page being shown; read by the summary component.
	page *form.Page
	// warnings are the configuration errors of the last build.
	warnings []error
}

// openApp attaches the backend and wires the providers. The caller must
// call close.
func (st *state) openApp() (*app, error) {
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: st.settings.Backend, DataDir: st.dataDir}
	if err := b.Attach(cfg); err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return nil, err
		}
		return nil, systemError(fmt.Errorf("attach backend: %w", err))
	}

	a := &app{
		st:       st,
		backend:  b,
		registry: meta.Domain(),
		log:      logging.Component(st.log, "cli"),
	}
	a.providers = form.NewProviders(st.settings.ProviderTimeout, logging.Component(st.log, "providers"))
	for name, entityType := range providerTypes {
		repo, err := a.repository(entityType)
		if err != nil {
			b.Detach()
			return nil, err
		}
		a.providers.Register(name, form.RepositoryProvider(repo, nil))
		a.providers.SetDefault(entityType, name)
	}
	return a, nil
}

func (a *app) close() error {
	return a.backend.Detach()
}

// repository returns the store repository for a registered entity type.
func (a *app) repository(entityType string) (types.Repository, error) {
	schema, ok := a.registry.Schema(entityType)
	if !ok {
		return nil, &types.ConfigurationError{Reason: fmt.Sprintf("unknown entity type %q", entityType)}
	}
	return a.backend.Repository(entityType, schema.New)
}

func (a *app) screens() (*sqlite.ScreenStore, error) {
	return a.backend.ScreenStore()
}

// builder returns a form builder using the configured layout, the summary
// component, and a repository for every registered type.
func (a *app) builder(layout form.Layout) (*form.Builder, error) {
	opts := []form.Option{
		form.WithLayout(form.FixedLayout(layout)),
		form.WithLogger(logging.Component(a.st.log, "builder")),
		form.WithComponent(sqlite.SummaryComponent, func(types.Line) (form.Component, error) {
			return &summary{app: a}, nil
		}),
	}
	for _, entityType := range a.registry.Types() {
		repo, err := a.repository(entityType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, form.WithRepository(entityType, repo))
	}
	return form.NewBuilder(a.registry, a.providers, opts...), nil
}

// openPage builds the named screen and shows the entity with the given ID,
// or a new entity when id is empty. Configuration errors that did not stop
// the build are kept in a.warnings.
func (a *app) openPage(ctx context.Context, screen, id string, layout form.Layout) (*form.Page, error) {
	store, err := a.screens()
	if err != nil {
		return nil, err
	}
	def, err := store.FindScreen(ctx, screen)
	if err != nil {
		return nil, fmt.Errorf("screen %q: %w", screen, err)
	}
	b, err := a.builder(layout)
	if err != nil {
		return nil, err
	}
	f, buildErr := b.Build(ctx, def, nil, nil)
	if f == nil {
		return nil, buildErr
	}
	a.warnings = splitErrors(buildErr)
	repo, err := a.repository(def.EntityType)
	if err != nil {
		return nil, err
	}
	page, err := form.NewPage(f, a.registry, repo, form.WithPageLogger(logging.Component(a.st.log, "page")))
	if err != nil {
		return nil, err
	}
	a.page = page

	if id == "" {
		err = page.New()
	} else {
		var entity any
		if entity, err = repo.FindByID(ctx, id); err != nil {
			return nil, fmt.Errorf("%s %q: %w", def.EntityType, id, err)
		}
		err = page.SetCurrent(entity)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// splitErrors undoes errors.Join.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// summary is the custom component behind "summary" lines: one line
// describing the entity on the page.
type summary struct {
	app *app
}

func (s *summary) Key() string { return sqlite.SummaryComponent }

// Text describes the current entity.
func (s *summary) Text() string {
	if s.app.page == nil || s.app.page.Current() == nil {
		return "no entity"
	}
	cur := s.app.page.Current()
	e, ok := cur.(types.Entity)
	if !ok {
		return fmt.Sprint(cur)
	}
	rec := e.RecordMeta()
	name := s.app.page.Form().Screen.EntityType
	if rec.IsNew() {
		return "new " + name + ", not saved yet"
	}
	return fmt.Sprintf("%s %s, version %d, updated %s", name, rec.ID, rec.Version,
		rec.UpdatedAt.Format("2006-01-02 15:04"))
}
