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

// PreSaveHook runs before a save. A non-nil error vetoes it.
type PreSaveHook func(ctx context.Context, entity any) error

// Page drives the populate and save cycle of one built form over a current
// entity and the repository of its type.
type Page struct {
	form    *Form
	schema  *meta.Schema
	repo    types.Repository
	current any
	hook    PreSaveHook
	log     *logrus.Entry
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithPreSave installs a pre-save hook.
func WithPreSave(h PreSaveHook) PageOption { return func(p *Page) { p.hook = h } }

// WithPageLogger sets the log entry.
func WithPageLogger(log *logrus.Entry) PageOption { return func(p *Page) { p.log = log } }

// NewPage binds f to repo. The registry supplies the schema used to copy and
// allocate entities of the screen's type.
func NewPage(f *Form, reg *meta.Registry, repo types.Repository, opts ...PageOption) (*Page, error) {
	schema, ok := reg.Schema(f.Screen.EntityType)
	if !ok {
		return nil, &types.ConfigurationError{Screen: f.Screen.Name,
			Reason: fmt.Sprintf("unknown entity type %q", f.Screen.EntityType)}
	}
	p := &Page{form: f, schema: schema, repo: repo}
	for _, o := range opts {
		o(p)
	}
	if p.log == nil {
		p.log = logging.Component(nil, "page")
	}
	p.log = p.log.WithField("screen", f.Screen.Name)
	return p, nil
}

// Form returns the page's form.
func (p *Page) Form() *Form { return p.form }

// Current returns the current entity, or nil.
func (p *Page) Current() any { return p.current }

// SetCurrent makes entity current and re-reads every widget and relation
// list from it.
func (p *Page) SetCurrent(entity any) error {
	if entity != nil && p.schema.Clone(entity) == nil {
		return fmt.Errorf("%w: %s page cannot show %T", types.ErrTypeMismatch, p.schema.Name(), entity)
	}
	if err := p.form.Binder.ReadBean(entity); err != nil {
		return err
	}
	for _, s := range p.form.Sections {
		if s.relation != nil {
			s.relation.Load(entity)
		}
	}
	p.current = entity
	return nil
}

// New makes a fresh, unsaved entity current. Widget defaults apply.
func (p *Page) New() error {
	return p.SetCurrent(p.schema.New())
}

// Reload re-reads the current entity from the repository.
func (p *Page) Reload(ctx context.Context) error {
	id, err := p.currentID()
	if err != nil {
		return err
	}
	fresh, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return p.SetCurrent(fresh)
}

// Delete removes the current entity and clears the surface.
func (p *Page) Delete(ctx context.Context) error {
	if _, err := p.currentID(); err != nil {
		return err
	}
	if err := p.repo.Delete(ctx, p.current); err != nil {
		return err
	}
	p.log.Info("entity deleted")
	return p.SetCurrent(nil)
}

func (p *Page) currentID() (string, error) {
	e, ok := p.current.(types.Entity)
	if !ok || p.current == nil {
		return "", types.ErrNoCurrentEntity
	}
	if e.RecordMeta().IsNew() {
		return "", fmt.Errorf("%w: entity was never saved", types.ErrNoCurrentEntity)
	}
	return e.RecordMeta().ID, nil
}

// Save runs the pre-save hook, validates, flushes the widgets into a copy of
// the current entity, and hands the copy to the repository. On success the
// saved instance becomes current and the surface is re-read from it.
//
// Failures leave the current entity and the widgets untouched, except that a
// version conflict replaces the current entity with the stored one so the
// next save compares against it. Relation panels move to the stored entity
// and keep the items they list. Errors wrap ErrSaveVetoed, ErrValidation,
// ErrConcurrencyConflict, or ErrUnexpected.
func (p *Page) Save(ctx context.Context) (any, error) {
	if p.current == nil {
		return nil, types.ErrNoCurrentEntity
	}
	if p.hook != nil {
		if err := p.hook(ctx, p.current); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrSaveVetoed, err)
		}
	}
	if err := p.form.Binder.Validate().Err(); err != nil {
		return nil, err
	}

	draft := p.schema.Clone(p.current)
	if err := p.form.Binder.WriteBean(draft); err != nil {
		if errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: flush: %w", types.ErrUnexpected, err)
	}

	saved, err := p.repo.Save(ctx, draft)
	switch {
	case err == nil:
	case errors.Is(err, types.ErrConcurrencyConflict):
		p.log.WithError(err).Warn("save conflict")
		p.reloadAfterConflict(ctx)
		return nil, err
	default:
		p.log.WithError(err).Error("save failed")
		return nil, fmt.Errorf("%w: %w", types.ErrUnexpected, err)
	}

	if err := p.SetCurrent(saved); err != nil {
		return nil, fmt.Errorf("%w: populate saved entity: %w", types.ErrUnexpected, err)
	}
	if e, ok := saved.(types.Entity); ok {
		p.log.WithField("id", e.RecordMeta().ID).Info("entity saved")
	}
	return saved, nil
}

func (p *Page) reloadAfterConflict(ctx context.Context) {
	id, err := p.currentID()
	if err != nil {
		return
	}
	fresh, err := p.repo.FindByID(ctx, id)
	if err != nil {
		p.log.WithError(err).Warn("reload after conflict failed")
		return
	}
	for _, s := range p.form.Sections {
		if s.relation != nil {
			if err := s.relation.rebase(fresh); err != nil {
				p.log.WithError(err).WithField("section", s.Name).Warn("relation kept on stale owner")
				return
			}
		}
	}
	p.current = fresh
}
