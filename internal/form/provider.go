package form

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// DefaultProviderTimeout bounds a single data-provider lookup.
const DefaultProviderTimeout = 2 * time.Second

// ListFunc produces the options of a selectable field.
type ListFunc func(ctx context.Context) ([]Choice, error)

// Providers is the table of named data providers. It is safe for concurrent
// use and shared across builds.
type Providers struct {
	mu       sync.RWMutex
	byName   map[string]ListFunc
	defaults map[string]string // related type -> provider name
	timeout  time.Duration
	log      *logrus.Entry
}

// NewProviders returns an empty table. A non-positive timeout means
// DefaultProviderTimeout.
func NewProviders(timeout time.Duration, log *logrus.Entry) *Providers {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if log == nil {
		log = logging.Component(nil, "providers")
	}
	return &Providers{
		byName:   make(map[string]ListFunc),
		defaults: make(map[string]string),
		timeout:  timeout,
		log:      log,
	}
}

// Register adds or replaces a provider.
func (p *Providers) Register(name string, fn ListFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byName[name] = fn
}

// SetDefault names the provider used for reference and collection fields of
// entityType when neither the line nor the metadata names one.
func (p *Providers) SetDefault(entityType, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[entityType] = name
}

// DefaultFor returns the default provider for entityType.
func (p *Providers) DefaultFor(entityType string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, ok := p.defaults[entityType]
	return name, ok
}

// Names returns the registered provider names, sorted.
func (p *Providers) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byName))
	for n := range p.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type listResult struct {
	choices []Choice
	err     error
}

// Options runs the named provider within the table's timeout. Unknown names,
// failures, and timeouts log a warning and return no options with an error
// wrapping ErrDataProviderUnavailable. A provider that outlives its timeout
// is abandoned.
func (p *Providers) Options(ctx context.Context, name string) ([]Choice, error) {
	p.mu.RLock()
	fn, ok := p.byName[name]
	p.mu.RUnlock()
	if !ok {
		p.log.WithField("provider", name).Warn("data provider not registered")
		return nil, fmt.Errorf("%w: %q is not registered", types.ErrDataProviderUnavailable, name)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan listResult, 1)
	go func() {
		choices, err := fn(ctx)
		done <- listResult{choices, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			p.log.WithField("provider", name).WithError(r.err).Warn("data provider failed")
			return nil, fmt.Errorf("%w: %s: %w", types.ErrDataProviderUnavailable, name, r.err)
		}
		return r.choices, nil
	case <-ctx.Done():
		p.log.WithField("provider", name).WithField("timeout", p.timeout).Warn("data provider timed out")
		return nil, fmt.Errorf("%w: %s: %w", types.ErrDataProviderUnavailable, name, ctx.Err())
	}
}

// RepositoryProvider lists every entity in repo matching filter as options.
// Labels come from fmt.Stringer, falling back to the entity ID.
func RepositoryProvider(repo types.Repository, filter types.Filter) ListFunc {
	return func(ctx context.Context) ([]Choice, error) {
		page, err := repo.List(ctx, filter, types.Page{})
		if err != nil {
			return nil, err
		}
		out := make([]Choice, 0, len(page.Items))
		for _, it := range page.Items {
			out = append(out, Choice{Label: label(it), Value: it})
		}
		return out, nil
	}
}

// StaticProvider returns fixed options.
func StaticProvider(choices ...Choice) ListFunc {
	return func(context.Context) ([]Choice, error) {
		return append([]Choice(nil), choices...), nil
	}
}

func label(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		if l := s.String(); l != "" {
			return l
		}
	}
	if e, ok := v.(types.Entity); ok {
		return e.RecordMeta().ID
	}
	return fmt.Sprint(v)
}
