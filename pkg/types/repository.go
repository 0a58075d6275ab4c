package types

import "context"

// Filter selects entities by top-level field value. An empty filter matches
// every entity of the repository's type.
type Filter map[string]any

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// PageResult is one page of a listing plus the total number of matches.
type PageResult struct {
	Items []any
	Total int
}

// Repository persists entities of one registered type. Save and FindByID
// return fresh instances; callers type-assert to the concrete entity.
type Repository interface {
	// Save creates the entity when its ID is empty, otherwise updates it.
	// Returns ErrConcurrencyConflict when the stored version differs from
	// the entity's version.
	Save(ctx context.Context, entity any) (any, error)

	// Delete removes the entity. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, entity any) error

	// FindByID returns the entity with the given ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (any, error)

	// List returns the entities matching filter, limited to page.
	List(ctx context.Context, filter Filter, page Page) (PageResult, error)
}

// ScreenSource hands out screen definitions with their lines loaded and
// ordered. The builder never queries lines on its own.
type ScreenSource interface {
	GetScreen(ctx context.Context, id string) (*ScreenDefinition, error)
	FindScreen(ctx context.Context, name string) (*ScreenDefinition, error)
}

// Store is a backend-agnostic persistence attachment: callers attach to a
// backend, obtain screen and entity access, and detach when done.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// Screens returns the screen definition source.
	Screens() (ScreenSource, error)

	// Repository returns the repository for a registered entity type.
	// newEntity allocates an empty instance used to decode stored rows.
	Repository(entityType string, newEntity func() any) (Repository, error)
}
