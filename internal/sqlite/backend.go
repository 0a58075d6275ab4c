// Package sqlite implements the SQLite storage backend: screen definitions
// with their ordered lines, and entities stored as versioned JSON documents.
package sqlite

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/screens/pkg/types"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database file named by config, creating DataDir and the
// schema when missing. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sqlx.Open(DriverName, config.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps pragmas and transactions on one handle.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// attachDB attaches the backend to an already open handle. The schema is
// assumed to exist. Used with sqlmock in tests.
func (b *Backend) attachDB(db *sqlx.DB) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.db = db
	b.attached = true
}

func initSchema(db *sqlx.DB) error {
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying %q: %w", stmt, err)
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// handle returns the open database or ErrStoreDetached.
func (b *Backend) handle() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// Screens returns the screen definition source.
func (b *Backend) Screens() (types.ScreenSource, error) {
	return b.ScreenStore()
}

// ScreenStore returns the read-write screen store.
func (b *Backend) ScreenStore() (*ScreenStore, error) {
	if _, err := b.handle(); err != nil {
		return nil, err
	}
	return &ScreenStore{backend: b}, nil
}

// Repository returns the document repository for entityType. newEntity
// allocates the empty instance stored documents decode into.
func (b *Backend) Repository(entityType string, newEntity func() any) (types.Repository, error) {
	if _, err := b.handle(); err != nil {
		return nil, err
	}
	if entityType == "" || newEntity == nil {
		return nil, types.ErrInvalidData
	}
	if _, ok := newEntity().(types.Entity); !ok {
		return nil, fmt.Errorf("%w: %s instances do not embed types.Record", types.ErrInvalidData, entityType)
	}
	return &Repository{backend: b, entityType: entityType, newEntity: newEntity}, nil
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}
