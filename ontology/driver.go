package ontology

import (
	"context"
	"database/sql"
)

// Driver is an interface for ontology persistence.
// The engine owns the in-memory store; a driver loads it at startup and
// writes a full snapshot back after each mutating operation, inside one
// transaction, so the persisted state is always a committed store.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	// Load reads the persisted ontology. Returns an empty store with the
	// given scope when nothing has been persisted yet.
	Load(ctx context.Context, scope []string) (*Store, error)

	// Save persists a full snapshot of the store.
	Save(ctx context.Context, store *Store) error
}
