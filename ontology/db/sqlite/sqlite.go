// Package sqlite persists the ontology in SQLite via the pure-Go driver.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/cognilex/asi/internal/profile"
	"github.com/cognilex/asi/ontology"
)

// DB is the sqlite implementation of ontology.Driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the sqlite database at the profile DSN.
func NewDB(p *profile.Profile) (ontology.Driver, error) {
	if p.DSN == "" {
		return nil, errors.New("dsn required")
	}
	db, err := sql.Open("sqlite", p.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", p.DSN)
	}
	return &DB{db: db, profile: p}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS concept (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '[]',
	evidence TEXT NOT NULL DEFAULT '[]',
	confidence REAL NOT NULL DEFAULT 0,
	usage_count INTEGER NOT NULL DEFAULT 0,
	merge_count INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS relationship (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	strength REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (source_id, target_id, kind)
);

CREATE TABLE IF NOT EXISTS store_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	scope TEXT NOT NULL DEFAULT '[]',
	total_analyses INTEGER NOT NULL DEFAULT 0,
	interpretability REAL NOT NULL DEFAULT 1.0
);
`

// Migrate creates the schema when missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
