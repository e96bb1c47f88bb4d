// Package db creates ontology persistence drivers.
package db

import (
	"github.com/pkg/errors"

	"github.com/cognilex/asi/internal/profile"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/ontology/db/postgres"
	"github.com/cognilex/asi/ontology/db/sqlite"
)

// NewDriver creates a persistence driver based on the profile.
// An empty driver name means the ontology is kept in memory only.
func NewDriver(p *profile.Profile) (ontology.Driver, error) {
	switch p.Driver {
	case "":
		return nil, nil
	case "sqlite":
		driver, err := sqlite.NewDB(p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create sqlite driver")
		}
		return driver, nil
	case "postgres":
		driver, err := postgres.NewDB(p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create postgres driver")
		}
		return driver, nil
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
}
