package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/cognilex/asi/ontology"
)

// Load reads the full ontology snapshot. A missing meta row means the database
// is fresh; the given scope seeds a new store.
func (d *DB) Load(ctx context.Context, scope []string) (*ontology.Store, error) {
	var (
		scopeJSON        string
		totalAnalyses    int
		interpretability float64
	)
	err := d.db.QueryRowContext(ctx,
		"SELECT scope, total_analyses, interpretability FROM store_meta WHERE id = 1",
	).Scan(&scopeJSON, &totalAnalyses, &interpretability)
	if err == sql.ErrNoRows {
		return ontology.NewStore(scope...), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store meta")
	}

	var storedScope []string
	if err := json.Unmarshal([]byte(scopeJSON), &storedScope); err != nil {
		return nil, errors.Wrap(err, "failed to decode scope")
	}
	store := ontology.NewStore(storedScope...)
	store.SetTotalAnalyses(totalAnalyses)
	store.SetInterpretability(interpretability)

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, category, subcategory, keywords, evidence,
			confidence, usage_count, merge_count, created_ts, updated_ts
		FROM concept`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query concepts")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c                      ontology.Concept
			keywordsJSON, evidence string
			createdTs, updatedTs   int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Subcategory,
			&keywordsJSON, &evidence, &c.Confidence, &c.UsageCount,
			&c.MergeCount, &createdTs, &updatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan concept")
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &c.Keywords); err != nil {
			return nil, errors.Wrapf(err, "failed to decode keywords for %s", c.ID)
		}
		if err := json.Unmarshal([]byte(evidence), &c.Evidence); err != nil {
			return nil, errors.Wrapf(err, "failed to decode evidence for %s", c.ID)
		}
		c.CreatedAt = time.Unix(createdTs, 0)
		c.LastUpdated = time.Unix(updatedTs, 0)
		store.AddConcept(&c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate concepts")
	}

	relRows, err := d.db.QueryContext(ctx,
		"SELECT source_id, target_id, kind, strength FROM relationship")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query relationships")
	}
	defer relRows.Close()
	for relRows.Next() {
		var r ontology.Relationship
		if err := relRows.Scan(&r.SourceID, &r.TargetID, &r.Kind, &r.Strength); err != nil {
			return nil, errors.Wrap(err, "failed to scan relationship")
		}
		store.UpsertRelationship(&r)
	}
	if err := relRows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate relationships")
	}
	return store, nil
}

// Save writes the full ontology snapshot in one transaction, replacing any
// previous snapshot.
func (d *DB) Save(ctx context.Context, store *ontology.Store) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"relationship", "concept", "store_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "failed to clear %s", table)
		}
	}

	scopeJSON, err := json.Marshal(store.Scope())
	if err != nil {
		return errors.Wrap(err, "failed to encode scope")
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO store_meta (id, scope, total_analyses, interpretability) VALUES (1, $1, $2, $3)",
		string(scopeJSON), store.TotalAnalyses(), store.Interpretability()); err != nil {
		return errors.Wrap(err, "failed to insert store meta")
	}

	conceptStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO concept (id, name, category, subcategory, keywords, evidence,
			confidence, usage_count, merge_count, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare concept insert")
	}
	defer conceptStmt.Close()
	for _, c := range store.Concepts() {
		keywords, err := json.Marshal(c.Keywords)
		if err != nil {
			return errors.Wrapf(err, "failed to encode keywords for %s", c.ID)
		}
		evidence, err := json.Marshal(c.Evidence)
		if err != nil {
			return errors.Wrapf(err, "failed to encode evidence for %s", c.ID)
		}
		if _, err := conceptStmt.ExecContext(ctx, c.ID, c.Name, c.Category,
			c.Subcategory, string(keywords), string(evidence), c.Confidence,
			c.UsageCount, c.MergeCount, c.CreatedAt.Unix(), c.LastUpdated.Unix()); err != nil {
			return errors.Wrapf(err, "failed to insert concept %s", c.ID)
		}
	}

	relStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO relationship (source_id, target_id, kind, strength) VALUES ($1, $2, $3, $4)")
	if err != nil {
		return errors.Wrap(err, "failed to prepare relationship insert")
	}
	defer relStmt.Close()
	for _, r := range store.Relationships() {
		if _, err := relStmt.ExecContext(ctx, r.SourceID, r.TargetID, string(r.Kind), r.Strength); err != nil {
			return errors.Wrapf(err, "failed to insert relationship %s", r.Key())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}
