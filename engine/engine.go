// Package engine owns a concept store and coordinates the extraction,
// integration, interpretability and compression components over it.
//
// A store has a single logical writer: integrate and compress are serialized,
// and a mutation attempted while another is in flight fails with
// CONCURRENT_MUTATION rather than queueing. Read operations may run
// concurrently with each other.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/cognilex/asi/compress"
	"github.com/cognilex/asi/extract"
	"github.com/cognilex/asi/integrate"
	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/scaffold"
	"github.com/cognilex/asi/similarity"
	"golang.org/x/sync/errgroup"
)

// AnalysisResult reports one analyzed document.
type AnalysisResult struct {
	DocumentID         string  `json:"document_id"`
	Added              int     `json:"added"`
	Merged             int     `json:"merged"`
	RelationshipsAdded int     `json:"relationships_added"`
	Score              float64 `json:"score"`
	// NeedsCompression signals that the score dropped below the configured
	// interpretability threshold; compression is triggered by the caller.
	NeedsCompression bool `json:"needs_compression"`
}

// Engine is the coordinating owner of one concept store.
type Engine struct {
	cfg    *Config
	store  *ontology.Store
	driver ontology.Driver

	extractor  *extract.Extractor
	monitor    *interpret.Monitor
	integrator *integrate.Integrator
	compressor *compress.Compressor
	builder    *scaffold.Builder
	validator  *scaffold.Validator

	// writer admits one mutation at a time; data guards readers against an
	// admitted mutation while it runs.
	writer sync.Mutex
	data   sync.RWMutex
}

// New creates an engine. With a driver the persisted ontology is loaded (and
// the schema migrated); without one the store is in-memory only.
func New(ctx context.Context, cfg *Config, driver ontology.Driver) (*Engine, error) {
	monitor := interpret.NewMonitorWithWeights(cfg.ScoreWeights)
	prohibited := make(map[string][]string, len(cfg.Scopes))
	for tag, sc := range cfg.Scopes {
		monitor.RegisterScope(tag, sc.Required)
		prohibited[tag] = sc.Prohibited
	}

	sim := similarity.NewEngineWithWeights(cfg.SimilarityWeights)

	var store *ontology.Store
	if driver != nil {
		if err := driver.Migrate(ctx); err != nil {
			return nil, errors.Wrap(err, "migrate ontology schema")
		}
		loaded, err := driver.Load(ctx, cfg.Scope)
		if err != nil {
			return nil, errors.Wrap(err, "load ontology")
		}
		store = loaded
	} else {
		store = ontology.NewStore(cfg.Scope...)
	}

	return &Engine{
		cfg:        cfg,
		store:      store,
		driver:     driver,
		extractor:  extract.NewExtractor(cfg.RuleSets, cfg.Extraction),
		monitor:    monitor,
		integrator: integrate.NewIntegratorWithThreshold(sim, monitor, cfg.Thresholds.Merge),
		compressor: compress.NewCompressorWithThresholds(sim, monitor, cfg.Thresholds.Usage, cfg.Thresholds.ClusterSimilarity),
		builder:    scaffold.NewBuilder(monitor, prohibited),
		validator:  scaffold.NewValidatorWith(scaffold.LexicalMatcher{}, cfg.ScoreWeights, cfg.Thresholds.Validation),
	}, nil
}

// Close releases the persistence driver, if any.
func (e *Engine) Close() error {
	if e.driver == nil {
		return nil
	}
	return e.driver.Close()
}

// Extract scans a document without touching the store. Safe to call
// concurrently.
func (e *Engine) Extract(doc extract.Document) (*extract.Result, error) {
	return e.extractor.Extract(doc)
}

// Analyze runs the full cycle for one document: extract, integrate, persist.
// Compression is signaled, not performed; the caller decides when to run it.
func (e *Engine) Analyze(ctx context.Context, doc extract.Document) (*AnalysisResult, error) {
	res, err := e.extractor.Extract(doc)
	if err != nil {
		return nil, err
	}
	return e.IntegrateResult(ctx, res)
}

// IntegrateResult folds an extraction result into the store.
func (e *Engine) IntegrateResult(ctx context.Context, res *extract.Result) (*AnalysisResult, error) {
	if !e.writer.TryLock() {
		return nil, asierrors.ConcurrentMutation("integrate")
	}
	defer e.writer.Unlock()
	e.data.Lock()
	defer e.data.Unlock()

	ir, err := e.integrator.Integrate(e.store, res)
	if err != nil {
		return nil, err
	}
	if err := e.persist(ctx); err != nil {
		return nil, err
	}

	return &AnalysisResult{
		DocumentID:         res.DocumentID,
		Added:              ir.Added,
		Merged:             ir.Merged,
		RelationshipsAdded: ir.RelationshipsAdded,
		Score:              ir.Score,
		NeedsCompression:   ir.Score < e.cfg.Thresholds.Interpretability,
	}, nil
}

// AnalyzeBatch extracts the documents concurrently (extraction is pure) and
// integrates the results serially in input order. Documents that are too
// short are skipped with a nil entry; any other failure aborts the batch.
func (e *Engine) AnalyzeBatch(ctx context.Context, docs []extract.Document) ([]*AnalysisResult, error) {
	extracted := make([]*extract.Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range docs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.extractor.Extract(docs[i])
			if err != nil {
				if asierrors.IsCode(err, asierrors.CodeInputTooShort) {
					slog.Warn("skipping short document", "document_id", docs[i].ID)
					return nil
				}
				return err
			}
			extracted[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*AnalysisResult, len(docs))
	for i, res := range extracted {
		if res == nil {
			continue
		}
		ar, err := e.IntegrateResult(ctx, res)
		if err != nil {
			return results, err
		}
		results[i] = ar
	}
	return results, nil
}

// Compress runs one compression pass and persists the result.
func (e *Engine) Compress(ctx context.Context) (*compress.Result, error) {
	if !e.writer.TryLock() {
		return nil, asierrors.ConcurrentMutation("compress")
	}
	defer e.writer.Unlock()
	e.data.Lock()
	defer e.data.Unlock()

	res, err := e.compressor.Compress(ctx, e.store)
	if err != nil {
		return nil, err
	}
	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// Breakdown returns the current interpretability decomposition.
func (e *Engine) Breakdown() (*interpret.Breakdown, error) {
	e.data.RLock()
	defer e.data.RUnlock()
	return e.monitor.Breakdown(e.store)
}

// Interpretability returns the cached store score.
func (e *Engine) Interpretability() float64 {
	e.data.RLock()
	defer e.data.RUnlock()
	return e.store.Interpretability()
}

// Snapshot returns an isolated deep copy of the store.
func (e *Engine) Snapshot() *ontology.Store {
	e.data.RLock()
	defer e.data.RUnlock()
	return e.store.Clone()
}

// Scaffold builds a read-only projection for the given categories.
func (e *Engine) Scaffold(targetCategories []string) (*scaffold.Scaffolding, error) {
	e.data.RLock()
	defer e.data.RUnlock()
	return e.builder.Build(e.store, targetCategories)
}

// Validate checks rendered text against a scaffolding.
func (e *Engine) Validate(text string, sc *scaffold.Scaffolding) *scaffold.ValidationResult {
	return e.validator.Validate(text, sc)
}

// persist writes the store snapshot through the driver. On failure the
// in-memory store is ahead of the persisted one; the caller may retry by
// issuing another mutating operation.
func (e *Engine) persist(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}
	if err := e.driver.Save(ctx, e.store); err != nil {
		return errors.Wrap(err, "persist ontology")
	}
	return nil
}
