package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognilex/asi/extract"
	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/interpret"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Scope = []string{"contracts"}
	cfg.Scopes = map[string]ScopeConfig{
		"contracts": {
			Required:   []interpret.Element{{Category: "penalty"}, {Category: "obligation"}},
			Prohibited: []string{"tax advice"},
		},
	}
	cfg.RuleSets = []extract.RuleSet{{
		Name: "contract-basics",
		Rules: []extract.Rule{
			{
				ID:       "r-penalty",
				Name:     "Contractual Penalty",
				Category: "penalty",
				Keywords: []string{"penalty", "fine"},
				Patterns: []extract.Pattern{{ID: "p-penalty", Expr: `(?i)penalty`}},
			},
			{
				ID:          "r-deadline",
				Name:        "Delivery Deadline",
				Category:    "obligation",
				Subcategory: "delivery",
				Keywords:    []string{"deadline"},
				Patterns:    []extract.Pattern{{ID: "p-deadline", Expr: `(?i)deadline`}},
			},
		},
	}}
	require.NoError(t, cfg.Compile())
	return cfg
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	return eng
}

func TestAnalyzePipeline(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Analyze(ctx, extract.Document{
		ID:   "doc-1",
		Text: "Pursuant to the agreement, a penalty applies whenever the delivery deadline is missed.",
		Type: extract.TypePlain,
	})
	require.NoError(t, err)

	require.Equal(t, "doc-1", res.DocumentID)
	require.Equal(t, 2, res.Added)
	require.Equal(t, 0, res.Merged)
	require.Equal(t, 1, res.RelationshipsAdded)
	// Both required categories covered, every concept used: score 1.0, which
	// clears the 0.95 compression threshold.
	require.InDelta(t, 1.0, res.Score, 0.0001)
	require.False(t, res.NeedsCompression)

	snapshot := eng.Snapshot()
	require.Equal(t, 2, snapshot.ConceptCount())
	require.Equal(t, 1, snapshot.RelationshipCount())
	require.InDelta(t, 1.0, eng.Interpretability(), 0.0001)
}

func TestAnalyzeShortDocument(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Analyze(context.Background(), extract.Document{Text: "too short", Type: extract.TypePlain})
	require.True(t, asierrors.IsCode(err, asierrors.CodeInputTooShort))
	require.Equal(t, 0, eng.Snapshot().ConceptCount())
}

func TestIntegrateResultConcurrentMutation(t *testing.T) {
	eng := newTestEngine(t)

	// Simulate an in-flight mutation holding the writer slot.
	eng.writer.Lock()
	defer eng.writer.Unlock()

	_, err := eng.IntegrateResult(context.Background(), &extract.Result{DocumentID: "doc-1"})
	require.True(t, asierrors.IsCode(err, asierrors.CodeConcurrentMutation))

	_, err = eng.Compress(context.Background())
	require.True(t, asierrors.IsCode(err, asierrors.CodeConcurrentMutation))
}

func TestAnalyzeBatchSkipsShortDocuments(t *testing.T) {
	eng := newTestEngine(t)

	results, err := eng.AnalyzeBatch(context.Background(), []extract.Document{
		{ID: "doc-1", Text: "A penalty applies whenever the delivery deadline is missed by the seller.", Type: extract.TypePlain},
		{ID: "doc-2", Text: "too short", Type: extract.TypePlain},
		{ID: "doc-3", Text: "The delivery deadline for the second shipment is the first of March next year.", Type: extract.TypePlain},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results[0])
	require.Nil(t, results[1], "short document must be skipped with a nil entry")
	require.NotNil(t, results[2])
	require.Equal(t, "doc-3", results[2].DocumentID)
}

func TestScaffoldValidateRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Analyze(ctx, extract.Document{
		ID:   "doc-1",
		Text: "A penalty applies whenever the delivery deadline is missed by the seller.",
		Type: extract.TypePlain,
	})
	require.NoError(t, err)

	sc, err := eng.Scaffold(nil)
	require.NoError(t, err)
	require.Len(t, sc.PrimaryConcepts, 2)
	require.Equal(t, []string{"tax advice"}, sc.ProhibitedElements)

	good := eng.Validate("The contractual penalty is due once the delivery deadline passes.", sc)
	require.True(t, good.IsValid)

	bad := eng.Validate("This document offers tax advice about the penalty and the delivery deadline.", sc)
	require.False(t, bad.IsValid)
}

func TestBreakdownReflectsStore(t *testing.T) {
	eng := newTestEngine(t)

	b, err := eng.Breakdown()
	require.NoError(t, err)
	require.Equal(t, 1.0, b.Score, "empty store scores 1.0")

	_, err = eng.Analyze(context.Background(), extract.Document{
		ID:   "doc-1",
		Text: "A penalty applies to the seller if the goods arrive damaged or incomplete.",
		Type: extract.TypePlain,
	})
	require.NoError(t, err)

	b, err = eng.Breakdown()
	require.NoError(t, err)
	// Only penalty is covered; obligation is missing.
	require.InDelta(t, 0.5, b.Soundness, 0.0001)
	require.Len(t, b.Missing, 1)
}

func TestNeedsCompressionSignal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Thresholds.Interpretability = 0.99
	eng, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	// Only one of two required categories gets covered, so the score lands
	// at 0.6*1.0 + 0.4*0.5 = 0.8 and the signal fires.
	res, err := eng.Analyze(context.Background(), extract.Document{
		ID:   "doc-1",
		Text: "A penalty applies to the seller if the goods arrive damaged or incomplete.",
		Type: extract.TypePlain,
	})
	require.NoError(t, err)
	require.InDelta(t, 0.8, res.Score, 0.0001)
	require.True(t, res.NeedsCompression)
}
