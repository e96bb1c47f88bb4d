package compress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/similarity"
)

func newTestCompressor(required map[string][]interpret.Element) *Compressor {
	monitor := interpret.NewMonitor()
	for scope, elements := range required {
		monitor.RegisterScope(scope, elements)
	}
	return NewCompressor(similarity.NewEngine(), monitor)
}

// seedConcept builds a stored concept whose similarity is driven by keywords
// and the shared pattern id.
func seedConcept(id, category string, keywords []string, patternID string, usage int, created time.Time) *ontology.Concept {
	return &ontology.Concept{
		ID:          id,
		Name:        id,
		Category:    category,
		Keywords:    keywords,
		Evidence:    []ontology.Evidence{{LocalConfidence: 0.6, PatternID: patternID}},
		Confidence:  0.6,
		UsageCount:  usage,
		CreatedAt:   created,
		LastUpdated: created,
	}
}

func TestCompressMergesSimilarLowUsageConcepts(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{"contracts": nil})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Usage rate 1/100 = 0.01 < 0.02 for the twins; the anchor stays above.
	store.AddConcept(seedConcept("a", "penalty", []string{"penalty", "fine"}, "p1", 1, t0))
	store.AddConcept(seedConcept("b", "penalty", []string{"penalty", "fine"}, "p1", 2, t0.Add(time.Hour)))
	store.AddConcept(seedConcept("anchor", "obligation", []string{"delivery"}, "p9", 50, t0))
	store.SetTotalAnalyses(300)

	res, err := c.Compress(context.Background(), store)
	require.NoError(t, err)

	require.Equal(t, 1, res.Merged)
	require.Equal(t, 1, res.Clusters)
	require.Equal(t, 2, store.ConceptCount())

	// b has the higher usage count, so it survives and absorbs a.
	require.Nil(t, store.GetConcept("a"))
	rep := store.GetConcept("b")
	require.NotNil(t, rep)
	require.Equal(t, 3, rep.UsageCount)
	require.Equal(t, 1, rep.MergeCount)
	require.Len(t, rep.Evidence, 2)
}

func TestCompressRepointsRelationships(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{"contracts": nil})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.AddConcept(seedConcept("a", "penalty", []string{"penalty"}, "p1", 1, t0))
	store.AddConcept(seedConcept("b", "penalty", []string{"penalty"}, "p1", 2, t0))
	store.AddConcept(seedConcept("anchor", "obligation", []string{"delivery"}, "p9", 50, t0))
	store.SetTotalAnalyses(300)
	// Matching edges toward the anchor keep the structural similarity at 1.0
	// so the pair clusters despite the non-empty neighborhoods.
	require.True(t, store.UpsertRelationship(&ontology.Relationship{
		SourceID: "a", TargetID: "anchor", Kind: ontology.KindTriggers, Strength: 0.7,
	}))
	require.True(t, store.UpsertRelationship(&ontology.Relationship{
		SourceID: "b", TargetID: "anchor", Kind: ontology.KindTriggers, Strength: 0.5,
	}))

	_, err := c.Compress(context.Background(), store)
	require.NoError(t, err)

	// The stronger edge from the absorbed concept replaces the survivor's own.
	require.Equal(t, 1, store.RelationshipCount())
	rel := store.Relationships()[0]
	require.Equal(t, "b", rel.SourceID)
	require.Equal(t, "anchor", rel.TargetID)
	require.InDelta(t, 0.7, rel.Strength, 0.0001)
}

func TestCompressGuardsRequiredElements(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{
		"contracts": {{Category: "penalty"}},
	})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Both cluster members are similar but only one covers the required
	// category; merging it away would leave the element uncovered.
	store.AddConcept(seedConcept("only-penalty", "penalty", []string{"penalty", "fine"}, "p1", 1, t0))
	store.AddConcept(seedConcept("remedy", "remedy", []string{"penalty", "fine"}, "p1", 2, t0))
	store.SetTotalAnalyses(300)
	before := store.Clone()

	_, err := c.Compress(context.Background(), store)
	require.Error(t, err)
	require.True(t, asierrors.IsCode(err, asierrors.CodeCompressionInvariant))

	// Abort leaves the store exactly as it was.
	require.Equal(t, before.ConceptCount(), store.ConceptCount())
	require.NotNil(t, store.GetConcept("only-penalty"))
	require.Equal(t, before.Interpretability(), store.Interpretability())
}

func TestCompressMergeWithinRequiredCategoryAllowed(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{
		"contracts": {{Category: "penalty"}},
	})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Both members cover the required category, so absorption keeps it
	// covered and the pass succeeds.
	store.AddConcept(seedConcept("a", "penalty", []string{"penalty", "fine"}, "p1", 1, t0))
	store.AddConcept(seedConcept("b", "penalty", []string{"penalty", "fine"}, "p1", 2, t0))
	store.SetTotalAnalyses(300)

	res, err := c.Compress(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, 1, res.Merged)
	require.Equal(t, 1, store.ConceptCount())
}

func TestCompressNoAnalysesIsNoop(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{"contracts": nil})
	store := ontology.NewStore("contracts")
	store.AddConcept(seedConcept("a", "penalty", []string{"penalty"}, "p1", 0, time.Now()))

	res, err := c.Compress(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, 0, res.Merged)
	require.Equal(t, 1, store.ConceptCount())
}

func TestCompressCancellation(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{"contracts": nil})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.AddConcept(seedConcept("a", "penalty", []string{"penalty", "fine"}, "p1", 1, t0))
	store.AddConcept(seedConcept("b", "penalty", []string{"penalty", "fine"}, "p1", 2, t0))
	store.SetTotalAnalyses(300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compress(ctx, store)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, store.ConceptCount(), "cancelled pass must not change the store")
}

func TestCompressDissimilarConceptsStaySeparate(t *testing.T) {
	c := newTestCompressor(map[string][]interpret.Element{"contracts": nil})
	store := ontology.NewStore("contracts")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.AddConcept(seedConcept("a", "penalty", []string{"penalty"}, "p1", 1, t0))
	store.AddConcept(seedConcept("b", "obligation", []string{"delivery"}, "p2", 1, t0))
	store.SetTotalAnalyses(300)

	res, err := c.Compress(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, 0, res.Merged)
	require.Equal(t, 2, store.ConceptCount())
}
