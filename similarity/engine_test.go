package similarity

import (
	"testing"

	"github.com/cognilex/asi/ontology"
)

func concept(id string, keywords []string, patternIDs ...string) *ontology.Concept {
	c := &ontology.Concept{ID: id, Name: id, Keywords: keywords}
	for _, p := range patternIDs {
		c.Evidence = append(c.Evidence, ontology.Evidence{PatternID: p})
	}
	return c
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		expected float64
	}{
		{
			name:     "identical sets",
			a:        []string{"penalty", "fine"},
			b:        []string{"penalty", "fine"},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			a:        []string{"penalty"},
			b:        []string{"deadline"},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			a:        []string{"penalty", "fine"},
			b:        []string{"fine", "deadline"},
			expected: 0.333,
		},
		{
			name:     "both empty",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
		{
			name:     "one empty",
			a:        []string{"penalty"},
			b:        nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set1 := make(map[string]bool)
			for _, s := range tt.a {
				set1[s] = true
			}
			set2 := make(map[string]bool)
			for _, s := range tt.b {
				set2[s] = true
			}
			result := Jaccard(set1, set2)
			if diff := result - tt.expected; diff > 0.01 || diff < -0.01 {
				t.Errorf("Jaccard() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestScoreRenormalizesWithoutNeighborhoods(t *testing.T) {
	// Outside any relationship structure, two concepts with identical
	// keywords and patterns are a perfect match, not capped at 0.8.
	store := ontology.NewStore("contracts")
	a := concept("a", []string{"penalty", "fine"}, "p1")
	b := concept("b", []string{"penalty", "fine"}, "p1")

	score := NewEngine().Score(store, a, b)
	if diff := score - 1.0; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Score() = %v, want 1.0", score)
	}
}

func TestScoreIsSymmetric(t *testing.T) {
	store := ontology.NewStore("contracts")
	a := concept("a", []string{"penalty", "fine"}, "p1")
	b := concept("b", []string{"fine", "deadline"}, "p2")
	store.AddConcept(a)
	store.AddConcept(b)
	c := concept("c", []string{"deadline"})
	store.AddConcept(c)
	store.UpsertRelationship(&ontology.Relationship{SourceID: "a", TargetID: "c", Kind: ontology.KindSibling, Strength: 0.5})
	store.UpsertRelationship(&ontology.Relationship{SourceID: "b", TargetID: "c", Kind: ontology.KindSibling, Strength: 0.5})

	eng := NewEngine()
	ab := eng.Score(store, a, b)
	ba := eng.Score(store, b, a)
	if ab != ba {
		t.Errorf("Score(a,b) = %v, Score(b,a) = %v, want equal", ab, ba)
	}
	if ab <= 0 || ab > 1 {
		t.Errorf("Score = %v, want in (0,1]", ab)
	}
}

func TestScoreUsesNeighborhoodStructure(t *testing.T) {
	// a and b share a common neighbor with the same relationship kind, so the
	// structural factor contributes its full weight.
	store := ontology.NewStore("contracts")
	a := concept("a", []string{"penalty"}, "p1")
	b := concept("b", []string{"penalty"}, "p1")
	hub := concept("hub", []string{"deadline"})
	store.AddConcept(a)
	store.AddConcept(b)
	store.AddConcept(hub)
	store.UpsertRelationship(&ontology.Relationship{SourceID: "a", TargetID: "hub", Kind: ontology.KindTriggers, Strength: 0.5})
	store.UpsertRelationship(&ontology.Relationship{SourceID: "b", TargetID: "hub", Kind: ontology.KindTriggers, Strength: 0.5})

	// keyword 1.0 * 0.5 + pattern 1.0 * 0.3 + structure 1.0 * 0.2 = 1.0
	score := NewEngine().Score(store, a, b)
	if diff := score - 1.0; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Score() = %v, want 1.0", score)
	}
}

func TestScoreDisjointConcepts(t *testing.T) {
	store := ontology.NewStore("contracts")
	a := concept("a", []string{"penalty"}, "p1")
	b := concept("b", []string{"deadline"}, "p2")

	if score := NewEngine().Score(store, a, b); score != 0 {
		t.Errorf("Score() = %v, want 0 for fully disjoint concepts", score)
	}
}

func TestScoreCustomWeights(t *testing.T) {
	store := ontology.NewStore("contracts")
	a := concept("a", []string{"penalty"}, "p1")
	b := concept("b", []string{"penalty"}, "p2")

	// Only the keyword factor counts; pattern mismatch is ignored.
	eng := NewEngineWithWeights(Weights{Keyword: 1, Pattern: 0, Structure: 0})
	if score := eng.Score(store, a, b); score != 1.0 {
		t.Errorf("Score() = %v, want 1.0 with keyword-only weights", score)
	}
}
