// Package similarity computes multi-factor similarity between concepts.
package similarity

import (
	"github.com/cognilex/asi/ontology"
)

// Weights controls the contribution of each sub-score.
type Weights struct {
	Keyword   float64 // Jaccard over keyword sets
	Pattern   float64 // Jaccard over matched pattern identifiers
	Structure float64 // relationship-neighborhood overlap
}

// DefaultWeights are the documented defaults.
var DefaultWeights = Weights{
	Keyword:   0.5,
	Pattern:   0.3,
	Structure: 0.2,
}

// Engine computes similarity scores between a pair of concepts.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine with default weights.
func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights}
}

// NewEngineWithWeights creates an engine with custom weights.
func NewEngineWithWeights(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Score returns the similarity between a and b in [0,1]. The store supplies
// each concept's relationship neighborhood; concepts unknown to the store
// (candidates) simply have an empty neighborhood.
//
// When both neighborhoods are empty the structural comparison is vacuous and
// the remaining weights are renormalized, so two concepts with identical
// keywords and patterns score 1.0 even before any relationship exists.
// Score(a,b) == Score(b,a) for all pairs.
func (e *Engine) Score(store *ontology.Store, a, b *ontology.Concept) float64 {
	keyword := Jaccard(a.KeywordSet(), b.KeywordSet())
	pattern := jaccardStrings(a.PatternIDs(), b.PatternIDs())

	na := store.Neighborhood(a.ID)
	nb := store.Neighborhood(b.ID)
	if len(na) == 0 && len(nb) == 0 {
		total := e.weights.Keyword + e.weights.Pattern
		if total == 0 {
			return 0
		}
		return clamp01((keyword*e.weights.Keyword + pattern*e.weights.Pattern) / total)
	}

	structure := neighborhoodOverlap(na, nb, a.ID, b.ID)
	score := keyword*e.weights.Keyword + pattern*e.weights.Pattern + structure*e.weights.Structure
	return clamp01(score)
}

// Jaccard computes the Jaccard index of two sets.
// Empty against empty is 0, never a division by zero.
func Jaccard(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 0
	}
	intersection := 0
	for item := range set1 {
		if set2[item] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func jaccardStrings(a, b []string) float64 {
	set1 := make(map[string]bool, len(a))
	for _, s := range a {
		set1[s] = true
	}
	set2 := make(map[string]bool, len(b))
	for _, s := range b {
		set2[s] = true
	}
	return Jaccard(set1, set2)
}

// neighborhoodOverlap compares the relationship kinds two concepts hold toward
// common neighbors. For each neighbor in either neighborhood (excluding the
// pair itself), the per-neighbor score is the Jaccard index of the kind sets;
// the result is the mean over the neighbor union, bounded in [0,1] and
// symmetric by construction.
func neighborhoodOverlap(na, nb map[string]map[ontology.RelationshipKind]bool, aID, bID string) float64 {
	neighbors := make(map[string]bool)
	for n := range na {
		if n != bID {
			neighbors[n] = true
		}
	}
	for n := range nb {
		if n != aID {
			neighbors[n] = true
		}
	}
	if len(neighbors) == 0 {
		return 0
	}

	sum := 0.0
	for n := range neighbors {
		kindsA := na[n]
		kindsB := nb[n]
		if len(kindsA) == 0 || len(kindsB) == 0 {
			continue
		}
		intersection := 0
		for k := range kindsA {
			if kindsB[k] {
				intersection++
			}
		}
		union := len(kindsA) + len(kindsB) - intersection
		sum += float64(intersection) / float64(union)
	}
	return sum / float64(len(neighbors))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
