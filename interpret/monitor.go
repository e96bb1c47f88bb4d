// Package interpret scores the coherence and soundness of a concept store.
package interpret

import (
	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/ontology"
)

// Element is a required (category, subcategory) classification for a scope.
// An empty Subcategory matches any subcategory within the category.
type Element struct {
	Category    string `json:"category" mapstructure:"category"`
	Subcategory string `json:"subcategory" mapstructure:"subcategory"`
}

// Covers reports whether a concept classification satisfies the element.
func (e Element) Covers(pair ontology.CategoryPair) bool {
	if e.Category != pair.Category {
		return false
	}
	return e.Subcategory == "" || e.Subcategory == pair.Subcategory
}

// Weights controls the score composition.
type Weights struct {
	Coherence float64 `mapstructure:"coherence"`
	Soundness float64 `mapstructure:"soundness"`
}

// DefaultWeights are the documented defaults.
var DefaultWeights = Weights{Coherence: 0.60, Soundness: 0.40}

// Breakdown is the decomposed interpretability score.
type Breakdown struct {
	Coherence float64   `json:"coherence"`
	Soundness float64   `json:"soundness"`
	Score     float64   `json:"score"`
	Missing   []Element `json:"missing,omitempty"`
}

// Monitor computes interpretability scores. Required elements are registered
// per scope tag at configuration time; scoring a store whose scope was never
// registered is an UNKNOWN_SCOPE error, never a silent default.
type Monitor struct {
	weights  Weights
	required map[string][]Element
}

// NewMonitor creates a monitor with default weights.
func NewMonitor() *Monitor {
	return NewMonitorWithWeights(DefaultWeights)
}

// NewMonitorWithWeights creates a monitor with custom weights.
func NewMonitorWithWeights(weights Weights) *Monitor {
	return &Monitor{
		weights:  weights,
		required: make(map[string][]Element),
	}
}

// RegisterScope registers the required elements for one scope tag.
func (m *Monitor) RegisterScope(scope string, elements []Element) {
	m.required[scope] = append([]Element(nil), elements...)
}

// RequiredFor returns the union of required elements over the given scope
// tags. Every tag must have been registered.
func (m *Monitor) RequiredFor(scope []string) ([]Element, error) {
	var out []Element
	seen := make(map[Element]bool)
	for _, tag := range scope {
		elements, ok := m.required[tag]
		if !ok {
			return nil, asierrors.UnknownScope(tag)
		}
		for _, e := range elements {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// Score computes the interpretability of a store in [0,1].
// An empty store scores 1.0 by convention (nothing can be incoherent yet).
// Pure: callers cache the result into the store themselves.
func (m *Monitor) Score(store *ontology.Store) (float64, error) {
	b, err := m.Breakdown(store)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

// Breakdown computes the full score decomposition.
func (m *Monitor) Breakdown(store *ontology.Store) (*Breakdown, error) {
	required, err := m.RequiredFor(store.Scope())
	if err != nil {
		return nil, err
	}

	if store.ConceptCount() == 0 {
		return &Breakdown{Coherence: 1.0, Soundness: 1.0, Score: 1.0, Missing: required}, nil
	}

	coherence := float64(store.UsedConceptCount()) / float64(store.ConceptCount())

	soundness := 1.0
	var missing []Element
	if len(required) > 0 {
		present := store.CategoryCounts()
		covered := 0
		for _, element := range required {
			found := false
			for pair := range present {
				if element.Covers(pair) {
					found = true
					break
				}
			}
			if found {
				covered++
			} else {
				missing = append(missing, element)
			}
		}
		soundness = float64(covered) / float64(len(required))
	}

	score := m.weights.Coherence*coherence + m.weights.Soundness*soundness
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return &Breakdown{
		Coherence: coherence,
		Soundness: soundness,
		Score:     score,
		Missing:   missing,
	}, nil
}
