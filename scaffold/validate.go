package scaffold

import (
	"fmt"
	"strings"

	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
)

// Matcher decides whether a term is textually present in rendered output.
// The detection method is pluggable; the default is lexical containment.
type Matcher interface {
	Match(text, term string) bool
}

// LexicalMatcher matches terms by case-insensitive containment.
type LexicalMatcher struct{}

func (LexicalMatcher) Match(text, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

// IssueKind classifies validation findings.
type IssueKind string

const (
	IssueMissingConcept  IssueKind = "missing_concept"
	IssueMissingRequired IssueKind = "missing_required"
	IssueProhibited      IssueKind = "prohibited_present"
)

// Issue is one validation finding.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

// ValidationResult reports whether rendered text honors its scaffolding.
type ValidationResult struct {
	IsValid               bool    `json:"is_valid"`
	InterpretabilityScore float64 `json:"interpretability_score"`
	Issues                []Issue `json:"issues,omitempty"`
}

// DefaultValidationThreshold is the local score at or above which rendered
// text is considered valid (absent prohibited elements).
const DefaultValidationThreshold = 0.80

// Validator checks rendered text against a scaffolding.
type Validator struct {
	matcher   Matcher
	weights   interpret.Weights
	threshold float64
}

// NewValidator creates a validator with the lexical matcher and defaults.
func NewValidator() *Validator {
	return &Validator{
		matcher:   LexicalMatcher{},
		weights:   interpret.DefaultWeights,
		threshold: DefaultValidationThreshold,
	}
}

// NewValidatorWith creates a validator with a custom matcher, weights and
// validity threshold.
func NewValidatorWith(matcher Matcher, weights interpret.Weights, threshold float64) *Validator {
	return &Validator{matcher: matcher, weights: weights, threshold: threshold}
}

// Validate checks which primary concepts and required elements are detectable
// in the rendered text and whether any prohibited element appears. The local
// interpretability score uses the same coherence/soundness composition as the
// store-level monitor, computed over this document's coverage only.
//
// The text is valid iff the local score meets the threshold and no prohibited
// element was found.
func (v *Validator) Validate(text string, sc *Scaffolding) *ValidationResult {
	result := &ValidationResult{}

	detected := make(map[string]ConceptRef)
	for _, ref := range sc.PrimaryConcepts {
		if v.detectConcept(text, ref) {
			detected[ref.ID] = ref
		} else {
			result.Issues = append(result.Issues, Issue{
				Kind:   IssueMissingConcept,
				Detail: ref.Name,
			})
		}
	}

	coherence := 1.0
	if len(sc.PrimaryConcepts) > 0 {
		coherence = float64(len(detected)) / float64(len(sc.PrimaryConcepts))
	}

	soundness := 1.0
	if len(sc.RequiredElements) > 0 {
		covered := 0
		for _, element := range sc.RequiredElements {
			if coveredByDetected(element, detected) {
				covered++
			} else {
				result.Issues = append(result.Issues, Issue{
					Kind:   IssueMissingRequired,
					Detail: fmt.Sprintf("%s/%s", element.Category, element.Subcategory),
				})
			}
		}
		soundness = float64(covered) / float64(len(sc.RequiredElements))
	}

	prohibited := false
	for _, term := range sc.ProhibitedElements {
		if v.matcher.Match(text, term) {
			prohibited = true
			result.Issues = append(result.Issues, Issue{
				Kind:   IssueProhibited,
				Detail: term,
			})
		}
	}

	result.InterpretabilityScore = v.weights.Coherence*coherence + v.weights.Soundness*soundness
	result.IsValid = result.InterpretabilityScore >= v.threshold && !prohibited
	return result
}

// detectConcept reports whether a concept is textually present: its name or
// any of its keywords matches.
func (v *Validator) detectConcept(text string, ref ConceptRef) bool {
	if v.matcher.Match(text, ref.Name) {
		return true
	}
	for _, kw := range ref.Keywords {
		if v.matcher.Match(text, kw) {
			return true
		}
	}
	return false
}

func coveredByDetected(element interpret.Element, detected map[string]ConceptRef) bool {
	for _, ref := range detected {
		pair := ontology.CategoryPair{Category: ref.Category, Subcategory: ref.Subcategory}
		if element.Covers(pair) {
			return true
		}
	}
	return false
}
