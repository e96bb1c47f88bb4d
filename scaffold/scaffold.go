// Package scaffold projects the ontology into generation guidance for an
// external renderer, and validates the renderer's output. This is the entire
// surface the core exposes to the renderer: the core never calls the renderer
// and never inspects how the text was produced.
package scaffold

import (
	"sort"

	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
)

// ConceptRef is one primary concept the rendered text should cover.
type ConceptRef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Confidence  float64  `json:"confidence"`
	Keywords    []string `json:"keywords,omitempty"`
}

// RelationshipRef is a relationship between two primary concepts, by name.
type RelationshipRef struct {
	Source   string                    `json:"source"`
	Target   string                    `json:"target"`
	Kind     ontology.RelationshipKind `json:"kind"`
	Strength float64                   `json:"strength"`
}

// Scaffolding is a read-only projection of the store for a target category
// set.
type Scaffolding struct {
	Scope              []string            `json:"scope"`
	TargetCategories   []string            `json:"target_categories,omitempty"`
	PrimaryConcepts    []ConceptRef        `json:"primary_concepts"`
	RequiredElements   []interpret.Element `json:"required_elements,omitempty"`
	ProhibitedElements []string            `json:"prohibited_elements,omitempty"`
	Relationships      []RelationshipRef   `json:"relationships,omitempty"`
}

// Builder builds scaffolding projections.
type Builder struct {
	monitor    *interpret.Monitor
	prohibited map[string][]string
}

// NewBuilder creates a builder. Prohibited elements are configured per scope
// tag; scopes without prohibitions simply have none.
func NewBuilder(monitor *interpret.Monitor, prohibitedByScope map[string][]string) *Builder {
	if prohibitedByScope == nil {
		prohibitedByScope = make(map[string][]string)
	}
	return &Builder{monitor: monitor, prohibited: prohibitedByScope}
}

// Build projects the store for the requested categories. An empty category
// set selects every category. Build never mutates the store.
func (b *Builder) Build(store *ontology.Store, targetCategories []string) (*Scaffolding, error) {
	required, err := b.monitor.RequiredFor(store.Scope())
	if err != nil {
		return nil, err
	}

	targets := make(map[string]bool, len(targetCategories))
	for _, c := range targetCategories {
		targets[c] = true
	}
	selected := func(category string) bool {
		return len(targets) == 0 || targets[category]
	}

	sc := &Scaffolding{
		Scope:            store.Scope(),
		TargetCategories: append([]string(nil), targetCategories...),
	}

	byID := make(map[string]ConceptRef)
	for _, c := range store.Concepts() {
		if !selected(c.Category) {
			continue
		}
		ref := ConceptRef{
			ID:          c.ID,
			Name:        c.Name,
			Category:    c.Category,
			Subcategory: c.Subcategory,
			Confidence:  c.Confidence,
			Keywords:    append([]string(nil), c.Keywords...),
		}
		sc.PrimaryConcepts = append(sc.PrimaryConcepts, ref)
		byID[c.ID] = ref
	}
	sort.Slice(sc.PrimaryConcepts, func(i, j int) bool {
		a, b := sc.PrimaryConcepts[i], sc.PrimaryConcepts[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Name < b.Name
	})

	for _, element := range required {
		if selected(element.Category) {
			sc.RequiredElements = append(sc.RequiredElements, element)
		}
	}

	seen := make(map[string]bool)
	for _, tag := range store.Scope() {
		for _, p := range b.prohibited[tag] {
			if !seen[p] {
				seen[p] = true
				sc.ProhibitedElements = append(sc.ProhibitedElements, p)
			}
		}
	}
	sort.Strings(sc.ProhibitedElements)

	for _, rel := range store.Relationships() {
		src, okSrc := byID[rel.SourceID]
		dst, okDst := byID[rel.TargetID]
		if !okSrc || !okDst {
			continue
		}
		sc.Relationships = append(sc.Relationships, RelationshipRef{
			Source:   src.Name,
			Target:   dst.Name,
			Kind:     rel.Kind,
			Strength: rel.Strength,
		})
	}

	return sc, nil
}
