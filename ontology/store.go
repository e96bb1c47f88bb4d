package ontology

import (
	"sort"
)

// Store is the ontology: all concepts and relationships for a declared scope.
//
// A Store is not safe for concurrent use. Integration and compression are the
// only components that mutate it, and the owning engine serializes them; reads
// may run concurrently only while no mutation is in flight.
type Store struct {
	scope         []string
	concepts      map[string]*Concept
	relationships map[string]*Relationship
	totalAnalyses int
	// interpretability is recomputed after every mutating operation and
	// never read stale.
	interpretability float64
}

// NewStore creates an empty store for the given scope tags.
// An empty store scores 1.0 by convention.
func NewStore(scope ...string) *Store {
	sorted := append([]string(nil), scope...)
	sort.Strings(sorted)
	return &Store{
		scope:            sorted,
		concepts:         make(map[string]*Concept),
		relationships:    make(map[string]*Relationship),
		interpretability: 1.0,
	}
}

// Scope returns the store's declared scope tags.
func (s *Store) Scope() []string {
	return append([]string(nil), s.scope...)
}

// ConceptCount returns the number of concepts in the store.
func (s *Store) ConceptCount() int {
	return len(s.concepts)
}

// GetConcept returns the concept with the given id, or nil.
func (s *Store) GetConcept(id string) *Concept {
	return s.concepts[id]
}

// Concepts returns all concepts sorted by id for deterministic iteration.
func (s *Store) Concepts() []*Concept {
	out := make([]*Concept, 0, len(s.concepts))
	for _, c := range s.concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByName returns the first concept with the given name (case-sensitive),
// or nil.
func (s *Store) FindByName(name string) *Concept {
	for _, c := range s.Concepts() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddConcept inserts a concept. Ids are unique within a store; inserting a
// duplicate id reports false and leaves the store unchanged.
func (s *Store) AddConcept(c *Concept) bool {
	if _, ok := s.concepts[c.ID]; ok {
		return false
	}
	s.concepts[c.ID] = c
	return true
}

// RemoveConcept deletes a concept and every relationship referencing it.
func (s *Store) RemoveConcept(id string) {
	delete(s.concepts, id)
	for key, rel := range s.relationships {
		if rel.Touches(id) {
			delete(s.relationships, key)
		}
	}
}

// Relationships returns all relationships sorted by canonical key.
func (s *Store) Relationships() []*Relationship {
	out := make([]*Relationship, 0, len(s.relationships))
	for _, r := range s.relationships {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// RelationshipCount returns the number of stored relationships.
func (s *Store) RelationshipCount() int {
	return len(s.relationships)
}

// UpsertRelationship stores a relationship if both endpoints exist and no
// equal-or-stronger record is already present for the same canonical key.
// Reports whether the relationship was stored.
func (s *Store) UpsertRelationship(r *Relationship) bool {
	if !r.Kind.Valid() || r.SourceID == r.TargetID {
		return false
	}
	if _, ok := s.concepts[r.SourceID]; !ok {
		return false
	}
	if _, ok := s.concepts[r.TargetID]; !ok {
		return false
	}
	if r.Strength < 0 {
		r.Strength = 0
	}
	if r.Strength > 1 {
		r.Strength = 1
	}
	key := r.Key()
	if existing, ok := s.relationships[key]; ok && existing.Strength >= r.Strength {
		return false
	}
	s.relationships[key] = r
	return true
}

// Neighborhood returns, for the given concept, the set of relationship kinds
// per neighbor. Symmetric kinds are visible from both endpoints.
func (s *Store) Neighborhood(id string) map[string]map[RelationshipKind]bool {
	out := make(map[string]map[RelationshipKind]bool)
	add := func(neighbor string, kind RelationshipKind) {
		if out[neighbor] == nil {
			out[neighbor] = make(map[RelationshipKind]bool)
		}
		out[neighbor][kind] = true
	}
	for _, r := range s.relationships {
		switch {
		case r.SourceID == id:
			add(r.TargetID, r.Kind)
		case r.TargetID == id && r.Kind.Symmetric():
			add(r.SourceID, r.Kind)
		}
	}
	return out
}

// IncrementAnalyses counts one processed document.
func (s *Store) IncrementAnalyses() {
	s.totalAnalyses++
}

// TotalAnalyses returns the number of documents processed into this store.
func (s *Store) TotalAnalyses() int {
	return s.totalAnalyses
}

// SetTotalAnalyses restores the analysis counter (persistence load only).
func (s *Store) SetTotalAnalyses(n int) {
	s.totalAnalyses = n
}

// Interpretability returns the cached interpretability score.
func (s *Store) Interpretability() float64 {
	return s.interpretability
}

// SetInterpretability caches a freshly computed interpretability score.
func (s *Store) SetInterpretability(score float64) {
	s.interpretability = score
}

// UsedConceptCount returns the number of concepts with usage_count > 0.
func (s *Store) UsedConceptCount() int {
	n := 0
	for _, c := range s.concepts {
		if c.UsageCount > 0 {
			n++
		}
	}
	return n
}

// CategoryPair identifies a (category, subcategory) classification.
type CategoryPair struct {
	Category    string
	Subcategory string
}

// CategoryCounts returns the number of concepts per (category, subcategory).
func (s *Store) CategoryCounts() map[CategoryPair]int {
	out := make(map[CategoryPair]int)
	for _, c := range s.concepts {
		out[CategoryPair{c.Category, c.Subcategory}]++
	}
	return out
}

// Clone returns a deep copy of the store. Mutating operations work on a clone
// and swap it in on success, so callers never observe partial state.
func (s *Store) Clone() *Store {
	clone := &Store{
		scope:            append([]string(nil), s.scope...),
		concepts:         make(map[string]*Concept, len(s.concepts)),
		relationships:    make(map[string]*Relationship, len(s.relationships)),
		totalAnalyses:    s.totalAnalyses,
		interpretability: s.interpretability,
	}
	for id, c := range s.concepts {
		clone.concepts[id] = c.Clone()
	}
	for key, r := range s.relationships {
		rel := *r
		clone.relationships[key] = &rel
	}
	return clone
}

// ReplaceWith swaps the store's contents with those of other. Used by
// integration and compression to commit a clone atomically.
func (s *Store) ReplaceWith(other *Store) {
	s.scope = other.scope
	s.concepts = other.concepts
	s.relationships = other.relationships
	s.totalAnalyses = other.totalAnalyses
	s.interpretability = other.interpretability
}
