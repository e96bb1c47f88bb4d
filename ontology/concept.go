// Package ontology provides the concept store: a bounded collection of domain
// concepts, their supporting evidence and their relationships.
package ontology

import (
	"sort"
	"strings"
	"time"
)

// RelationshipKind enumerates the supported relationship types.
type RelationshipKind string

const (
	KindSibling     RelationshipKind = "sibling"
	KindCousin      RelationshipKind = "cousin"
	KindTriggers    RelationshipKind = "triggers"
	KindValidates   RelationshipKind = "validates"
	KindPrecedes    RelationshipKind = "precedes"
	KindCrossDomain RelationshipKind = "cross_domain"
)

// Symmetric reports whether the kind is logically bidirectional.
// Symmetric relationships are stored once with lexicographically ordered
// endpoints and queried in both directions.
func (k RelationshipKind) Symmetric() bool {
	return k == KindSibling || k == KindCousin
}

// Valid reports whether the kind is part of the fixed enumeration.
func (k RelationshipKind) Valid() bool {
	switch k {
	case KindSibling, KindCousin, KindTriggers, KindValidates, KindPrecedes, KindCrossDomain:
		return true
	}
	return false
}

// Evidence is a snippet of source text supporting a concept's presence.
// Immutable once created; evidence is only appended, never edited.
type Evidence struct {
	DocumentID      string  `json:"document_id"`
	Snippet         string  `json:"snippet"`
	Context         string  `json:"context"`
	LocalConfidence float64 `json:"local_confidence"`
	Position        int     `json:"position"`
	PatternID       string  `json:"pattern_id"`
}

// Concept is a named unit of domain knowledge.
type Concept struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Keywords    []string   `json:"keywords"`
	Evidence    []Evidence `json:"evidence"`
	// Confidence is always derivable from Evidence; callers never set it
	// directly, they append evidence and recompute.
	Confidence  float64   `json:"confidence"`
	UsageCount  int       `json:"usage_count"`
	MergeCount  int       `json:"merge_count"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// MeanConfidence computes the aggregate confidence for a list of evidence.
// The aggregate is the plain mean of local confidences, so a concept's
// confidence is reproducible from its evidence log alone.
func MeanConfidence(evidence []Evidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range evidence {
		sum += e.LocalConfidence
	}
	return sum / float64(len(evidence))
}

// AppendEvidence appends evidence items and recomputes confidence.
func (c *Concept) AppendEvidence(now time.Time, items ...Evidence) {
	c.Evidence = append(c.Evidence, items...)
	c.Confidence = MeanConfidence(c.Evidence)
	c.LastUpdated = now
}

// KeywordSet returns the concept's keywords as a lowercased set.
func (c *Concept) KeywordSet() map[string]bool {
	set := make(map[string]bool, len(c.Keywords))
	for _, kw := range c.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			set[kw] = true
		}
	}
	return set
}

// PatternIDs returns the sorted set of pattern identifiers that produced the
// concept's evidence.
func (c *Concept) PatternIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range c.Evidence {
		if e.PatternID == "" || seen[e.PatternID] {
			continue
		}
		seen[e.PatternID] = true
		ids = append(ids, e.PatternID)
	}
	sort.Strings(ids)
	return ids
}

// MergeKeywords unions other into the concept's keywords, case-insensitive,
// preserving first-seen casing.
func (c *Concept) MergeKeywords(other []string) {
	seen := make(map[string]bool, len(c.Keywords))
	for _, kw := range c.Keywords {
		seen[strings.ToLower(kw)] = true
	}
	for _, kw := range other {
		lower := strings.ToLower(kw)
		if kw == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		c.Keywords = append(c.Keywords, kw)
	}
}

// Clone returns a deep copy of the concept.
func (c *Concept) Clone() *Concept {
	clone := *c
	clone.Keywords = append([]string(nil), c.Keywords...)
	clone.Evidence = append([]Evidence(nil), c.Evidence...)
	return &clone
}

// Relationship is a directed, typed, weighted edge between two concepts.
type Relationship struct {
	SourceID string           `json:"source_id"`
	TargetID string           `json:"target_id"`
	Kind     RelationshipKind `json:"kind"`
	Strength float64          `json:"strength"`
}

// Key returns the canonical identity of the relationship. Symmetric kinds are
// keyed with ordered endpoints so that A~B and B~A collapse to one record.
func (r *Relationship) Key() string {
	src, dst := r.SourceID, r.TargetID
	if r.Kind.Symmetric() && src > dst {
		src, dst = dst, src
	}
	return src + "|" + dst + "|" + string(r.Kind)
}

// Touches reports whether the relationship references the given concept id.
func (r *Relationship) Touches(id string) bool {
	return r.SourceID == id || r.TargetID == id
}
