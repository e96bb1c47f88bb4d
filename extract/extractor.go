package extract

import (
	"strings"

	"github.com/lithammer/shortuuid/v4"

	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/ontology"
)

// Config holds extraction parameters.
type Config struct {
	// MinDocumentLength is the minimum document length in runes; shorter
	// input fails with INPUT_TOO_SHORT.
	MinDocumentLength int `mapstructure:"min_document_length"`
	// MinConfidence is the aggregate confidence below which a candidate is
	// discarded silently.
	MinConfidence float64 `mapstructure:"min_confidence"`
	// ContextWindow is the number of bytes captured on each side of a match.
	ContextWindow int `mapstructure:"context_window"`
	// ProximityWindow is the maximum distance (bytes) at which two candidates
	// are proposed as related.
	ProximityWindow int `mapstructure:"proximity_window"`
	// MaxMatchesPerPattern bounds evidence per pattern per document.
	MaxMatchesPerPattern int       `mapstructure:"max_matches_per_pattern"`
	Cues                 CueConfig `mapstructure:"cues"`
}

// DefaultConfig returns the documented extraction defaults.
func DefaultConfig() Config {
	return Config{
		MinDocumentLength:    40,
		MinConfidence:        0.3,
		ContextWindow:        160,
		ProximityWindow:      400,
		MaxMatchesPerPattern: 20,
		Cues:                 DefaultCueConfig(),
	}
}

// Extractor scans documents against compiled rule sets.
type Extractor struct {
	sets   []RuleSet
	cfg    Config
	scorer Scorer
}

// NewExtractor creates an extractor with the default additive scorer.
// Rule sets must already be compiled.
func NewExtractor(sets []RuleSet, cfg Config) *Extractor {
	return NewExtractorWithScorer(sets, cfg, NewAdditiveScorer(cfg.Cues))
}

// NewExtractorWithScorer creates an extractor with a custom scoring strategy.
func NewExtractorWithScorer(sets []RuleSet, cfg Config, scorer Scorer) *Extractor {
	return &Extractor{sets: sets, cfg: cfg, scorer: scorer}
}

// ScorerVersion returns the active scoring strategy version.
func (x *Extractor) ScorerVersion() string {
	return x.scorer.Version()
}

// Extract scans one document and returns concept candidates with evidence,
// plus co-occurrence relationship proposals. Extraction is deterministic for
// a given document and configuration, and has no side effects.
//
// A document with zero matches is a valid empty result, not an error.
func (x *Extractor) Extract(doc Document) (*Result, error) {
	trimmed := strings.TrimSpace(doc.Text)
	if length := len([]rune(trimmed)); length < x.cfg.MinDocumentLength {
		return nil, asierrors.InputTooShort(length, x.cfg.MinDocumentLength)
	}

	docID := doc.ID
	if docID == "" {
		docID = shortuuid.New()
	}

	text := doc.Text
	if doc.Type == TypeMarkdown {
		text = markdownToPlain(doc.Text)
	}

	result := &Result{DocumentID: docID}
	for i := range x.sets {
		set := &x.sets[i]
		if !set.applies(doc.Type, len(text)) {
			continue
		}
		for j := range set.Rules {
			if cand, ok := x.scanRule(&set.Rules[j], text, docID); ok {
				result.Candidates = append(result.Candidates, cand)
			}
		}
	}

	result.Relationships = x.proposeRelationships(result.Candidates)
	return result, nil
}

// scanRule collects evidence for one rule. Reports false when the rule
// matched nothing or the aggregate confidence stayed below the minimum.
func (x *Extractor) scanRule(rule *Rule, text, docID string) (Candidate, bool) {
	var evidence []ontology.Evidence
	first := -1

	for i := range rule.Patterns {
		p := &rule.Patterns[i]
		if p.re == nil {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(text, x.cfg.MaxMatchesPerPattern) {
			window := contextWindow(text, loc[0], loc[1], x.cfg.ContextWindow)
			cues := DetectCues(window)
			evidence = append(evidence, ontology.Evidence{
				DocumentID:      docID,
				Snippet:         text[loc[0]:loc[1]],
				Context:         window,
				LocalConfidence: x.scorer.Score(cues),
				Position:        loc[0],
				PatternID:       p.ID,
			})
			if first == -1 || loc[0] < first {
				first = loc[0]
			}
		}
	}

	if len(evidence) == 0 {
		return Candidate{}, false
	}
	confidence := ontology.MeanConfidence(evidence)
	if confidence < x.cfg.MinConfidence {
		return Candidate{}, false
	}

	return Candidate{
		RuleID:        rule.ID,
		Name:          rule.Name,
		Category:      rule.Category,
		Subcategory:   rule.Subcategory,
		Keywords:      append([]string(nil), rule.Keywords...),
		Evidence:      evidence,
		Confidence:    confidence,
		firstPosition: first,
	}, true
}

// proposeRelationships pairs candidates found in close proximity. Strength is
// proportional to proximity; candidates of the same category are proposed as
// siblings, across categories as cross_domain.
func (x *Extractor) proposeRelationships(candidates []Candidate) []CandidateRelationship {
	if x.cfg.ProximityWindow <= 0 {
		return nil
	}
	var out []CandidateRelationship
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := &candidates[i], &candidates[j]
			dist := a.firstPosition - b.firstPosition
			if dist < 0 {
				dist = -dist
			}
			if dist > x.cfg.ProximityWindow {
				continue
			}
			kind := ontology.KindSibling
			if a.Category != b.Category {
				kind = ontology.KindCrossDomain
			}
			out = append(out, CandidateRelationship{
				SourceName: a.Name,
				TargetName: b.Name,
				Kind:       kind,
				Strength:   1.0 - float64(dist)/float64(x.cfg.ProximityWindow),
			})
		}
	}
	return out
}

func contextWindow(text string, start, end, size int) string {
	lo := start - size
	if lo < 0 {
		lo = 0
	}
	hi := end + size
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
