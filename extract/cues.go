package extract

import (
	"regexp"
	"strings"
)

// CueContext captures the contextual cues detected around a single match.
type CueContext struct {
	HasCitation       bool
	HasEnumeration    bool
	HasFormalRegister bool
}

// Scorer turns contextual cues into a local confidence. Scoring strategies
// are versioned so heuristics can be swapped and tested independently of
// integration and compression.
type Scorer interface {
	Version() string
	Score(cues CueContext) float64
}

// CueConfig holds the additive bonus scheme of the default scorer.
// The values are tunable configuration, not a hard contract, but scoring is
// always deterministic for a given configuration.
type CueConfig struct {
	Base             float64 `mapstructure:"base"`
	CitationBonus    float64 `mapstructure:"citation_bonus"`
	EnumerationBonus float64 `mapstructure:"enumeration_bonus"`
	FormalBonus      float64 `mapstructure:"formal_bonus"`
}

// DefaultCueConfig returns the documented default bonus scheme.
func DefaultCueConfig() CueConfig {
	return CueConfig{
		Base:             0.45,
		CitationBonus:    0.25,
		EnumerationBonus: 0.15,
		FormalBonus:      0.10,
	}
}

// additiveScorer is the default scoring strategy: a fixed base plus a fixed
// bonus per detected cue, clamped to [0,1].
type additiveScorer struct {
	cfg CueConfig
}

// NewAdditiveScorer creates the default additive scorer.
func NewAdditiveScorer(cfg CueConfig) Scorer {
	return &additiveScorer{cfg: cfg}
}

func (s *additiveScorer) Version() string {
	return "additive/v1"
}

func (s *additiveScorer) Score(cues CueContext) float64 {
	score := s.cfg.Base
	if cues.HasCitation {
		score += s.cfg.CitationBonus
	}
	if cues.HasEnumeration {
		score += s.cfg.EnumerationBonus
	}
	if cues.HasFormalRegister {
		score += s.cfg.FormalBonus
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

var (
	// citationPattern matches formal legal citations: article/section/paragraph
	// references and docket-style numbers.
	citationPattern = regexp.MustCompile(`(?i)(art(icle)?\.?\s*\d+|§+\s*\d+|sec(tion)?\.?\s*\d+|no\.\s*\d+/\d{2,4}|\d+\s+u\.s\.c\.)`)

	// enumerationPattern matches enumerated-list markers at line starts.
	enumerationPattern = regexp.MustCompile(`(?m)^\s*(\d+[.)]|[a-z][.)]|[-*•])\s+`)
)

// formalPhrases are formal-register markers; any occurrence counts once.
var formalPhrases = []string{
	"pursuant to",
	"in accordance with",
	"notwithstanding",
	"hereinafter",
	"whereas",
	"hereby",
	"shall be",
	"provided that",
}

// DetectCues inspects a context window around a match.
func DetectCues(window string) CueContext {
	lower := strings.ToLower(window)
	cues := CueContext{
		HasCitation:    citationPattern.MatchString(window),
		HasEnumeration: enumerationPattern.MatchString(window),
	}
	for _, phrase := range formalPhrases {
		if strings.Contains(lower, phrase) {
			cues.HasFormalRegister = true
			break
		}
	}
	return cues
}
