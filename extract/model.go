// Package extract scans documents for concept candidates using configured
// pattern rules. Extraction is pure: it never touches the concept store.
package extract

import (
	"regexp"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/cognilex/asi/ontology"
)

// DocumentType is the supported set of input document types.
type DocumentType string

const (
	TypePlain    DocumentType = "plain"
	TypeMarkdown DocumentType = "markdown"
	TypeStatute  DocumentType = "statute"
	TypeRuling   DocumentType = "ruling"
	TypeContract DocumentType = "contract"
)

// ParseDocumentType validates a document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case TypePlain, TypeMarkdown, TypeStatute, TypeRuling, TypeContract:
		return DocumentType(s), nil
	}
	return "", errors.Errorf("unsupported document type: %s", s)
}

// Document is a plain-text input plus provenance metadata.
// Metadata has no behavioral effect on matching; it is stored as evidence
// provenance only.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Type     DocumentType      `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Pattern is a single compiled matching pattern within a rule.
type Pattern struct {
	ID   string `json:"id" mapstructure:"id"`
	Expr string `json:"expr" mapstructure:"expr"`

	re *regexp.Regexp
}

// Rule defines one extractable concept: a classification, its keywords and
// the patterns whose matches count as evidence.
type Rule struct {
	ID          string    `json:"id" mapstructure:"id"`
	Name        string    `json:"name" mapstructure:"name"`
	Category    string    `json:"category" mapstructure:"category"`
	Subcategory string    `json:"subcategory" mapstructure:"subcategory"`
	Keywords    []string  `json:"keywords" mapstructure:"keywords"`
	Patterns    []Pattern `json:"patterns" mapstructure:"patterns"`
}

// RuleSet groups rules and optionally guards them with a CEL expression over
// the document ("doc_type" string, "length" int). A rule set with no guard
// applies to every document.
type RuleSet struct {
	Name  string `json:"name" mapstructure:"name"`
	Guard string `json:"guard,omitempty" mapstructure:"guard"`
	Rules []Rule `json:"rules" mapstructure:"rules"`

	guard cel.Program
}

// Compile compiles every pattern and the optional guard expression.
// Must be called once before the rule set is handed to an extractor.
func (rs *RuleSet) Compile() error {
	for i := range rs.Rules {
		for j := range rs.Rules[i].Patterns {
			p := &rs.Rules[i].Patterns[j]
			re, err := regexp.Compile(p.Expr)
			if err != nil {
				return errors.Wrapf(err, "rule %s pattern %s", rs.Rules[i].ID, p.ID)
			}
			p.re = re
		}
	}
	if rs.Guard == "" {
		return nil
	}
	env, err := cel.NewEnv(
		cel.Variable("doc_type", cel.StringType),
		cel.Variable("length", cel.IntType),
	)
	if err != nil {
		return errors.Wrap(err, "cel environment")
	}
	ast, issues := env.Compile(rs.Guard)
	if issues != nil && issues.Err() != nil {
		return errors.Wrapf(issues.Err(), "rule set %s guard", rs.Name)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return errors.Wrapf(err, "rule set %s guard", rs.Name)
	}
	rs.guard = prg
	return nil
}

// applies evaluates the guard for a document. Guard evaluation errors disable
// the rule set for that document rather than failing extraction.
func (rs *RuleSet) applies(docType DocumentType, length int) bool {
	if rs.guard == nil {
		return true
	}
	out, _, err := rs.guard.Eval(map[string]interface{}{
		"doc_type": string(docType),
		"length":   length,
	})
	if err != nil {
		return false
	}
	ok, _ := out.Value().(bool)
	return ok
}

// Candidate is a concept proposal backed by evidence from one document.
type Candidate struct {
	RuleID      string              `json:"rule_id"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Subcategory string              `json:"subcategory"`
	Keywords    []string            `json:"keywords"`
	Evidence    []ontology.Evidence `json:"evidence"`
	Confidence  float64             `json:"confidence"`

	// firstPosition is the earliest match offset, used for proximity-based
	// relationship proposals.
	firstPosition int
}

// CandidateRelationship is a co-occurrence proposal. The integration engine
// has final authority on whether it is materialized.
type CandidateRelationship struct {
	SourceName string                    `json:"source_name"`
	TargetName string                    `json:"target_name"`
	Kind       ontology.RelationshipKind `json:"kind"`
	Strength   float64                   `json:"strength"`
}

// Result is the outcome of extracting one document.
type Result struct {
	DocumentID    string                  `json:"document_id"`
	Candidates    []Candidate             `json:"candidates"`
	Relationships []CandidateRelationship `json:"relationships"`
}
