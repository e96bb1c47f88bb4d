// Package renderer adapts external text generators to the scaffolding
// contract. The core engine never imports this package; orchestration
// (the CLI) wires scaffold → renderer → validate.
package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognilex/asi/scaffold"
)

// Renderer turns scaffolding into fluent natural-language text.
type Renderer interface {
	Render(ctx context.Context, sc *scaffold.Scaffolding) (string, error)
}

// BuildPrompt renders the scaffolding as generation instructions. Exposed so
// alternative renderer implementations share the same contract wording.
func BuildPrompt(sc *scaffold.Scaffolding) string {
	var b strings.Builder
	b.WriteString("Write a clear, formal text that covers every concept listed below.\n\n")

	b.WriteString("Concepts to cover:\n")
	for _, ref := range sc.PrimaryConcepts {
		fmt.Fprintf(&b, "- %s (%s", ref.Name, ref.Category)
		if ref.Subcategory != "" {
			fmt.Fprintf(&b, "/%s", ref.Subcategory)
		}
		b.WriteString(")\n")
	}

	if len(sc.RequiredElements) > 0 {
		b.WriteString("\nRequired elements:\n")
		for _, e := range sc.RequiredElements {
			fmt.Fprintf(&b, "- %s", e.Category)
			if e.Subcategory != "" {
				fmt.Fprintf(&b, "/%s", e.Subcategory)
			}
			b.WriteString("\n")
		}
	}

	if len(sc.ProhibitedElements) > 0 {
		b.WriteString("\nNever mention:\n")
		for _, p := range sc.ProhibitedElements {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	if len(sc.Relationships) > 0 {
		b.WriteString("\nRelationships to reflect:\n")
		for _, r := range sc.Relationships {
			fmt.Fprintf(&b, "- %s %s %s\n", r.Source, r.Kind, r.Target)
		}
	}

	return b.String()
}
