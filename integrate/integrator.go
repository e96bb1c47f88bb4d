// Package integrate folds extraction candidates into a concept store.
package integrate

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cognilex/asi/extract"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/similarity"
)

// DefaultMergeThreshold is the similarity above which a candidate is merged
// into an existing concept instead of creating a new one.
const DefaultMergeThreshold = 0.90

// Result reports one integration call (one document).
type Result struct {
	Added              int     `json:"added"`
	Merged             int     `json:"merged"`
	RelationshipsAdded int     `json:"relationships_added"`
	Score              float64 `json:"score"`
}

// Integrator decides, per candidate, whether to merge or add.
type Integrator struct {
	sim            *similarity.Engine
	monitor        *interpret.Monitor
	mergeThreshold float64
	now            func() time.Time
}

// NewIntegrator creates an integrator with the default merge threshold.
func NewIntegrator(sim *similarity.Engine, monitor *interpret.Monitor) *Integrator {
	return NewIntegratorWithThreshold(sim, monitor, DefaultMergeThreshold)
}

// NewIntegratorWithThreshold creates an integrator with a custom threshold.
func NewIntegratorWithThreshold(sim *similarity.Engine, monitor *interpret.Monitor, threshold float64) *Integrator {
	return &Integrator{
		sim:            sim,
		monitor:        monitor,
		mergeThreshold: threshold,
		now:            time.Now,
	}
}

// Integrate folds one document's extraction result into the store.
//
// The operation is atomic per document: all work happens on a clone that is
// swapped in only after the interpretability score has been recomputed, so a
// failure leaves the store exactly as it was. Exactly one analysis is counted
// per call.
func (it *Integrator) Integrate(store *ontology.Store, res *extract.Result) (*Result, error) {
	work := store.Clone()
	now := it.now()

	// Resolved concept id per candidate name, for relationship materialization.
	resolved := make(map[string]string, len(res.Candidates))
	out := &Result{}

	for i := range res.Candidates {
		cand := &res.Candidates[i]
		transient := candidateConcept(cand, now)

		best, bestScore := it.mostSimilar(work, transient)
		if best != nil && bestScore > it.mergeThreshold {
			best.AppendEvidence(now, cand.Evidence...)
			best.MergeKeywords(cand.Keywords)
			best.MergeCount++
			best.UsageCount++
			resolved[cand.Name] = best.ID
			out.Merged++
			continue
		}

		transient.ID = conceptID(cand)
		if added := work.AddConcept(transient); !added {
			// Same classification extracted twice in one document resolves
			// to the concept created moments ago.
			existing := work.GetConcept(transient.ID)
			existing.AppendEvidence(now, cand.Evidence...)
			existing.MergeCount++
			resolved[cand.Name] = existing.ID
			out.Merged++
			continue
		}
		resolved[cand.Name] = transient.ID
		out.Added++
	}

	for _, rel := range res.Relationships {
		srcID, okSrc := resolved[rel.SourceName]
		dstID, okDst := resolved[rel.TargetName]
		if !okSrc || !okDst {
			continue
		}
		stored := work.UpsertRelationship(&ontology.Relationship{
			SourceID: srcID,
			TargetID: dstID,
			Kind:     rel.Kind,
			Strength: rel.Strength,
		})
		if stored {
			out.RelationshipsAdded++
		}
	}

	work.IncrementAnalyses()

	score, err := it.monitor.Score(work)
	if err != nil {
		// Nothing from this document is applied.
		return nil, err
	}
	work.SetInterpretability(score)
	out.Score = score

	store.ReplaceWith(work)
	slog.Debug("integrated document",
		"document_id", res.DocumentID,
		"added", out.Added,
		"merged", out.Merged,
		"relationships", out.RelationshipsAdded,
		"score", out.Score)
	return out, nil
}

// mostSimilar returns the most similar existing concept. Concepts are visited
// in id order and only a strictly greater score displaces the current best,
// so ties resolve deterministically.
func (it *Integrator) mostSimilar(store *ontology.Store, candidate *ontology.Concept) (*ontology.Concept, float64) {
	var best *ontology.Concept
	bestScore := 0.0
	for _, existing := range store.Concepts() {
		score := it.sim.Score(store, candidate, existing)
		if score > bestScore {
			best = existing
			bestScore = score
		}
	}
	return best, bestScore
}

// candidateConcept builds a transient concept from a candidate. New concepts
// start with usage_count 1: the extraction match that produced them counts as
// their first activation.
func candidateConcept(cand *extract.Candidate, now time.Time) *ontology.Concept {
	c := &ontology.Concept{
		Name:        cand.Name,
		Category:    cand.Category,
		Subcategory: cand.Subcategory,
		Keywords:    append([]string(nil), cand.Keywords...),
		Evidence:    append([]ontology.Evidence(nil), cand.Evidence...),
		UsageCount:  1,
		CreatedAt:   now,
		LastUpdated: now,
	}
	c.Confidence = ontology.MeanConfidence(c.Evidence)
	return c
}

// conceptID derives a stable id from the candidate classification, so
// integrating the same candidate list into equal stores always produces the
// same resulting store.
func conceptID(cand *extract.Candidate) string {
	name := "asi://concept/" + cand.Category + "/" + cand.Subcategory + "/" + cand.Name
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
