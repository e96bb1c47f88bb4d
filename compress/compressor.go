// Package compress merges low-usage concepts to recover interpretability.
package compress

import (
	"context"
	"log/slog"
	"sort"
	"time"

	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/interpret"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/similarity"
)

// Defaults for the compression pass. The cluster threshold is intentionally
// looser than the integration merge threshold: compression is more aggressive.
const (
	DefaultUsageThreshold   = 0.02
	DefaultClusterThreshold = 0.85
)

// Result reports one compression pass.
type Result struct {
	Merged   int     `json:"merged"`
	Clusters int     `json:"clusters"`
	NewScore float64 `json:"new_score"`
}

// Compressor clusters and merges low-usage concepts.
type Compressor struct {
	sim              *similarity.Engine
	monitor          *interpret.Monitor
	usageThreshold   float64
	clusterThreshold float64
	now              func() time.Time
}

// NewCompressor creates a compressor with default thresholds.
func NewCompressor(sim *similarity.Engine, monitor *interpret.Monitor) *Compressor {
	return NewCompressorWithThresholds(sim, monitor, DefaultUsageThreshold, DefaultClusterThreshold)
}

// NewCompressorWithThresholds creates a compressor with custom thresholds.
func NewCompressorWithThresholds(sim *similarity.Engine, monitor *interpret.Monitor, usage, cluster float64) *Compressor {
	return &Compressor{
		sim:              sim,
		monitor:          monitor,
		usageThreshold:   usage,
		clusterThreshold: cluster,
		now:              time.Now,
	}
}

// Compress runs one full pass: select low-usage concepts, cluster them by
// similarity, merge each cluster into its representative, re-point affected
// relationships and recompute the interpretability score.
//
// The pass operates on a clone and swaps it in at the end, so cancellation or
// an invariant violation leaves the store in its pre-compression state: the
// observable result is always pre- or fully-compressed, never partial.
func (c *Compressor) Compress(ctx context.Context, store *ontology.Store) (*Result, error) {
	work := store.Clone()
	out := &Result{}

	low := c.lowUsage(work)
	clusters := c.cluster(work, low)

	for _, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(cluster) < 2 {
			continue
		}
		rep := representative(cluster)
		for _, member := range cluster {
			if member.ID == rep.ID {
				continue
			}
			if err := c.checkRequiredGuard(work, member, rep); err != nil {
				return nil, err
			}
			c.absorb(work, rep, member)
			out.Merged++
		}
		out.Clusters++
	}

	score, err := c.monitor.Score(work)
	if err != nil {
		return nil, err
	}
	work.SetInterpretability(score)
	out.NewScore = score

	store.ReplaceWith(work)
	slog.Debug("compressed store",
		"merged", out.Merged,
		"clusters", out.Clusters,
		"concepts", store.ConceptCount(),
		"score", out.NewScore)
	return out, nil
}

// lowUsage selects concepts whose usage rate is below the threshold, in
// deterministic (created_at, id) order. With no analyses recorded yet there
// is no usage rate to judge, so nothing is selected.
func (c *Compressor) lowUsage(store *ontology.Store) []*ontology.Concept {
	total := store.TotalAnalyses()
	if total == 0 {
		return nil
	}
	var out []*ontology.Concept
	for _, concept := range store.Concepts() {
		rate := float64(concept.UsageCount) / float64(total)
		if rate < c.usageThreshold {
			out = append(out, concept)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// cluster groups concepts greedily with single linkage: a concept joins the
// first cluster containing any member at or above the cluster threshold.
// Deterministic given the same input store.
func (c *Compressor) cluster(store *ontology.Store, concepts []*ontology.Concept) [][]*ontology.Concept {
	var clusters [][]*ontology.Concept
	for _, concept := range concepts {
		placed := false
		for i := range clusters {
			for _, member := range clusters[i] {
				if c.sim.Score(store, concept, member) >= c.clusterThreshold {
					clusters[i] = append(clusters[i], concept)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			clusters = append(clusters, []*ontology.Concept{concept})
		}
	}
	return clusters
}

// representative picks the cluster survivor: highest usage_count, ties broken
// by earliest created_at, then smallest id.
func representative(cluster []*ontology.Concept) *ontology.Concept {
	rep := cluster[0]
	for _, c := range cluster[1:] {
		switch {
		case c.UsageCount > rep.UsageCount:
			rep = c
		case c.UsageCount == rep.UsageCount && c.CreatedAt.Before(rep.CreatedAt):
			rep = c
		case c.UsageCount == rep.UsageCount && c.CreatedAt.Equal(rep.CreatedAt) && c.ID < rep.ID:
			rep = c
		}
	}
	return rep
}

// checkRequiredGuard aborts the pass when deleting member would leave a
// required element without any representative. Absorption into a concept of
// the same classification keeps the element covered.
func (c *Compressor) checkRequiredGuard(store *ontology.Store, member, rep *ontology.Concept) error {
	required, err := c.monitor.RequiredFor(store.Scope())
	if err != nil {
		return err
	}
	memberPair := ontology.CategoryPair{Category: member.Category, Subcategory: member.Subcategory}
	repPair := ontology.CategoryPair{Category: rep.Category, Subcategory: rep.Subcategory}
	counts := store.CategoryCounts()

	for _, element := range required {
		if !element.Covers(memberPair) {
			continue
		}
		if element.Covers(repPair) {
			continue
		}
		// Count every concept still covering the element.
		covering := 0
		for pair, n := range counts {
			if element.Covers(pair) {
				covering += n
			}
		}
		if covering <= 1 {
			return asierrors.CompressionInvariant(element.Category, element.Subcategory)
		}
	}
	return nil
}

// absorb merges member into rep and removes member. Relationships referencing
// the removed concept are re-pointed at the representative; re-pointed edges
// that would self-loop or duplicate a stronger edge are dropped.
func (c *Compressor) absorb(store *ontology.Store, rep, member *ontology.Concept) {
	now := c.now()
	rep.AppendEvidence(now, member.Evidence...)
	rep.MergeKeywords(member.Keywords)
	rep.UsageCount += member.UsageCount
	rep.MergeCount++

	var repointed []*ontology.Relationship
	for _, rel := range store.Relationships() {
		if !rel.Touches(member.ID) {
			continue
		}
		moved := *rel
		if moved.SourceID == member.ID {
			moved.SourceID = rep.ID
		}
		if moved.TargetID == member.ID {
			moved.TargetID = rep.ID
		}
		repointed = append(repointed, &moved)
	}

	store.RemoveConcept(member.ID)
	for _, rel := range repointed {
		store.UpsertRelationship(rel)
	}
}
