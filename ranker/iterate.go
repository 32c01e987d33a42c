package ranker

import (
	"math"

	"golang.org/x/xerrors"
)

// convergenceThreshold is the maximum absolute per-page change that still
// counts as a converged round.
const convergenceThreshold = 0.001

// IteratePageRank computes the PageRank score of every page in the graph as
// the fixed point of the recurrence
//
//	rank(p) = (1-d)/N + d * Σ over q in backlinks(p) of rank(q)/outdeg(q)
//
// where a dangling page q contributes to every page's backlinks with an
// out-degree of N. All pages start at 1/N and every round recomputes every
// page from the previous round's snapshot. The loop stops after the first
// round in which no page moved by more than convergenceThreshold; that
// round's updates are kept.
//
// The computation involves no randomness: repeated calls on the same graph
// and config return identical tables.
func (r *Ranker) IteratePageRank() (RankTable, error) {
	if err := r.g.validate(); err != nil {
		return nil, xerrors.Errorf("iterate pagerank: %w", err)
	}

	numPages := float64(len(r.g))
	backlinks := r.g.backlinkIndex()

	prev := make(RankTable, len(r.g))
	for id := range r.g {
		prev[id] = 1.0 / numPages
	}

	next := make(RankTable, len(r.g))
	for {
		converged := true
		for id := range r.g {
			estimate := r.estimatePageRank(id, prev, backlinks[id])
			if math.Abs(estimate-prev[id]) > convergenceThreshold {
				converged = false
			}
			next[id] = estimate
		}

		// Swap the snapshots; next's contents are fully overwritten on
		// the following round.
		prev, next = next, prev
		if converged {
			return prev, nil
		}
	}
}

// estimatePageRank applies one step of the PageRank recurrence for page,
// reading every rank from the previous round's snapshot.
func (r *Ranker) estimatePageRank(page string, prev RankTable, backlinks []string) float64 {
	numPages := float64(len(r.g))

	var backlinkComponent float64
	for _, src := range backlinks {
		backlinkComponent += prev[src] / float64(r.g.effectiveOutDegree(src))
	}
	return (1.0-r.cfg.DampingFactor)/numPages + r.cfg.DampingFactor*backlinkComponent
}
