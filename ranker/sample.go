package ranker

import (
	"sort"

	"golang.org/x/xerrors"
)

// SamplePageRank estimates the PageRank score of every page in the graph by
// simulating a random surfer for Config.SampleCount steps. The walk starts
// on a page chosen uniformly at random; every subsequent page is drawn from
// the transition distribution of the page the surfer currently visits. Each
// page's score is the fraction of steps that visited it, so the returned
// table always sums to exactly 1.
//
// The result depends on Config.Rand; two runs only agree when the caller
// seeds it explicitly.
func (r *Ranker) SamplePageRank() (RankTable, error) {
	if err := r.g.validate(); err != nil {
		return nil, xerrors.Errorf("sample pagerank: %w", err)
	}

	pages := r.g.sortedPages()
	visits := make(map[string]int, len(pages))

	cur := pages[r.cfg.Rand.Intn(len(pages))]
	visits[cur]++

	// Cumulative transition weights over the stable page ordering; reused
	// across steps to avoid one allocation per draw.
	cumWeights := make([]float64, len(pages))
	for step := 1; step < r.cfg.SampleCount; step++ {
		dist, err := Transition(r.g, cur, r.cfg.DampingFactor)
		if err != nil {
			return nil, xerrors.Errorf("sample pagerank: %w", err)
		}

		cur = pages[r.drawPage(pages, dist, cumWeights)]
		visits[cur]++
	}

	ranks := make(RankTable, len(pages))
	for _, id := range pages {
		ranks[id] = float64(visits[id]) / float64(r.cfg.SampleCount)
	}
	return ranks, nil
}

// drawPage performs a weighted random selection over pages, where the weight
// of each page is its probability in dist. It populates cumWeights with the
// running distribution totals and binary-searches them with a uniform draw.
func (r *Ranker) drawPage(pages []string, dist Distribution, cumWeights []float64) int {
	var total float64
	for i, id := range pages {
		total += dist[id]
		cumWeights[i] = total
	}

	idx := sort.SearchFloat64s(cumWeights, r.cfg.Rand.Float64()*total)
	if idx == len(pages) {
		idx = len(pages) - 1
	}
	return idx
}
