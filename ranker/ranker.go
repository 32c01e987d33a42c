/*
   Implements Google's famous and first
   PageRank algorithm https://en.wikipedia.org/wiki/PageRank
*/
package ranker

import (
	"golang.org/x/xerrors"
)

/*
   PageRank works by counting the number and quality of links to
   a page to determine a rough estimate of how important the page is.
   The underlying assumption is that more important pages are likely
   to receive more links from other pages.

   To calculate the score for each page in the graph, this package
   utilizes the model of the random surfer. Under this model, a surfer
   lands on a page from the graph. From that point on, surfers randomly
   select one of the following two options:

       They can follow any outgoing link from the current page and
       navigate to a new page. Surfers choose this option with a
       predefined probability that we will be referring to with the
       term damping factor.

       Alternatively, they can teleport to a random page in the graph.

   PageRank score values reflect the probability that a surfer lands on
   a particular page. By this definition, we expect the following:
       Each PageRank score should be a value in the [0, 1] range
       The sum of all assigned PageRank scores should be equal to 1

   Two independent estimators of that probability are provided:
   SamplePageRank simulates a long random walk and reports visitation
   frequencies, while IteratePageRank solves for the fixed point of the
   PageRank recurrence. Both converge to the same scores.
*/

// RankTable maps each page of a link graph to its estimated PageRank
// score.
type RankTable map[string]float64

// Ranker estimates PageRank scores for the pages of a link graph using
// both a sampling estimator and an iterative estimator.
type Ranker struct {
	g   LinkGraph
	cfg Config
}

// NewRanker returns a new Ranker instance using the provided config
// options.
func NewRanker(cfg Config) (*Ranker, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("PageRank ranker config validation failed: %w", err)
	}

	return &Ranker{
		g:   NewLinkGraph(),
		cfg: cfg,
	}, nil
}

// AddPage inserts a new page to the graph with the given id.
func (r *Ranker) AddPage(id string) {
	r.g.AddPage(id)
}

// AddLink inserts a directed link from src to dst. If both src and dst refer
// to the same page then this is a no-op.
func (r *Ranker) AddLink(src, dst string) {
	r.g.AddLink(src, dst)
}

// Graph returns the underlying LinkGraph instance.
func (r *Ranker) Graph() LinkGraph {
	return r.g
}
