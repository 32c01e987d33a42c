package ranker

import (
	"context"
	"math"
	"testing"

	"github.com/JoeMcCleery/pagerank/graph"
	memgraph "github.com/JoeMcCleery/pagerank/graph/store/memory"
	"github.com/JoeMcCleery/pagerank/ranker"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(RankerServiceTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type RankerServiceTestSuite struct {
	g *memgraph.InMemoryGraph
}

func (s *RankerServiceTestSuite) SetUpTest(c *gc.C) {
	s.g = memgraph.NewInMemoryGraph()
}

func (s *RankerServiceTestSuite) TestConfigValidation(c *gc.C) {
	_, err := NewService(Config{})
	c.Assert(err, gc.ErrorMatches, "(?s).*graph API has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?s).*report callback has not been provided.*")
}

func (s *RankerServiceTestSuite) TestSinglePass(c *gc.C) {
	s.upsertCycle(c, "1.html", "2.html")

	var gotSampled, gotIterated ranker.RankTable
	svc, err := NewService(Config{
		GraphAPI:      s.g,
		DampingFactor: ranker.DefaultDampingFactor,
		SampleCount:   ranker.DefaultSampleCount,
		ReportFn: func(sampled, iterated ranker.RankTable) error {
			gotSampled, gotIterated = sampled, iterated
			return nil
		},
	})
	c.Assert(err, gc.IsNil)
	c.Assert(svc.Name(), gc.Equals, "ranker")

	// A zero update interval means one pass and a clean return.
	c.Assert(svc.Run(context.Background()), gc.IsNil)

	c.Assert(len(gotSampled), gc.Equals, 2)
	c.Assert(len(gotIterated), gc.Equals, 2)

	// The two pages of a symmetric cycle share the rank evenly.
	for page, score := range gotIterated {
		c.Assert(math.Abs(score-0.5) <= 1e-3, gc.Equals, true, gc.Commentf("iterated score for %q: %v", page, score))
	}
	for page, score := range gotSampled {
		c.Assert(math.Abs(score-0.5) <= 0.05, gc.Equals, true, gc.Commentf("sampled score for %q: %v", page, score))
	}
}

func (s *RankerServiceTestSuite) TestRankPassPropagatesEmptyGraphError(c *gc.C) {
	svc, err := NewService(Config{
		GraphAPI:      s.g,
		DampingFactor: ranker.DefaultDampingFactor,
		SampleCount:   ranker.DefaultSampleCount,
		ReportFn: func(_, _ ranker.RankTable) error {
			c.Fatal("report callback invoked for an empty graph")
			return nil
		},
	})
	c.Assert(err, gc.IsNil)

	err = svc.Run(context.Background())
	c.Assert(err, gc.ErrorMatches, "(?s).*graph contains no pages.*")
}

func (s *RankerServiceTestSuite) upsertCycle(c *gc.C, pages ...string) {
	links := make([]*graph.Link, len(pages))
	for i, filename := range pages {
		links[i] = &graph.Link{Filename: filename}
		c.Assert(s.g.UpsertLink(links[i]), gc.IsNil)
	}
	for i := range links {
		next := links[(i+1)%len(links)]
		c.Assert(s.g.UpsertEdge(&graph.Edge{Src: links[i].ID, Dst: next.ID}), gc.IsNil)
	}
}
