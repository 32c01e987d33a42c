// Package graphtest provides a re-usable set of tests that can be executed
// against any object that implements the graph.Graph interface.
package graphtest

import (
	"fmt"
	"time"

	"github.com/JoeMcCleery/pagerank/graph"
	"github.com/google/uuid"
	gc "gopkg.in/check.v1"
	"golang.org/x/xerrors"
)

var maxUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

// SuiteBase defines a re-usable set of graph-related tests that can
// be executed against any type that implements graph.Graph.
type SuiteBase struct {
	g graph.Graph
}

// SetGraph configures the suite to run all tests against g.
func (s *SuiteBase) SetGraph(g graph.Graph) {
	s.g = g
}

func (s *SuiteBase) TestUpsertLink(c *gc.C) {
	// Create a new link
	original := &graph.Link{
		Filename:    "1.html",
		RetrievedAt: time.Now().Add(-10 * time.Hour),
	}
	err := s.g.UpsertLink(original)
	c.Assert(err, gc.IsNil)
	c.Assert(original.ID, gc.Not(gc.Equals), uuid.Nil, gc.Commentf("expected a linkID to be assigned to the new link"))

	// Update existing link with a newer timestamp and different filename
	accessedAt := time.Now().Truncate(time.Second).UTC()
	existing := &graph.Link{
		ID:          original.ID,
		Filename:    "1.html",
		RetrievedAt: accessedAt,
	}
	err = s.g.UpsertLink(existing)
	c.Assert(err, gc.IsNil)
	c.Assert(existing.ID, gc.Equals, original.ID, gc.Commentf("link ID changed while upserting"))

	stored, err := s.g.FindLink(existing.ID)
	c.Assert(err, gc.IsNil)
	c.Assert(stored.RetrievedAt, gc.Equals, accessedAt, gc.Commentf("last accessed timestamp was not updated"))

	// Attempt to insert a new link whose filename matches an existing link with
	// an older timestamp value.
	sameFilename := &graph.Link{
		Filename:    existing.Filename,
		RetrievedAt: time.Now().Add(-10 * time.Hour).UTC(),
	}
	err = s.g.UpsertLink(sameFilename)
	c.Assert(err, gc.IsNil)
	c.Assert(sameFilename.ID, gc.Equals, existing.ID)

	stored, err = s.g.FindLink(existing.ID)
	c.Assert(err, gc.IsNil)
	c.Assert(stored.RetrievedAt, gc.Equals, accessedAt, gc.Commentf("last accessed timestamp was overwritten with an older value"))

	// Create a new link and then attempt to update its filename to the same
	// value as another link.
	dup := &graph.Link{
		Filename: "2.html",
	}
	err = s.g.UpsertLink(dup)
	c.Assert(err, gc.IsNil)
	c.Assert(dup.ID, gc.Not(gc.Equals), uuid.Nil, gc.Commentf("expected a linkID to be assigned to the new link"))
}

func (s *SuiteBase) TestFindLink(c *gc.C) {
	link := &graph.Link{
		Filename:    "1.html",
		RetrievedAt: time.Now().Truncate(time.Second).UTC(),
	}
	err := s.g.UpsertLink(link)
	c.Assert(err, gc.IsNil)

	found, err := s.g.FindLink(link.ID)
	c.Assert(err, gc.IsNil)
	c.Assert(found, gc.DeepEquals, link, gc.Commentf("lookup by ID returned the wrong link"))

	_, err = s.g.FindLink(uuid.New())
	c.Assert(xerrors.Is(err, graph.ErrNotFound), gc.Equals, true)
}

func (s *SuiteBase) TestLinkIteratorTimeFilter(c *gc.C) {
	linkUUIDs := make([]uuid.UUID, 3)
	linkInsertTimes := make([]time.Time, len(linkUUIDs))
	for i := 0; i < len(linkUUIDs); i++ {
		link := &graph.Link{Filename: fmt.Sprint(i, ".html"), RetrievedAt: time.Now()}
		c.Assert(s.g.UpsertLink(link), gc.IsNil)
		linkUUIDs[i] = link.ID
		linkInsertTimes[i] = time.Now()
	}

	for i, t := range linkInsertTimes {
		linkSet := s.iterateLinks(c, uuid.Nil, maxUUID, t)
		for j := 0; j <= i; j++ {
			c.Assert(linkSet[linkUUIDs[j]], gc.Equals, true, gc.Commentf("link %d should be visible at cut-off %d", j, i))
		}
	}
}

func (s *SuiteBase) TestUpsertEdge(c *gc.C) {
	linkUUIDs := make([]uuid.UUID, 3)
	for i := 0; i < len(linkUUIDs); i++ {
		link := &graph.Link{Filename: fmt.Sprint(i, ".html")}
		c.Assert(s.g.UpsertLink(link), gc.IsNil)
		linkUUIDs[i] = link.ID
	}

	edge := &graph.Edge{
		Src: linkUUIDs[0],
		Dst: linkUUIDs[1],
	}
	err := s.g.UpsertEdge(edge)
	c.Assert(err, gc.IsNil)
	c.Assert(edge.ID, gc.Not(gc.Equals), uuid.Nil, gc.Commentf("expected an edgeID to be assigned to the new edge"))
	c.Assert(edge.UpdatedAt.IsZero(), gc.Equals, false, gc.Commentf("UpdatedAt field not set"))

	// Upsert the same edge again and verify the timestamp is refreshed
	other := &graph.Edge{
		ID:  edge.ID,
		Src: linkUUIDs[0],
		Dst: linkUUIDs[1],
	}
	err = s.g.UpsertEdge(other)
	c.Assert(err, gc.IsNil)
	c.Assert(other.ID, gc.Equals, edge.ID, gc.Commentf("edge ID changed while upserting"))
	c.Assert(other.UpdatedAt, gc.Not(gc.Equals), edge.UpdatedAt, gc.Commentf("UpdatedAt field not modified"))

	// Create an edge to a missing link
	bogus := &graph.Edge{
		Src: linkUUIDs[0],
		Dst: uuid.New(),
	}
	err = s.g.UpsertEdge(bogus)
	c.Assert(xerrors.Is(err, graph.ErrUnknownEdgeLinks), gc.Equals, true)
}

func (s *SuiteBase) TestRemoveStaleEdges(c *gc.C) {
	linkUUIDs := make([]uuid.UUID, 4)
	for i := 0; i < len(linkUUIDs); i++ {
		link := &graph.Link{Filename: fmt.Sprint(i, ".html")}
		c.Assert(s.g.UpsertLink(link), gc.IsNil)
		linkUUIDs[i] = link.ID
	}

	// Add three edges originating from the first link
	for i := 1; i < len(linkUUIDs); i++ {
		c.Assert(s.g.UpsertEdge(&graph.Edge{Src: linkUUIDs[0], Dst: linkUUIDs[i]}), gc.IsNil)
	}
	staleBefore := time.Now()

	// Re-insert the last edge so it survives the stale-edge removal
	c.Assert(s.g.UpsertEdge(&graph.Edge{Src: linkUUIDs[0], Dst: linkUUIDs[3]}), gc.IsNil)

	c.Assert(s.g.RemoveStaleEdges(linkUUIDs[0], staleBefore), gc.IsNil)

	edgeSet := s.iterateEdges(c, uuid.Nil, maxUUID, time.Now())
	c.Assert(len(edgeSet), gc.Equals, 1, gc.Commentf("expected the stale edges to be removed"))
	for _, dst := range edgeSet {
		c.Assert(dst, gc.Equals, linkUUIDs[3])
	}
}

func (s *SuiteBase) iterateLinks(c *gc.C, fromID, toID uuid.UUID, retrievedBefore time.Time) map[uuid.UUID]bool {
	it, err := s.g.Links(fromID, toID, retrievedBefore)
	c.Assert(err, gc.IsNil)

	seen := make(map[uuid.UUID]bool)
	for it.Next() {
		seen[it.Link().ID] = true
	}
	c.Assert(it.Error(), gc.IsNil)
	c.Assert(it.Close(), gc.IsNil)
	return seen
}

func (s *SuiteBase) iterateEdges(c *gc.C, fromID, toID uuid.UUID, updatedBefore time.Time) map[uuid.UUID]uuid.UUID {
	it, err := s.g.Edges(fromID, toID, updatedBefore)
	c.Assert(err, gc.IsNil)

	seen := make(map[uuid.UUID]uuid.UUID)
	for it.Next() {
		edge := it.Edge()
		seen[edge.ID] = edge.Dst
	}
	c.Assert(it.Error(), gc.IsNil)
	c.Assert(it.Close(), gc.IsNil)
	return seen
}
