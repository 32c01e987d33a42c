package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	memgraph "github.com/JoeMcCleery/pagerank/graph/store/memory"
	"github.com/google/uuid"
	gc "gopkg.in/check.v1"
)

var (
	_ = gc.Suite(new(CrawlerTestSuite))

	maxUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
)

func Test(t *testing.T) {
	gc.TestingT(t)
}

type CrawlerTestSuite struct {
	g         *memgraph.InMemoryGraph
	crawler   *Crawler
	corpusDir string
}

func (s *CrawlerTestSuite) SetUpTest(c *gc.C) {
	s.g = memgraph.NewInMemoryGraph()
	s.corpusDir = c.MkDir()

	crawler, err := NewCrawler(Config{Graph: s.g})
	c.Assert(err, gc.IsNil)
	s.crawler = crawler
}

func (s *CrawlerTestSuite) TestConfigValidation(c *gc.C) {
	_, err := NewCrawler(Config{})
	c.Assert(err, gc.ErrorMatches, "(?s).*graph has not been provided.*")
}

func (s *CrawlerTestSuite) TestCrawlBuildsCorpusGraph(c *gc.C) {
	s.writePage(c, "1.html", `<html><body><a href="2.html">two</a></body></html>`)
	s.writePage(c, "2.html", `<html><body><a href="1.html">one</a><a href="3.html">three</a></body></html>`)
	s.writePage(c, "3.html", `<html><body>no links here</body></html>`)

	numPages, err := s.crawler.Crawl(context.TODO(), s.corpusDir)
	c.Assert(err, gc.IsNil)
	c.Assert(numPages, gc.Equals, 3)

	c.Assert(s.adjacency(c), gc.DeepEquals, map[string][]string{
		"1.html": {"2.html"},
		"2.html": {"1.html", "3.html"},
		"3.html": {},
	})
}

func (s *CrawlerTestSuite) TestCrawlIgnoresNonCorpusTargets(c *gc.C) {
	s.writePage(c, "1.html", `<html><body>
		<a href="1.html">self</a>
		<a href="2.html">in corpus</a>
		<a href="missing.html">not in corpus</a>
		<a href="https://example.com/2.html">external</a>
	</body></html>`)
	s.writePage(c, "2.html", `<html></html>`)
	s.writeFile(c, "notes.txt", `<a href="2.html">not an html page</a>`)

	numPages, err := s.crawler.Crawl(context.TODO(), s.corpusDir)
	c.Assert(err, gc.IsNil)
	c.Assert(numPages, gc.Equals, 2)

	c.Assert(s.adjacency(c), gc.DeepEquals, map[string][]string{
		"1.html": {"2.html"},
		"2.html": {},
	})
}

func (s *CrawlerTestSuite) TestReCrawlRemovesStaleEdges(c *gc.C) {
	s.writePage(c, "1.html", `<a href="2.html">two</a>`)
	s.writePage(c, "2.html", `<a href="1.html">one</a>`)

	_, err := s.crawler.Crawl(context.TODO(), s.corpusDir)
	c.Assert(err, gc.IsNil)

	// Page 1 no longer links to page 2 on the second pass.
	s.writePage(c, "1.html", `<html><body>links removed</body></html>`)

	_, err = s.crawler.Crawl(context.TODO(), s.corpusDir)
	c.Assert(err, gc.IsNil)

	c.Assert(s.adjacency(c), gc.DeepEquals, map[string][]string{
		"1.html": {},
		"2.html": {"1.html"},
	})
}

func (s *CrawlerTestSuite) TestCrawlMissingDir(c *gc.C) {
	_, err := s.crawler.Crawl(context.TODO(), filepath.Join(s.corpusDir, "does-not-exist"))
	c.Assert(err, gc.Not(gc.IsNil))
}

func (s *CrawlerTestSuite) writePage(c *gc.C, filename, content string) {
	s.writeFile(c, filename, content)
}

func (s *CrawlerTestSuite) writeFile(c *gc.C, filename, content string) {
	err := os.WriteFile(filepath.Join(s.corpusDir, filename), []byte(content), 0o644)
	c.Assert(err, gc.IsNil)
}

// adjacency flattens the stored link graph back into a filename-keyed edge
// map, with each page's outgoing targets sorted.
func (s *CrawlerTestSuite) adjacency(c *gc.C) map[string][]string {
	filenames := make(map[uuid.UUID]string)
	adj := make(map[string][]string)

	linkIt, err := s.g.Links(uuid.Nil, maxUUID, time.Now())
	c.Assert(err, gc.IsNil)
	for linkIt.Next() {
		link := linkIt.Link()
		filenames[link.ID] = link.Filename
		adj[link.Filename] = []string{}
	}
	c.Assert(linkIt.Error(), gc.IsNil)
	c.Assert(linkIt.Close(), gc.IsNil)

	edgeIt, err := s.g.Edges(uuid.Nil, maxUUID, time.Now())
	c.Assert(err, gc.IsNil)
	for edgeIt.Next() {
		edge := edgeIt.Edge()
		src, dst := filenames[edge.Src], filenames[edge.Dst]
		adj[src] = insertSorted(adj[src], dst)
	}
	c.Assert(edgeIt.Error(), gc.IsNil)
	c.Assert(edgeIt.Close(), gc.IsNil)
	return adj
}

func insertSorted(list []string, v string) []string {
	list = append(list, v)
	for i := len(list) - 1; i > 0 && list[i-1] > list[i]; i-- {
		list[i-1], list[i] = list[i], list[i-1]
	}
	return list
}
