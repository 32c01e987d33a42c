package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	memgraph "github.com/JoeMcCleery/pagerank/graph/store/memory"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	gc "gopkg.in/check.v1"
)

var (
	_ = gc.Suite(new(CrawlerServiceTestSuite))

	maxUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
)

func Test(t *testing.T) {
	gc.TestingT(t)
}

type CrawlerServiceTestSuite struct {
	g         *memgraph.InMemoryGraph
	corpusDir string
}

func (s *CrawlerServiceTestSuite) SetUpTest(c *gc.C) {
	s.g = memgraph.NewInMemoryGraph()
	s.corpusDir = c.MkDir()
	s.writePage(c, "1.html", `<a href="2.html">two</a>`)
	s.writePage(c, "2.html", `<html></html>`)
}

func (s *CrawlerServiceTestSuite) TestConfigValidation(c *gc.C) {
	_, err := NewService(Config{})
	c.Assert(err, gc.ErrorMatches, "(?s).*graph API has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?s).*corpus directory has not been provided.*")
}

func (s *CrawlerServiceTestSuite) TestSinglePass(c *gc.C) {
	svc, err := NewService(Config{
		GraphAPI:  s.g,
		CorpusDir: s.corpusDir,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(svc.Name(), gc.Equals, "crawler")

	// A zero update interval means one pass and a clean return.
	c.Assert(svc.Run(context.Background()), gc.IsNil)
	c.Assert(s.countLinks(c), gc.Equals, 2)
}

func (s *CrawlerServiceTestSuite) TestPeriodicPasses(c *gc.C) {
	clk := testclock.NewClock(time.Now())
	svc, err := NewService(Config{
		GraphAPI:       s.g,
		CorpusDir:      s.corpusDir,
		UpdateInterval: time.Minute,
		Clock:          clk,
	})
	c.Assert(err, gc.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- svc.Run(ctx) }()

	// Wait for the service to finish the first pass and block on the
	// timer, then trigger a second pass with a new corpus page.
	err = clk.WaitAdvance(0, time.Second, 1)
	c.Assert(err, gc.IsNil)
	s.writePage(c, "3.html", `<a href="1.html">one</a>`)
	err = clk.WaitAdvance(time.Minute, time.Second, 1)
	c.Assert(err, gc.IsNil)

	// Wait for the second pass to land before stopping the service.
	for deadline := time.Now().Add(time.Second); s.countLinks(c) != 3; {
		if time.Now().After(deadline) {
			c.Fatal("timed out waiting for the second crawl pass")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	c.Assert(<-doneCh, gc.IsNil)
}

func (s *CrawlerServiceTestSuite) writePage(c *gc.C, filename, content string) {
	err := os.WriteFile(filepath.Join(s.corpusDir, filename), []byte(content), 0o644)
	c.Assert(err, gc.IsNil)
}

func (s *CrawlerServiceTestSuite) countLinks(c *gc.C) int {
	it, err := s.g.Links(uuid.Nil, maxUUID, time.Now())
	c.Assert(err, gc.IsNil)
	var count int
	for it.Next() {
		count++
	}
	c.Assert(it.Error(), gc.IsNil)
	c.Assert(it.Close(), gc.IsNil)
	return count
}
