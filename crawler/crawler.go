/*
   Manages the crawling of a corpus directory: discovers the HTML pages
   it contains, extracts the links between them and mirrors the result
   into a link graph instance.
*/
package crawler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/JoeMcCleery/pagerank/graph"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Graph is implemented by objects that can upsert links and edges into a
// link graph instance.
type Graph interface {
	UpsertLink(link *graph.Link) error
	UpsertEdge(edge *graph.Edge) error

	// RemoveStaleEdges removes any edge that originates from the specified
	// link ID and was updated before the specified timestamp.
	RemoveStaleEdges(fromID uuid.UUID, updatedBefore time.Time) error
}

type Config struct {
	Graph Graph

	// The number of concurrent workers used for parsing corpus pages.
	ParseWorkers int

	Logger *logrus.Entry
}

func (c *Config) validate() error {
	var err error
	if c.Graph == nil {
		err = multierror.Append(err, xerrors.Errorf("graph has not been provided"))
	}
	if c.ParseWorkers <= 0 {
		c.ParseWorkers = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return err
}

// Crawler parses a directory of HTML pages and records the links between
// them:
//
// - Every file with an .html extension becomes a link graph entry.
// - Anchor hrefs that resolve to another page of the same corpus become
//   edges; self-links and links to pages outside the corpus are dropped.
// - Edges that were not seen during the current pass are removed, so
//   re-crawling an updated corpus converges to its current link structure.
type Crawler struct {
	cfg Config
}

func NewCrawler(cfg Config) (*Crawler, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("crawler config validation failed: %w", err)
	}
	return &Crawler{cfg: cfg}, nil
}

// Crawl performs a single pass over the corpus rooted at corpusDir and
// updates the link graph. It returns the number of pages that were
// processed. Pages that fail to parse are logged and skipped; their
// existing link graph entries are left untouched.
func (c *Crawler) Crawl(ctx context.Context, corpusDir string) (int, error) {
	pageLinks, err := c.parseCorpus(ctx, corpusDir)
	if err != nil {
		return 0, err
	}

	if err = c.updateGraph(pageLinks); err != nil {
		return 0, err
	}
	return len(pageLinks), nil
}

// parseCorpus extracts the outgoing hrefs of every HTML page under
// corpusDir, fanning the parse work out to ParseWorkers goroutines.
func (c *Crawler) parseCorpus(ctx context.Context, corpusDir string) (map[string][]string, error) {
	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return nil, xerrors.Errorf("crawl corpus: %w", err)
	}

	var (
		mu        sync.Mutex
		pageLinks = make(map[string][]string)
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.cfg.ParseWorkers)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}

		filename := entry.Name()
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			links, err := extractLinks(filepath.Join(corpusDir, filename))
			if err != nil {
				c.cfg.Logger.WithField("page", filename).WithError(err).Warn("skipping page that could not be parsed")
				return nil
			}

			mu.Lock()
			pageLinks[filename] = links
			mu.Unlock()
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, xerrors.Errorf("crawl corpus: %w", err)
	}
	return pageLinks, nil
}

// updateGraph mirrors the parsed corpus into the link graph. Only links
// between two corpus pages become edges; a page keeps its link graph entry
// even when nothing points to it or it points at nothing.
func (c *Crawler) updateGraph(pageLinks map[string][]string) error {
	linkIDs := make(map[string]uuid.UUID, len(pageLinks))
	for filename := range pageLinks {
		link := &graph.Link{Filename: filename, RetrievedAt: time.Now()}
		if err := c.cfg.Graph.UpsertLink(link); err != nil {
			return xerrors.Errorf("upsert page %s: %w", filename, err)
		}
		linkIDs[filename] = link.ID
	}

	// Keep track of time so stale edges that did not get refreshed by the
	// loop below can be dropped afterwards.
	removeEdgesOlderThan := time.Now()
	for filename, links := range pageLinks {
		for _, dst := range links {
			if dst == filename {
				continue
			}
			dstID, inCorpus := linkIDs[dst]
			if !inCorpus {
				continue
			}

			edge := &graph.Edge{Src: linkIDs[filename], Dst: dstID}
			if err := c.cfg.Graph.UpsertEdge(edge); err != nil {
				return xerrors.Errorf("upsert edge %s -> %s: %w", filename, dst, err)
			}
		}

		if err := c.cfg.Graph.RemoveStaleEdges(linkIDs[filename], removeEdgesOlderThan); err != nil {
			return xerrors.Errorf("remove stale edges of %s: %w", filename, err)
		}
	}
	return nil
}
