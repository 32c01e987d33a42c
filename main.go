package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/JoeMcCleery/pagerank/graph"
	"github.com/JoeMcCleery/pagerank/graph/store/cdb"
	memgraph "github.com/JoeMcCleery/pagerank/graph/store/memory"
	"github.com/JoeMcCleery/pagerank/ranker"
	"github.com/JoeMcCleery/pagerank/service"
	crawlersvc "github.com/JoeMcCleery/pagerank/service/crawler"
	rankersvc "github.com/JoeMcCleery/pagerank/service/ranker"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

var appName = "pagerank"

func main() {
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.TextFormatter))
	logger := rootLogger.WithField("app", appName)

	if err := run(logger); err != nil {
		logger.WithError(err).Error("shutting down due to error")
		os.Exit(1)
	}
}

func run(logger *logrus.Entry) error {
	var (
		dampingFactor  = flag.Float64("damping-factor", ranker.DefaultDampingFactor, "The probability that the random surfer follows a page link instead of teleporting to a random page")
		sampleCount    = flag.Int("num-samples", ranker.DefaultSampleCount, "The number of steps performed by the sampling estimator")
		parseWorkers   = flag.Int("parse-workers", runtime.NumCPU(), "The number of workers to use for parsing corpus pages (defaults to number of CPUs)")
		updateInterval = flag.Duration("update-interval", 0, "The time between subsequent crawl-and-rank passes; a zero value runs a single pass and exits")
		linkGraphURI   = flag.String("link-graph-uri", "in-memory://", "The URI for connecting to the link-graph (supported URIs: in-memory://, postgresql://user@host:26257/linkgraph?sslmode=disable)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] CORPUS_DIR\n\n", appName)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return xerrors.Errorf("expected a single corpus directory argument")
	}
	corpusDir := flag.Arg(0)

	linkGraph, err := getLinkGraph(*linkGraphURI, logger)
	if err != nil {
		return err
	}

	crawlerSvc, err := crawlersvc.NewService(crawlersvc.Config{
		GraphAPI:       linkGraph,
		CorpusDir:      corpusDir,
		ParseWorkers:   *parseWorkers,
		UpdateInterval: *updateInterval,
		Logger:         logger.WithField("service", "crawler"),
	})
	if err != nil {
		return err
	}

	rankerSvc, err := rankersvc.NewService(rankersvc.Config{
		GraphAPI:       linkGraph,
		DampingFactor:  *dampingFactor,
		SampleCount:    *sampleCount,
		ReportFn:       makeRankReporter(os.Stdout, *sampleCount),
		UpdateInterval: *updateInterval,
		Logger:         logger.WithField("service", "ranker"),
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGHUP)
	defer cancel()

	// With no update interval each service performs a single pass and
	// returns; run them back to back so the ranker sees the crawled graph.
	if *updateInterval == 0 {
		if err := crawlerSvc.Run(ctx); err != nil {
			return err
		}
		return rankerSvc.Run(ctx)
	}

	return service.Group{crawlerSvc, rankerSvc}.Run(ctx)
}

// linkGraph is the intersection of the graph capabilities the two services
// require from a store backend.
type linkGraph interface {
	UpsertLink(link *graph.Link) error
	UpsertEdge(edge *graph.Edge) error
	RemoveStaleEdges(fromID uuid.UUID, updatedBefore time.Time) error
	Links(fromID, toID uuid.UUID, retrievedBefore time.Time) (graph.LinkIterator, error)
	Edges(fromID, toID uuid.UUID, updatedBefore time.Time) (graph.EdgeIterator, error)
}

func getLinkGraph(linkGraphURI string, logger *logrus.Entry) (linkGraph, error) {
	if linkGraphURI == "" {
		return nil, xerrors.Errorf("link graph URI must be specified with --link-graph-uri")
	}

	uri, err := url.Parse(linkGraphURI)
	if err != nil {
		return nil, xerrors.Errorf("could not parse link graph URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory graph")
		return memgraph.NewInMemoryGraph(), nil
	case "postgresql":
		logger.Info("using CDB graph")
		return cdb.NewCockroachDBGraph(linkGraphURI)
	default:
		return nil, xerrors.Errorf("unsupported link graph URI scheme: %q", uri.Scheme)
	}
}

// makeRankReporter returns a ReportFunc that pretty-prints both rank tables
// to w with pages in lexicographic order and scores rounded to four decimal
// places.
func makeRankReporter(w io.Writer, sampleCount int) rankersvc.ReportFunc {
	return func(sampled, iterated ranker.RankTable) error {
		if _, err := fmt.Fprintf(w, "PageRank Results from Sampling (n = %d)\n", sampleCount); err != nil {
			return err
		}
		if err := printRanks(w, sampled); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "PageRank Results from Iteration"); err != nil {
			return err
		}
		return printRanks(w, iterated)
	}
}

func printRanks(w io.Writer, ranks ranker.RankTable) error {
	pages := make([]string, 0, len(ranks))
	for id := range ranks {
		pages = append(pages, id)
	}
	sort.Strings(pages)

	for _, id := range pages {
		if _, err := fmt.Fprintf(w, "  %s: %.4f\n", id, ranks[id]); err != nil {
			return err
		}
	}
	return nil
}
