// Package ranker exposes the PageRank estimators as a service that
// periodically loads the link graph from its store, runs both estimators
// and hands the freshly computed rank tables to a report callback.
package ranker

import (
	"context"
	"io"
	"time"

	"github.com/JoeMcCleery/pagerank/graph"
	"github.com/JoeMcCleery/pagerank/ranker"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

var maxUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

// GraphAPI is implemented by objects that the service can load the current
// link graph snapshot from.
type GraphAPI interface {
	Links(fromID, toID uuid.UUID, retrievedBefore time.Time) (graph.LinkIterator, error)
	Edges(fromID, toID uuid.UUID, updatedBefore time.Time) (graph.EdgeIterator, error)
}

// ReportFunc is invoked with the result of each rank pass: the rank table
// estimated by sampling and the one computed by iteration. Sorting and
// formatting of the tables is left entirely to the callback.
type ReportFunc func(sampled, iterated ranker.RankTable) error

type Config struct {
	// A GraphAPI instance for loading the pages and links to rank.
	GraphAPI GraphAPI

	// The probability that the random surfer follows an outgoing link.
	DampingFactor float64

	// The number of steps performed by the sampling estimator.
	SampleCount int

	// The callback that receives the computed rank tables.
	ReportFn ReportFunc

	// The time between subsequent rank passes. A zero value causes the
	// service to perform a single pass and return.
	UpdateInterval time.Duration

	// The clock to use for periodic passes. If not specified, the wall
	// clock is used.
	Clock clock.Clock

	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.GraphAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("graph API has not been provided"))
	}
	if cfg.ReportFn == nil {
		err = multierror.Append(err, xerrors.Errorf("report callback has not been provided"))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return err
}

// Service estimates PageRank scores for the stored link graph on a
// configurable interval.
type Service struct {
	cfg Config
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("ranker service: config validation failed: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

func (svc *Service) Name() string { return "ranker" }

func (svc *Service) Run(ctx context.Context) error {
	svc.cfg.Logger.Info("starting service")
	defer svc.cfg.Logger.Info("stopped service")

	for {
		if err := svc.updateRanks(ctx); err != nil {
			return err
		}
		if svc.cfg.UpdateInterval == 0 {
			return nil
		}

		select {
		case <-svc.cfg.Clock.After(svc.cfg.UpdateInterval):
		case <-ctx.Done():
			return nil
		}
	}
}

func (svc *Service) updateRanks(_ context.Context) error {
	r, err := ranker.NewRanker(ranker.Config{
		DampingFactor: svc.cfg.DampingFactor,
		SampleCount:   svc.cfg.SampleCount,
	})
	if err != nil {
		return err
	}

	startAt := svc.cfg.Clock.Now()
	if err = svc.loadGraph(r); err != nil {
		return err
	}

	sampled, err := r.SamplePageRank()
	if err != nil {
		return err
	}
	iterated, err := r.IteratePageRank()
	if err != nil {
		return err
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"numPages": len(r.Graph()),
		"elapsed":  svc.cfg.Clock.Now().Sub(startAt).String(),
	}).Info("completed rank pass")

	return svc.cfg.ReportFn(sampled, iterated)
}

// loadGraph copies the current snapshot of the stored link graph into the
// ranker. Stored links are keyed by UUID; the ranker sees the corpus
// filenames.
func (svc *Service) loadGraph(r *ranker.Ranker) error {
	filenames := make(map[uuid.UUID]string)

	linkIt, err := svc.cfg.GraphAPI.Links(uuid.Nil, maxUUID, svc.cfg.Clock.Now())
	if err != nil {
		return err
	}
	for linkIt.Next() {
		link := linkIt.Link()
		filenames[link.ID] = link.Filename
		r.AddPage(link.Filename)
	}
	if err = linkIt.Error(); err != nil {
		_ = linkIt.Close()
		return xerrors.Errorf("load links: %w", err)
	}
	if err = linkIt.Close(); err != nil {
		return xerrors.Errorf("load links: %w", err)
	}

	edgeIt, err := svc.cfg.GraphAPI.Edges(uuid.Nil, maxUUID, svc.cfg.Clock.Now())
	if err != nil {
		return err
	}
	for edgeIt.Next() {
		edge := edgeIt.Edge()
		src, srcKnown := filenames[edge.Src]
		dst, dstKnown := filenames[edge.Dst]
		if !srcKnown || !dstKnown {
			continue
		}
		r.AddLink(src, dst)
	}
	if err = edgeIt.Error(); err != nil {
		_ = edgeIt.Close()
		return xerrors.Errorf("load edges: %w", err)
	}
	if err = edgeIt.Close(); err != nil {
		return xerrors.Errorf("load edges: %w", err)
	}
	return nil
}
