// Package crawler exposes the corpus crawler as a service that keeps the
// link graph in sync with the corpus directory.
package crawler

import (
	"context"
	"io"
	"time"

	"github.com/JoeMcCleery/pagerank/crawler"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

type Config struct {
	// A Graph instance for adding the discovered pages and links to.
	GraphAPI crawler.Graph

	// The directory containing the HTML pages of the corpus.
	CorpusDir string

	// The number of concurrent workers used for parsing corpus pages.
	ParseWorkers int

	// The time between subsequent crawler passes. A zero value causes the
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
	if cfg.CorpusDir == "" {
		err = multierror.Append(err, xerrors.Errorf("corpus directory has not been provided"))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return err
}

// Service crawls the corpus directory on a configurable interval.
type Service struct {
	cfg     Config
	crawler *crawler.Crawler
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("crawler service: config validation failed: %w", err)
	}

	c, err := crawler.NewCrawler(crawler.Config{
		Graph:        cfg.GraphAPI,
		ParseWorkers: cfg.ParseWorkers,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, xerrors.Errorf("crawler service: %w", err)
	}

	return &Service{cfg: cfg, crawler: c}, nil
}

func (svc *Service) Name() string { return "crawler" }

func (svc *Service) Run(ctx context.Context) error {
	svc.cfg.Logger.WithField("corpus", svc.cfg.CorpusDir).Info("starting service")
	defer svc.cfg.Logger.Info("stopped service")

	for {
		if err := svc.crawlCorpus(ctx); err != nil {
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

func (svc *Service) crawlCorpus(ctx context.Context) error {
	startAt := svc.cfg.Clock.Now()
	numPages, err := svc.crawler.Crawl(ctx, svc.cfg.CorpusDir)
	if err != nil {
		return err
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"numPages": numPages,
		"elapsed":  svc.cfg.Clock.Now().Sub(startAt).String(),
	}).Info("completed crawl pass")
	return nil
}
