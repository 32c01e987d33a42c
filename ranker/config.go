package ranker

import (
	"math/rand"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

const (
	// DefaultDampingFactor is the conventional probability that the random
	// surfer follows a link instead of teleporting to a random page.
	DefaultDampingFactor = 0.85

	// DefaultSampleCount is the default number of random-surfer steps used
	// by the sampling estimator.
	DefaultSampleCount = 10000
)

var (
	// ErrEmptyGraph is returned when an estimator is invoked on a graph
	// with no pages.
	ErrEmptyGraph = xerrors.New("graph contains no pages")

	// ErrInvalidParameter is returned when a caller-supplied parameter is
	// outside its valid range.
	ErrInvalidParameter = xerrors.New("invalid parameter")
)

// Config encapsulates the tunables for a Ranker instance.
type Config struct {
	// The probability that the random surfer follows one of the outgoing
	// links of the page it currently visits. Must be in the [0, 1] range.
	DampingFactor float64

	// The number of steps the sampling estimator performs. Must be at
	// least 1.
	SampleCount int

	// The source of randomness for the sampling estimator. Seeding it
	// makes a sampling run reproducible. If unspecified, a time-seeded
	// source is used.
	Rand *rand.Rand
}

func (c *Config) validate() error {
	var err error
	if c.DampingFactor < 0 || c.DampingFactor > 1 {
		err = multierror.Append(err, xerrors.Errorf("damping factor must be in the [0, 1] range: %w", ErrInvalidParameter))
	}
	if c.SampleCount < 1 {
		err = multierror.Append(err, xerrors.Errorf("sample count must be at least 1: %w", ErrInvalidParameter))
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return err
}
