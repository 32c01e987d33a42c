package ranker

import (
	"golang.org/x/xerrors"
)

// Distribution is a discrete probability distribution over the pages of a
// link graph. Values are non-negative and sum to 1.
type Distribution map[string]float64

// Transition returns the probability distribution over which page a random
// surfer on page visits next.
//
// With probability damping, the surfer follows one of the outgoing links of
// page, each with equal probability. With probability 1-damping, the surfer
// teleports to a page chosen uniformly from the whole graph. A dangling page
// yields an exactly uniform distribution regardless of the damping factor.
//
// Transition is a pure function: it never mutates g and each call returns a
// fresh Distribution keyed by exactly the pages of g.
func Transition(g LinkGraph, page string, damping float64) (Distribution, error) {
	if damping < 0 || damping > 1 {
		return nil, xerrors.Errorf("damping factor must be in the [0, 1] range: %w", ErrInvalidParameter)
	}
	links, exists := g[page]
	if !exists {
		return nil, xerrors.Errorf("transition from unknown page %q: %w", page, ErrInvalidParameter)
	}

	dist := make(Distribution, len(g))
	if len(links) == 0 {
		chance := 1.0 / float64(len(g))
		for id := range g {
			dist[id] = chance
		}
		return dist, nil
	}

	teleportChance := (1.0 - damping) / float64(len(g))
	linkChance := damping / float64(len(links))
	for id := range g {
		dist[id] = teleportChance
	}
	for id := range links {
		dist[id] += linkChance
	}
	return dist, nil
}
