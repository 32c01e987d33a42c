/*
   Models the link graph that the corpus crawler populates and the
   ranker consumes: one Link per corpus page and one Edge per
   hyperlink between two pages.
*/
package graph

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

var (
	// ErrNotFound is returned when looking up a link that is not in the graph.
	ErrNotFound = xerrors.New("not found")

	// ErrUnknownEdgeLinks is returned when upserting an edge whose source or
	// destination link is not in the graph.
	ErrUnknownEdgeLinks = xerrors.New("unknown source and/or destination for edge")
)

type Iterator interface {
	Next() bool
	Error() error
	Close() error
}

// Link represents a single page of the corpus.
type Link struct {
	ID          uuid.UUID
	Filename    string
	RetrievedAt time.Time
}

type LinkIterator interface {
	Iterator
	Link() *Link
}

// Edge represents a hyperlink from one corpus page to another.
type Edge struct {
	ID        uuid.UUID
	Src       uuid.UUID
	Dst       uuid.UUID
	UpdatedAt time.Time
}

type EdgeIterator interface {
	Iterator
	Edge() *Edge
}

type Graph interface {
	UpsertLink(*Link) error
	FindLink(uuid.UUID) (*Link, error)

	UpsertEdge(*Edge) error
	RemoveStaleEdges(fromID uuid.UUID, updatedBefore time.Time) error

	Links(fromID, toID uuid.UUID, retrievedBefore time.Time) (LinkIterator, error)
	Edges(fromID, toID uuid.UUID, updatedBefore time.Time) (EdgeIterator, error)
}
