package ranker

import (
	"sort"

	"golang.org/x/xerrors"
)

// LinkGraph describes the hyperlink structure of a corpus as an adjacency
// mapping from each page to the set of pages it links to. Page identifiers
// are opaque strings; the ranker never interprets them.
type LinkGraph map[string]map[string]struct{}

// NewLinkGraph creates an empty link graph.
func NewLinkGraph() LinkGraph {
	return make(LinkGraph)
}

// AddPage inserts a page with no outgoing links. Adding an existing page is
// a no-op.
func (g LinkGraph) AddPage(id string) {
	if g[id] == nil {
		g[id] = make(map[string]struct{})
	}
}

// AddLink inserts a directed link from src to dst, adding either endpoint to
// the graph if not already present. Self-links are dropped.
func (g LinkGraph) AddLink(src, dst string) {
	if src == dst {
		return
	}
	g.AddPage(src)
	g.AddPage(dst)
	g[src][dst] = struct{}{}
}

// validate ensures the graph can be fed to the estimators: it must contain
// at least one page and must not link to pages outside the graph.
func (g LinkGraph) validate() error {
	if len(g) == 0 {
		return ErrEmptyGraph
	}
	for page, links := range g {
		for dst := range links {
			if _, exists := g[dst]; !exists {
				return xerrors.Errorf("page %q links to unknown page %q", page, dst)
			}
		}
	}
	return nil
}

// sortedPages returns the graph's pages in lexicographic order. The
// estimators rely on this stable ordering when mapping pages to slice
// offsets.
func (g LinkGraph) sortedPages() []string {
	pages := make([]string, 0, len(g))
	for id := range g {
		pages = append(pages, id)
	}
	sort.Strings(pages)
	return pages
}

// effectiveOutDegree returns the number of pages that one click on page can
// lead to. A dangling page behaves as if it linked to every page in the
// graph, itself included.
func (g LinkGraph) effectiveOutDegree(page string) int {
	if deg := len(g[page]); deg != 0 {
		return deg
	}
	return len(g)
}

// effectiveLinksTo reports whether a click on src can lead to dst under the
// same dangling-page rule as effectiveOutDegree.
func (g LinkGraph) effectiveLinksTo(src, dst string) bool {
	links := g[src]
	if len(links) == 0 {
		return true
	}
	_, linked := links[dst]
	return linked
}

// backlinkIndex maps each page to the pages whose clicks can lead to it.
// The index is derived once per iteration run and never mutated afterwards.
// Backlinks are listed in the stable page ordering so that summing over
// them is deterministic.
func (g LinkGraph) backlinkIndex() map[string][]string {
	pages := g.sortedPages()
	index := make(map[string][]string, len(g))
	for _, dst := range pages {
		for _, src := range pages {
			if g.effectiveLinksTo(src, dst) {
				index[dst] = append(index[dst], src)
			}
		}
	}
	return index
}
