package crawler

import (
	"os"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractLinks parses the HTML page at path and returns the href values of
// its anchor tags, de-duplicated, in document order. The hrefs are returned
// verbatim; deciding whether they point inside the corpus is up to the
// caller.
func extractLinks(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var (
		links []string
		seen  = make(map[string]struct{})
		visit func(*html.Node)
	)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				if _, dup := seen[attr.Val]; !dup {
					seen[attr.Val] = struct{}{}
					links = append(links, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)
	return links, nil
}
