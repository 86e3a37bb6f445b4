// ABOUTME: Parsed page whose list items can be shown or hidden by keyword.
// ABOUTME: Probes row, button and card layouts with the same visibility rule.

package page

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Layout names one way the host page renders its items.
type Layout string

const (
	LayoutRow    Layout = "row"
	LayoutButton Layout = "button"
	LayoutCard   Layout = "card"
)

var (
	ErrNoTitle = errors.New("item has no title element")
	ErrNoItems = errors.New("no filterable items on page")
)

// DOMError reports an item that could not be matched. The item is left
// as it was.
type DOMError struct {
	Layout Layout
	Index  int
	Err    error
}

func (e *DOMError) Error() string {
	return fmt.Sprintf("%s item %d: %v", e.Layout, e.Index, e.Err)
}

func (e *DOMError) Unwrap() error {
	return e.Err
}

type layoutProbe struct {
	kind  Layout
	items cascadia.Selector
	title cascadia.Selector
}

var (
	titleSel    = cascadia.MustCompile(".project-button-title, .featured-project-title")
	featuredSel = cascadia.MustCompile(".featured-project-title")

	probes = []layoutProbe{
		{kind: LayoutRow, items: cascadia.MustCompile("tbody tr[mat-row]"), title: cascadia.MustCompile("td[mat-cell]")},
		{kind: LayoutButton, items: cascadia.MustCompile("project-button"), title: titleSel},
		{kind: LayoutCard, items: cascadia.MustCompile("mat-card.project-button-card"), title: titleSel},
	}

	// Containers a title element may sit in, nearest kind first.
	containerSels = []cascadia.Selector{
		cascadia.MustCompile("mat-card"),
		cascadia.MustCompile("project-button"),
		cascadia.MustCompile(`[class*="project"]`),
	}
)

// Item is one displayed entry of the page.
type Item struct {
	Layout   Layout
	Title    string
	HasTitle bool
	Featured bool

	node *html.Node
}

// Visible reports whether the item is currently shown.
func (i Item) Visible() bool {
	return !isHidden(i.node)
}

// Result summarises one Filter pass.
type Result struct {
	Keyword string
	Found   bool
	Layouts []Layout
	Shown   int
	Hidden  int
	Skipped []error
}

// Err returns ErrNoItems when no layout was present, nil otherwise.
func (r Result) Err() error {
	if !r.Found {
		return ErrNoItems
	}
	return nil
}

// Document is a parsed HTML page. It is not safe for concurrent use.
type Document struct {
	root *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{root: root}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

// Items returns every item of every present layout, in layout order.
func (d *Document) Items() []Item {
	var items []Item
	for _, p := range probes {
		for _, n := range p.items.MatchAll(d.root) {
			items = append(items, newItem(p, n))
		}
	}
	return items
}

func newItem(p layoutProbe, n *html.Node) Item {
	it := Item{Layout: p.kind, node: n}
	if t := p.title.MatchFirst(n); t != nil {
		it.HasTitle = true
		it.Title = textContent(t)
		it.Featured = featuredSel.Match(t)
	}
	return it
}

// Filter shows the items whose title contains keyword and hides the rest.
// Items without a title are skipped and reported in Result.Skipped.
func (d *Document) Filter(keyword string) Result {
	res := Result{Keyword: keyword}
	for _, p := range probes {
		nodes := p.items.MatchAll(d.root)
		if len(nodes) == 0 {
			continue
		}
		res.Found = true
		res.Layouts = append(res.Layouts, p.kind)

		for i, n := range nodes {
			it := newItem(p, n)
			if !it.HasTitle {
				res.Skipped = append(res.Skipped, &DOMError{Layout: p.kind, Index: i, Err: ErrNoTitle})
				continue
			}
			if Matches(it.Title, keyword) {
				setHidden(n, false)
				res.Shown++
			} else {
				setHidden(n, true)
				res.Hidden++
			}
		}
	}
	return res
}

// ShowAll makes every item visible regardless of earlier filtering and
// returns how many elements it touched.
func (d *Document) ShowAll() int {
	touched := 0
	for _, p := range probes {
		for _, n := range p.items.MatchAll(d.root) {
			setHidden(n, false)
			touched++
		}
	}

	for _, t := range titleSel.MatchAll(d.root) {
		if c := container(t); c != nil {
			setHidden(c, false)
			touched++
		}
	}
	return touched
}

// HideFeatured hides every item whose title marks it as featured.
func (d *Document) HideFeatured() int {
	hidden := 0
	for _, p := range probes {
		for _, n := range p.items.MatchAll(d.root) {
			if it := newItem(p, n); it.Featured {
				setHidden(n, true)
				hidden++
			}
		}
	}
	return hidden
}

func container(n *html.Node) *html.Node {
	for _, sel := range containerSels {
		for c := n; c != nil; c = c.Parent {
			if c.Type == html.ElementNode && sel.Match(c) {
				return c
			}
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
