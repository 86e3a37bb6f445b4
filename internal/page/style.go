// ABOUTME: Inline style editing for item visibility.
// ABOUTME: Toggles a display:none declaration and keeps the others intact.

package page

import (
	"strings"

	"golang.org/x/net/html"
)

func styleAttr(n *html.Node) (int, string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "style") {
			return i, a.Val
		}
	}
	return -1, ""
}

// declarations splits an inline style into its non-display declarations
// and reports whether display was none.
func declarations(style string) (rest []string, hidden bool) {
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop, val, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(prop), "display") {
			hidden = strings.EqualFold(strings.TrimSpace(val), "none")
			continue
		}
		rest = append(rest, decl)
	}
	return rest, hidden
}

func isHidden(n *html.Node) bool {
	_, style := styleAttr(n)
	_, hidden := declarations(style)
	return hidden
}

func setHidden(n *html.Node, hidden bool) {
	idx, style := styleAttr(n)
	rest, _ := declarations(style)
	if hidden {
		rest = append(rest, "display: none")
	}

	if len(rest) == 0 {
		if idx >= 0 {
			n.Attr = append(n.Attr[:idx], n.Attr[idx+1:]...)
		}
		return
	}

	val := strings.Join(rest, "; ") + ";"
	if idx >= 0 {
		n.Attr[idx].Val = val
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: val})
}
