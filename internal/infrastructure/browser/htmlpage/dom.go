package htmlpage

import (
	"strconv"
	"strings"

	"browser-guide/internal/domain/entity"

	"golang.org/x/net/html"
)

// nonRendered subtrees never contribute candidates.
var nonRendered = []string{"head", "script", "style", "noscript", "template", "svg", "iframe"}

const (
	defaultWidth  = 120
	defaultHeight = 24
)

// collect walks the document once per selector, in selector order, the same
// way querySelectorAll would be called per selector.
func collect(doc *html.Node, excludeRootID string) []*html.Node {
	var out []*html.Node
	for _, sel := range entity.InteractiveSelectors {
		walk(doc, excludeRootID, func(n *html.Node) {
			if matches(n, sel) && visible(n) {
				out = append(out, n)
			}
		})
	}
	return out
}

func walk(n *html.Node, excludeRootID string, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		if isOneOf(n.Data, nonRendered...) {
			return
		}
		if excludeRootID != "" && attr(n, "id") == excludeRootID {
			return
		}
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, excludeRootID, fn)
	}
}

func matches(n *html.Node, selector string) bool {
	if role, ok := strings.CutPrefix(selector, `[role="`); ok {
		role = strings.TrimSuffix(role, `"]`)
		v, present := lookup(n, "role")
		return present && v == role
	}
	return n.Data == selector
}

// visible approximates computed style from markup: hidden attributes and
// inline display, visibility and zero sizes, on the node or any ancestor.
func visible(n *html.Node) bool {
	if n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden") {
		return false
	}
	if w, h := size(n); w == 0 || h == 0 {
		return false
	}
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if _, hidden := lookup(p, "hidden"); hidden {
			return false
		}
		style := parseStyle(attr(p, "style"))
		if style["display"] == "none" || style["visibility"] == "hidden" {
			return false
		}
	}
	return true
}

// size reads inline width/height in px, falling back to a nominal box.
func size(n *html.Node) (float64, float64) {
	style := parseStyle(attr(n, "style"))
	return dimension(style["width"], defaultWidth), dimension(style["height"], defaultHeight)
}

func dimension(v string, def float64) float64 {
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return def
	}
	return f
}

func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(v)
	}
	return out
}

// label mirrors what a user reads on the element: its text, then value,
// placeholder, aria-label, title and alt.
// label takes the first non-empty source as is and trims it afterwards, so
// whitespace-only text yields an empty label, as it does in a live browser.
func label(n *html.Node) string {
	text := textContent(n)
	for _, key := range []string{"value", "placeholder", "aria-label", "title", "alt"} {
		if text != "" {
			break
		}
		text = attr(n, key)
	}
	return strings.TrimSpace(text)
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
		case html.ElementNode:
			if isOneOf(c.Data, "script", "style") {
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			rec(k)
		}
	}
	rec(n)
	return sb.String()
}

// domPath renders tag:nth-of-type steps from the root element down to n.
func domPath(n *html.Node) string {
	var parts []string
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		idx := 1
		for s := p.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == p.Data {
				idx++
			}
		}
		parts = append(parts, p.Data+":nth-of-type("+strconv.Itoa(idx)+")")
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

// attached reports whether n is still part of doc.
func attached(doc, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == doc {
			return true
		}
	}
	return false
}

func lookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookup(n, key)
	return v
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
