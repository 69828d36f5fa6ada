package htmlpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"golang.org/x/net/html"
)

var _ output.PagePort = (*Page)(nil)

var ErrNotAwaited = errors.New("element is not awaiting interaction")

// Page is a static document parsed with x/net/html. It has no layout engine;
// interactions are driven by the caller through Interact and Navigate. It
// backs offline planning and the navigation tests.
type Page struct {
	mu        sync.Mutex
	url       string
	doc       *html.Node
	scanned   []*html.Node
	highlight *Highlight
	waiter    *waiter
	waiting   chan struct{}
	waited    bool
}

// Highlight is what the overlay would currently show.
type Highlight struct {
	Element  entity.CandidateElement
	Guidance entity.Guidance
}

type waiter struct {
	node *html.Node
	ch   chan entity.Interaction
}

func Parse(pageURL string, r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{url: pageURL, doc: doc, waiting: make(chan struct{})}, nil
}

func ParseString(pageURL, body string) (*Page, error) {
	return Parse(pageURL, strings.NewReader(body))
}

// Fetch downloads pageURL and parses the response.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (*Page, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return Parse(resp.Request.URL.String(), resp.Body)
}

func (p *Page) Scan(ctx context.Context, excludeRootID string) ([]entity.CandidateElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	nodes := collect(p.doc, excludeRootID)
	p.scanned = nodes

	out := make([]entity.CandidateElement, 0, len(nodes))
	for i, n := range nodes {
		w, h := size(n)
		el := entity.CandidateElement{
			ID:        entity.ElementID(i),
			Ordinal:   i,
			Text:      label(n),
			Type:      n.Data,
			Role:      attr(n, "role"),
			Href:      attr(n, "href"),
			ClassName: attr(n, "class"),
			DomID:     attr(n, "id"),
			DomPath:   domPath(n),
			Box:       entity.BoundingBox{X: 0, Y: float64(i * defaultHeight), Width: w, Height: h},
		}
		out = append(out, el.Truncated().WithFingerprint(p.url))
	}
	return out, nil
}

func (p *Page) Highlight(ctx context.Context, el entity.CandidateElement, g entity.Guidance) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.nodeLocked(el); err != nil {
		return err
	}
	p.highlight = &Highlight{Element: el, Guidance: g}
	return nil
}

func (p *Page) ClearHighlight(ctx context.Context) error {
	p.mu.Lock()
	p.highlight = nil
	p.mu.Unlock()
	return nil
}

// Highlighted returns the current overlay, if any.
func (p *Page) Highlighted() (Highlight, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.highlight == nil {
		return Highlight{}, false
	}
	return *p.highlight, true
}

func (p *Page) AwaitInteraction(ctx context.Context, el entity.CandidateElement) (entity.Interaction, error) {
	p.mu.Lock()
	node, err := p.nodeLocked(el)
	if err != nil {
		p.mu.Unlock()
		return entity.Interaction{}, err
	}
	w := &waiter{node: node, ch: make(chan entity.Interaction, 1)}
	p.waiter = w
	if !p.waited {
		p.waited = true
		close(p.waiting)
	}
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		p.mu.Lock()
		if p.waiter == w {
			p.waiter = nil
		}
		p.mu.Unlock()
		return entity.Interaction{}, ctx.Err()
	case in := <-w.ch:
		return in, nil
	}
}

// Waiting is closed the first time AwaitInteraction starts waiting.
func (p *Page) Waiting() <-chan struct{} {
	return p.waiting
}

// Awaiting reports whether an AwaitInteraction call is pending.
func (p *Page) Awaiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiter != nil
}

// Interact simulates the user acting on the element with the given id from
// the latest scan. Only the awaited element reacts, once.
func (p *Page) Interact(id string, kind entity.InteractionKind) error {
	ordinal, ok := entity.ParseElementOrdinal(id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !ok || ordinal >= len(p.scanned) {
		return fmt.Errorf("unknown element %q", id)
	}
	if p.waiter == nil || p.waiter.node != p.scanned[ordinal] {
		return ErrNotAwaited
	}
	p.waiter.ch <- entity.Interaction{Kind: kind, URL: p.url}
	p.waiter = nil
	return nil
}

// Navigate replaces the document, as a full page load would. A pending wait
// ends with a navigated interaction.
func (p *Page) Navigate(pageURL string, r io.Reader) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.url = pageURL
	p.doc = doc
	p.scanned = nil
	p.highlight = nil
	if p.waiter != nil {
		p.waiter.ch <- entity.Interaction{Kind: entity.InteractionNavigated, URL: pageURL}
		p.waiter = nil
	}
	return nil
}

// Remove detaches the element with the given DOM id, as a script might.
func (p *Page) Remove(domID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	var target *html.Node
	walk(p.doc, "", func(n *html.Node) {
		if target == nil && attr(n, "id") == domID {
			target = n
		}
	})
	if target == nil || target.Parent == nil {
		return false
	}
	target.Parent.RemoveChild(target)
	return true
}

func (p *Page) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) nodeLocked(el entity.CandidateElement) (*html.Node, error) {
	if el.Ordinal < 0 || el.Ordinal >= len(p.scanned) {
		return nil, entity.ErrElementGone
	}
	n := p.scanned[el.Ordinal]
	if !attached(p.doc, n) {
		return nil, entity.ErrElementGone
	}
	return n, nil
}
