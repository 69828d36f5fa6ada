package navigator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"
	"browser-guide/internal/infrastructure/logger"
	"browser-guide/internal/infrastructure/prompts"
	"browser-guide/internal/infrastructure/store"
	"browser-guide/internal/usecase/decision"

	"github.com/stretchr/testify/require"
)

type fakePage struct {
	mu           sync.Mutex
	url          string
	elements     []entity.CandidateElement
	scans        int
	highlights   []entity.CandidateElement
	clears       int
	autoInteract bool
	// failHighlights makes the first n Highlight calls report the element gone.
	failHighlights int

	highlighted  chan entity.CandidateElement
	interactions chan entity.Interaction
}

func newFakePage(url string, elements ...entity.CandidateElement) *fakePage {
	return &fakePage{
		url:          url,
		elements:     elements,
		highlighted:  make(chan entity.CandidateElement, 64),
		interactions: make(chan entity.Interaction, 1),
	}
}

func (p *fakePage) Scan(ctx context.Context, excludeRootID string) ([]entity.CandidateElement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scans++
	return append([]entity.CandidateElement(nil), p.elements...), nil
}

func (p *fakePage) Highlight(ctx context.Context, el entity.CandidateElement, g entity.Guidance) error {
	p.mu.Lock()
	if p.failHighlights > 0 {
		p.failHighlights--
		p.mu.Unlock()
		return entity.ErrElementGone
	}
	p.highlights = append(p.highlights, el)
	p.mu.Unlock()
	p.highlighted <- el
	return nil
}

func (p *fakePage) ClearHighlight(ctx context.Context) error {
	p.mu.Lock()
	p.clears++
	p.mu.Unlock()
	return nil
}

func (p *fakePage) AwaitInteraction(ctx context.Context, el entity.CandidateElement) (entity.Interaction, error) {
	p.mu.Lock()
	auto := p.autoInteract
	p.mu.Unlock()
	if auto {
		return entity.Interaction{Kind: entity.InteractionClick}, nil
	}

	select {
	case <-ctx.Done():
		return entity.Interaction{}, ctx.Err()
	case in := <-p.interactions:
		if in.URL != "" {
			p.setURL(in.URL)
		}
		return in, nil
	}
}

func (p *fakePage) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) setURL(u string) {
	p.mu.Lock()
	p.url = u
	p.mu.Unlock()
}

func (p *fakePage) scanCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scans
}

// scriptedDecider answers call n (0-based) with fn.
type scriptedDecider struct {
	mu      sync.Mutex
	prompts []string
	fn      func(ctx context.Context, n int, prompt string) (string, bool)
}

func replies(rs ...string) *scriptedDecider {
	return &scriptedDecider{fn: func(_ context.Context, n int, _ string) (string, bool) {
		if n >= len(rs) {
			return rs[len(rs)-1], true
		}
		return rs[n], true
	}}
}

func (d *scriptedDecider) Decide(ctx context.Context, prompt string) (string, bool) {
	d.mu.Lock()
	n := len(d.prompts)
	d.prompts = append(d.prompts, prompt)
	d.mu.Unlock()
	return d.fn(ctx, n, prompt)
}

func (d *scriptedDecider) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.prompts...)
}

type statusLine struct {
	Level output.StatusLevel
	Text  string
}

type recordingStatus struct {
	mu      sync.Mutex
	lines   []statusLine
	history [][]entity.HistoryEntry
}

func (s *recordingStatus) ShowStatus(_ context.Context, level output.StatusLevel, text string) {
	s.mu.Lock()
	s.lines = append(s.lines, statusLine{level, text})
	s.mu.Unlock()
}

func (s *recordingStatus) ShowHistory(_ context.Context, history []entity.HistoryEntry) {
	s.mu.Lock()
	s.history = append(s.history, history)
	s.mu.Unlock()
}

func (s *recordingStatus) last() statusLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return statusLine{}
	}
	return s.lines[len(s.lines)-1]
}

func (s *recordingStatus) has(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.Text == text {
			return true
		}
	}
	return false
}

type harness struct {
	ctrl    *Controller
	page    *fakePage
	decider *scriptedDecider
	store   *store.MemoryStore
	status  *recordingStatus
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ClickSettle = time.Millisecond
	cfg.TextSettle = 2 * time.Millisecond
	cfg.ResumeGrace = time.Millisecond
	cfg.NotFoundInitialDelay = time.Millisecond
	return cfg
}

func newHarness(t *testing.T, page *fakePage, decider *scriptedDecider, cfg Config) *harness {
	t.Helper()
	builder, err := prompts.NewBuilder()
	require.NoError(t, err)

	h := &harness{
		page:    page,
		decider: decider,
		store:   store.NewMemoryStore(),
		status:  &recordingStatus{},
	}
	h.ctrl = NewController(Deps{
		Page:    page,
		Decider: decider,
		Prompts: builder,
		Parser:  decision.NewParser(),
		Store:   h.store,
		Status:  h.status,
		Logger:  logger.NewNop(),
	}, cfg)

	ids := 0
	h.ctrl.newID = func() string {
		ids++
		return fmt.Sprintf("task-%d", ids)
	}
	t.Cleanup(h.ctrl.Close)
	return h
}

func waitHighlight(t *testing.T, p *fakePage) entity.CandidateElement {
	t.Helper()
	select {
	case el := <-p.highlighted:
		return el
	case <-time.After(2 * time.Second):
		t.Fatal("no element was highlighted")
		return entity.CandidateElement{}
	}
}

// waitAwaiting returns once the flight has recorded its step and waits on the user.
func waitAwaiting(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Phase() == entity.PhaseAwaitingInteraction },
		2*time.Second, time.Millisecond)
}

func links(n int) []entity.CandidateElement {
	out := make([]entity.CandidateElement, n)
	for i := range out {
		out[i] = entity.CandidateElement{
			ID:      entity.ElementID(i),
			Ordinal: i,
			Type:    "a",
			Text:    fmt.Sprintf("Link %d", i),
			Href:    fmt.Sprintf("/page/%d", i),
			DomPath: fmt.Sprintf("body>a:nth-of-type(%d)", i+1),
			Box:     entity.BoundingBox{Width: 80, Height: 20},
		}
	}
	return out
}
