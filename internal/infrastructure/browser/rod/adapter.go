package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var (
	_ output.PagePort     = (*BrowserAdapter)(nil)
	_ output.SnapshotPort = (*BrowserAdapter)(nil)
)

const (
	defaultTimeout   = 10 * time.Second
	maxSnapshotWidth = 1024
)

// BrowserAdapter runs the guide inside a real Chrome tab the user drives.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	rootID   string
	logger   output.LoggerPort

	mu         sync.Mutex
	onShortcut func()
	stopExpose func() error
	closed     bool
}

type BrowserConfig struct {
	Headless  bool
	Timeout   time.Duration
	NoSandbox bool
	DevTools  bool
	Trace     bool
	// Bin overrides the browser binary; empty uses rod's lookup or download.
	Bin    string
	RootID string
	Logger output.LoggerPort
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  false,
		Timeout:   defaultTimeout,
		NoSandbox: false,
		DevTools:  false,
		RootID:    entity.UIRootID,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RootID == "" {
		cfg.RootID = entity.UIRootID
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url).Trace(cfg.Trace)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	b := &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		rootID:   cfg.RootID,
		logger:   cfg.Logger,
	}
	if err := b.installShortcut(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// OnShortcut registers fn for the Alt+Shift+E "complete now" combination.
// fn runs on its own goroutine.
func (b *BrowserAdapter) OnShortcut(fn func()) {
	b.mu.Lock()
	b.onShortcut = fn
	b.mu.Unlock()
}

func (b *BrowserAdapter) installShortcut() error {
	stop, err := b.page.Expose(shortcutBinding, func(gson.JSON) (interface{}, error) {
		b.mu.Lock()
		fn := b.onShortcut
		b.mu.Unlock()
		if fn != nil {
			go fn()
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("expose shortcut binding: %w", err)
	}
	b.stopExpose = stop

	if _, err := b.page.EvalOnNewDocument("(" + shortcutJS + ")()"); err != nil {
		return fmt.Errorf("install shortcut: %w", err)
	}
	if _, err := b.page.Eval(shortcutJS); err != nil {
		return fmt.Errorf("install shortcut: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.Timeout(b.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	_ = page.WaitIdle(2 * time.Second)
	return nil
}

type scannedElement struct {
	Text      string  `json:"text"`
	Type      string  `json:"type"`
	Role      string  `json:"role"`
	Href      string  `json:"href"`
	ClassName string  `json:"className"`
	DomID     string  `json:"domId"`
	DomPath   string  `json:"domPath"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

func (b *BrowserAdapter) Scan(ctx context.Context, excludeRootID string) ([]entity.CandidateElement, error) {
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(scanJS, entity.InteractiveSelectors, excludeRootID)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var raw []scannedElement
	if err := res.Value.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode scan: %w", err)
	}

	pageURL := b.CurrentURL()
	out := make([]entity.CandidateElement, 0, len(raw))
	for i, r := range raw {
		el := entity.CandidateElement{
			ID:        entity.ElementID(i),
			Ordinal:   i,
			Text:      r.Text,
			Type:      r.Type,
			Role:      r.Role,
			Href:      r.Href,
			ClassName: r.ClassName,
			DomID:     r.DomID,
			DomPath:   r.DomPath,
			Box:       entity.BoundingBox{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
		}
		out = append(out, el.Truncated().WithFingerprint(pageURL))
	}
	return out, nil
}

func (b *BrowserAdapter) Highlight(ctx context.Context, el entity.CandidateElement, g entity.Guidance) error {
	heading := fmt.Sprintf("Step %d: %s", g.Step, g.Label())
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(highlightJS, el.Ordinal, b.rootID, heading, g.Instruction)
	if err != nil {
		return fmt.Errorf("highlight failed: %w", err)
	}
	if !res.Value.Bool() {
		return entity.ErrElementGone
	}
	return nil
}

func (b *BrowserAdapter) ClearHighlight(ctx context.Context) error {
	if _, err := b.page.Context(ctx).Timeout(b.timeout).Eval(clearHighlightJS, b.rootID); err != nil {
		return fmt.Errorf("clear highlight failed: %w", err)
	}
	return nil
}

// AwaitInteraction waits inside the page for the one-shot listeners. A wait
// that ends because the document went away is reported as a navigation.
func (b *BrowserAdapter) AwaitInteraction(ctx context.Context, el entity.CandidateElement) (entity.Interaction, error) {
	startURL := b.CurrentURL()
	res, err := b.page.Context(ctx).Eval(awaitJS, el.Ordinal)
	if ctx.Err() != nil {
		return entity.Interaction{}, ctx.Err()
	}

	current := b.CurrentURL()
	if err != nil {
		if current != startURL {
			return entity.Interaction{Kind: entity.InteractionNavigated, URL: current}, nil
		}
		return entity.Interaction{}, fmt.Errorf("interaction wait failed: %w", err)
	}

	if res.Value.Get("gone").Bool() {
		if current != startURL {
			return entity.Interaction{Kind: entity.InteractionNavigated, URL: current}, nil
		}
		return entity.Interaction{}, entity.ErrElementGone
	}

	return entity.Interaction{
		Kind: entity.InteractionKind(res.Value.Get("kind").Str()),
		URL:  current,
	}, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxSnapshotWidth {
		img = imaging.Resize(img, maxSnapshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		if b.logger != nil {
			b.logger.Debug("Page info unavailable", "error", err)
		}
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	stop := b.stopExpose
	b.mu.Unlock()

	if stop != nil {
		if err := stop(); err != nil && !errors.Is(err, context.Canceled) && b.logger != nil {
			b.logger.Debug("Failed to remove shortcut binding", "error", err)
		}
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
