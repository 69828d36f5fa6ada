package userinteraction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"browser-guide/internal/application/port/input"
	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.StatusPort = (*Console)(nil)

const helpText = `Type a goal to start guiding, or one of:
  /done    mark the current goal as reached
  /reset   drop the current task
  /resume  continue the saved task on this page
  /status  show the current task
  /quit    exit`

// Console is the terminal side of the guide: it prints status and history
// and turns typed lines into navigator commands.
type Console struct {
	in  io.Reader
	out io.Writer
	mu  sync.Mutex
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

func (c *Console) ShowStatus(ctx context.Context, level output.StatusLevel, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch level {
	case output.StatusSuccess:
		color.New(color.FgGreen, color.Bold).Fprintf(c.out, "✓ %s\n", text)
	case output.StatusError:
		color.New(color.FgRed).Fprintf(c.out, "❌ %s\n", text)
	case output.StatusBusy:
		color.New(color.FgYellow).Fprintf(c.out, "… %s\n", text)
	default:
		color.New(color.FgCyan).Fprintf(c.out, "%s\n", text)
	}
}

func (c *Console) ShowHistory(ctx context.Context, history []entity.HistoryEntry) {
	if len(history) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	color.New(color.FgCyan, color.Bold).Fprintln(c.out, "━━━ Steps ━━━")
	dim := color.New(color.Faint)
	for _, h := range history {
		fmt.Fprintf(c.out, "%d. %s", h.Step, truncate(h.Instruction, 120))
		if h.TargetText != "" {
			dim.Fprintf(c.out, "  → %s", truncate(h.TargetText, 40))
		}
		fmt.Fprintln(c.out)
	}
}

// Run reads commands until the input ends, /quit is typed or ctx is done.
func (c *Console) Run(ctx context.Context, nav input.Navigator) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.println(helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("failed to read user input: %w", err)
			}
			return nil
		case line := <-lines:
			if quit := c.handle(ctx, nav, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, nav input.Navigator, line string) bool {
	switch line {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/help":
		c.println(helpText)
	case "/done":
		if err := nav.Complete(ctx); err != nil && !errors.Is(err, entity.ErrNoActiveTask) {
			c.ShowStatus(ctx, output.StatusError, err.Error())
		}
	case "/reset":
		if err := nav.Reset(ctx); err != nil {
			c.ShowStatus(ctx, output.StatusError, err.Error())
		}
	case "/resume":
		resumed, err := nav.Resume(ctx)
		switch {
		case err != nil:
			c.ShowStatus(ctx, output.StatusError, err.Error())
		case !resumed:
			c.ShowStatus(ctx, output.StatusInfo, "Nothing to resume")
		}
	case "/status":
		c.printTask(nav.Task(), nav.Phase())
	default:
		if strings.HasPrefix(line, "/") {
			c.println(helpText)
			return false
		}
		if err := nav.Start(ctx, line); err != nil {
			c.ShowStatus(ctx, output.StatusError, err.Error())
		}
	}
	return false
}

func (c *Console) printTask(task entity.NavigationTask, phase entity.Phase) {
	if !task.Active {
		c.println("No active navigation")
		return
	}
	c.println(fmt.Sprintf("Goal: %s\nStep: %d (%s)\nPage: %s\nSteps taken: %d",
		task.Goal, task.CurrentStep, phase, task.CurrentPageURL, len(task.History)))
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func truncate(s string, maxLen int) string {
	if cut := entity.Truncate(s, maxLen); cut != s {
		return cut + "..."
	}
	return s
}
