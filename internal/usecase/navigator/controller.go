package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"browser-guide/internal/application/port/input"
	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

var _ input.Navigator = (*Controller)(nil)

// ErrRetriesExhausted ends a planning flight whose chosen element kept missing
// from the page. The task stays active.
var ErrRetriesExhausted = errors.New("element not found after retries")

// PromptBuilder renders the planning prompt.
type PromptBuilder interface {
	Build(task entity.NavigationTask, pageURL string, candidates []entity.CandidateElement) (string, error)
}

// ResponseParser interprets the model reply.
type ResponseParser interface {
	Parse(raw string) entity.ParseResult
}

type Config struct {
	UIRootID string

	// ClickSettle and TextSettle are waited after an interaction before the
	// page is scanned again.
	ClickSettle time.Duration
	TextSettle  time.Duration
	// ResumeGrace is waited before planning on a freshly loaded document.
	ResumeGrace time.Duration

	NotFoundInitialDelay time.Duration
	MaxNotFoundRetries   int

	// InteractionTimeout re-plans when the user does nothing for this long.
	// Zero waits forever.
	InteractionTimeout time.Duration

	// SnapshotDir receives a screenshot per step when the page supports it.
	SnapshotDir string
}

func DefaultConfig() Config {
	return Config{
		UIRootID:             entity.UIRootID,
		ClickSettle:          1500 * time.Millisecond,
		TextSettle:           2500 * time.Millisecond,
		ResumeGrace:          1500 * time.Millisecond,
		NotFoundInitialDelay: time.Second,
		MaxNotFoundRetries:   5,
	}
}

type Deps struct {
	Page    output.PagePort
	Decider output.DecisionPort
	Prompts PromptBuilder
	Parser  ResponseParser
	Store   output.StatePort
	Status  output.StatusPort
	Logger  output.LoggerPort
}

// Controller drives one navigation task through Planning and
// AwaitingInteraction. At most one flight (a goroutine running those phases)
// exists at a time; Start, Resume, Reset and Complete stop the current flight
// before touching the task. Every result a flight applies is checked against
// the generation it was started with, so a reply that arrives after a reset is
// dropped.
type Controller struct {
	deps Deps
	cfg  Config

	now   func() time.Time
	newID func() string

	// ops serialises the external operations.
	ops sync.Mutex

	mu     sync.Mutex
	task   entity.NavigationTask
	phase  entity.Phase
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewController(deps Deps, cfg Config) *Controller {
	return &Controller{
		deps:  deps,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
		task:  entity.NavigationTask{CompletedElementKeys: make(map[string]struct{})},
		phase: entity.PhaseIdle,
	}
}

func (c *Controller) Start(ctx context.Context, goal string) error {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return entity.ErrEmptyGoal
	}

	c.ops.Lock()
	defer c.ops.Unlock()

	c.stopFlight()
	c.clearHighlight(ctx)

	c.mu.Lock()
	c.task.Begin(c.newID(), goal, c.deps.Page.CurrentURL())
	snap := c.task.Snapshot(c.now())
	c.mu.Unlock()

	c.persist(ctx, snap)
	c.deps.Logger.Info("Navigation started", "goal", goal, "taskId", snap.TaskID, "url", snap.CurrentPage)
	c.deps.Status.ShowHistory(ctx, nil)
	c.deps.Status.ShowStatus(ctx, output.StatusBusy, "Navigation started")

	c.launch(0)
	return nil
}

// Resume restores an active persisted task onto the current document. It
// reports false when there is nothing to resume.
func (c *Controller) Resume(ctx context.Context) (bool, error) {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.stopFlight()

	state, found, err := c.deps.Store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load navigation state: %w", err)
	}
	task, ok := RestoreTask(state, found, c.deps.Page.CurrentURL())
	if !ok {
		return false, nil
	}

	c.mu.Lock()
	c.task = task
	snap := c.task.Snapshot(c.now())
	c.mu.Unlock()

	c.persist(ctx, snap)
	c.deps.Logger.Info("Navigation resumed", "goal", task.Goal, "step", task.CurrentStep, "url", task.CurrentPageURL)
	c.deps.Status.ShowHistory(ctx, task.History)
	c.deps.Status.ShowStatus(ctx, output.StatusBusy, "Resuming navigation: "+task.Goal)

	c.launch(c.cfg.ResumeGrace)
	return true, nil
}

// RestoreTask is the resume entry point: a task rebuilt from the record and
// re-stamped to the document it now runs in.
func RestoreTask(state entity.PersistedState, found bool, pageURL string) (entity.NavigationTask, bool) {
	if !found || !state.Resumable() {
		return entity.NavigationTask{}, false
	}
	task := state.Task()
	task.Restamp(pageURL)
	return task, true
}

func (c *Controller) Reset(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.stopFlight()
	c.clearTask(ctx)
	c.deps.Logger.Info("Navigation reset")
	c.deps.Status.ShowStatus(ctx, output.StatusInfo, "Reset complete")
	return nil
}

func (c *Controller) Complete(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	active := c.task.Active
	c.mu.Unlock()
	if !active {
		c.deps.Status.ShowStatus(ctx, output.StatusInfo, "No active navigation to complete")
		return entity.ErrNoActiveTask
	}

	c.stopFlight()
	c.clearTask(ctx)
	c.deps.Logger.Info("Navigation completed manually")
	c.deps.Status.ShowStatus(ctx, output.StatusSuccess, "Goal completed manually")
	return nil
}

// Close stops the current flight without touching the persisted record, so
// the task can be resumed by the next process.
func (c *Controller) Close() {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.stopFlight()
}

func (c *Controller) Task() entity.NavigationTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTask(c.task)
}

func (c *Controller) Phase() entity.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns why the last flight stopped early, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// launch starts a flight for the current generation.
func (c *Controller) launch(grace time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	gen := c.gen
	c.cancel = cancel
	c.done = done
	c.err = nil
	c.phase = entity.PhasePlanning
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		err := c.run(ctx, gen, grace)

		c.mu.Lock()
		if gen == c.gen {
			c.phase = entity.PhaseIdle
			c.err = err
		}
		c.mu.Unlock()
	}()
}

// stopFlight invalidates the current generation and waits for its flight.
func (c *Controller) stopFlight() {
	c.mu.Lock()
	c.gen++
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.phase = entity.PhaseIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Controller) clearTask(ctx context.Context) {
	c.mu.Lock()
	c.task.Clear()
	c.mu.Unlock()

	c.clearHighlight(ctx)
	if err := c.deps.Store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.deps.Logger.Warn("Failed to clear navigation state", "error", err)
	}
	c.deps.Status.ShowHistory(ctx, nil)
}

func (c *Controller) clearHighlight(ctx context.Context) {
	if err := c.deps.Page.ClearHighlight(context.WithoutCancel(ctx)); err != nil {
		c.deps.Logger.Warn("Failed to clear highlight", "error", err)
	}
}

func (c *Controller) persist(ctx context.Context, snap entity.PersistedState) {
	if err := c.deps.Store.Save(context.WithoutCancel(ctx), snap); err != nil {
		c.deps.Logger.Warn("Failed to save navigation state", "error", err)
	}
}

// current reports whether gen still owns an active task.
func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && c.task.Active
}

func (c *Controller) setPhase(gen uint64, p entity.Phase) {
	c.mu.Lock()
	if gen == c.gen {
		c.phase = p
	}
	c.mu.Unlock()
}

// view returns a copy of the task if gen is still current.
func (c *Controller) view(gen uint64) (entity.NavigationTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.task.Active {
		return entity.NavigationTask{}, false
	}
	return cloneTask(c.task), true
}

// mutate applies fn and persists the result, unless gen went stale.
func (c *Controller) mutate(ctx context.Context, gen uint64, fn func(t *entity.NavigationTask)) bool {
	c.mu.Lock()
	if gen != c.gen || !c.task.Active {
		c.mu.Unlock()
		return false
	}
	fn(&c.task)
	snap := c.task.Snapshot(c.now())
	c.mu.Unlock()

	c.persist(ctx, snap)
	return true
}

func cloneTask(t entity.NavigationTask) entity.NavigationTask {
	keys := make(map[string]struct{}, len(t.CompletedElementKeys))
	for k := range t.CompletedElementKeys {
		keys[k] = struct{}{}
	}
	t.CompletedElementKeys = keys
	t.History = append([]entity.HistoryEntry(nil), t.History...)
	return t
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Controller) newRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.cfg.NotFoundInitialDelay),
		backoff.WithRandomizationFactor(0),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithMaxRetries(b, uint64(max(c.cfg.MaxNotFoundRetries, 0)))
}
