package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/cenkalti/backoff/v4"
)

type outcome int

const (
	outcomeStop outcome = iota
	outcomeNotFound
	outcomeAwait
)

// run is one flight: planning passes and interaction waits until the goal is
// reached, something fails, or the flight is cancelled.
func (c *Controller) run(ctx context.Context, gen uint64, grace time.Duration) error {
	if !sleep(ctx, grace) {
		return nil
	}

	retry := c.newRetryPolicy()
	for {
		result, target, err := c.plan(ctx, gen)
		switch result {
		case outcomeStop:
			return err

		case outcomeNotFound:
			delay := retry.NextBackOff()
			if delay == backoff.Stop {
				c.deps.Logger.Warn("Giving up on missing element", "attempts", c.cfg.MaxNotFoundRetries)
				c.deps.Status.ShowStatus(ctx, output.StatusError,
					fmt.Sprintf("Element not found after %d retries", c.cfg.MaxNotFoundRetries))
				return ErrRetriesExhausted
			}
			c.deps.Status.ShowStatus(ctx, output.StatusBusy, "Element not found, retrying...")
			if !sleep(ctx, delay) {
				return nil
			}

		case outcomeAwait:
			retry.Reset()
			again, err := c.await(ctx, gen, target)
			if !again {
				return err
			}
		}
	}
}

// guided is the element currently highlighted and the step it stands for.
type guided struct {
	el   entity.CandidateElement
	step int
}

// plan runs one Planning pass: scan, prompt, decide, parse, then highlight.
// The step is only recorded once the highlight is on the page.
func (c *Controller) plan(ctx context.Context, gen uint64) (outcome, guided, error) {
	var none guided
	c.setPhase(gen, entity.PhasePlanning)
	c.deps.Status.ShowStatus(ctx, output.StatusBusy, "Analyzing page...")

	candidates, err := c.deps.Page.Scan(ctx, c.cfg.UIRootID)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeStop, none, nil
		}
		c.deps.Logger.Error("Page scan failed", "error", err)
		c.deps.Status.ShowStatus(ctx, output.StatusError, "Could not read the page")
		return outcomeStop, none, fmt.Errorf("scan page: %w", err)
	}

	task, ok := c.view(gen)
	if !ok {
		return outcomeStop, none, nil
	}

	pageURL := c.deps.Page.CurrentURL()
	available := make([]entity.CandidateElement, 0, len(candidates))
	for _, el := range candidates {
		if el.Fingerprint == "" {
			el = el.WithFingerprint(pageURL)
		}
		if task.IsCompleted(el.Fingerprint) {
			continue
		}
		available = append(available, el)
	}

	prompt, err := c.deps.Prompts.Build(task, pageURL, available)
	if err != nil {
		c.deps.Logger.Error("Prompt rendering failed", "error", err)
		c.deps.Status.ShowStatus(ctx, output.StatusError, "Could not build the request")
		return outcomeStop, none, err
	}

	c.deps.Logger.Debug("Requesting decision", "step", task.CurrentStep+1, "candidates", len(available), "url", pageURL)
	reply, ok := c.deps.Decider.Decide(ctx, prompt)
	if ctx.Err() != nil || !c.current(gen) {
		c.deps.Logger.Debug("Dropping decision for a stale flight")
		return outcomeStop, none, nil
	}
	if !ok {
		c.deps.Status.ShowStatus(ctx, output.StatusError, "Error getting AI response")
		return outcomeStop, none, nil
	}

	result := c.deps.Parser.Parse(reply)
	switch result.Status {
	case entity.ParseInvalid:
		c.deps.Logger.Warn("Unusable decision reply", "reply", reply)
		c.deps.Status.ShowStatus(ctx, output.StatusError, "Error getting AI response")
		return outcomeStop, none, nil
	case entity.ParseComplete:
		c.finish(ctx, gen)
		return outcomeStop, none, nil
	}

	d := result.Decision
	el, found := findCandidate(available, d.ElementID)
	if !found {
		c.deps.Logger.Warn("Decision names an unknown element", "elementId", d.ElementID, "candidates", len(available))
		return outcomeNotFound, none, nil
	}

	entry := entity.HistoryEntry{
		Step:        task.CurrentStep + 1,
		Instruction: d.Instruction,
		Action:      d.Action,
		TargetText:  el.Label(),
		Reasoning:   d.Reasoning,
		Timestamp:   c.now(),
	}
	guidance := entity.Guidance{Step: entry.Step, Action: d.Action, Instruction: d.Instruction}
	if err := c.deps.Page.Highlight(ctx, el, guidance); err != nil {
		if ctx.Err() != nil {
			return outcomeStop, none, nil
		}
		c.deps.Logger.Warn("Highlight failed", "elementId", el.ID, "error", err)
		return outcomeNotFound, none, nil
	}

	if !c.mutate(ctx, gen, func(t *entity.NavigationTask) {
		t.AppendHistory(entry)
		t.MarkCompleted(el.Fingerprint)
	}) {
		return outcomeStop, none, nil
	}

	c.deps.Logger.Info("Guiding user", "step", entry.Step, "action", d.Action, "target", entry.TargetText, "reasoning", d.Reasoning)
	if updated, ok := c.view(gen); ok {
		c.deps.Status.ShowHistory(ctx, updated.History)
	}
	c.deps.Status.ShowStatus(ctx, output.StatusInfo, fmt.Sprintf("Step %d: %s", entry.Step, d.Instruction))
	c.snapshot(ctx, task.ID, entry.Step)

	return outcomeAwait, guided{el: el, step: entry.Step}, nil
}

// await waits for the user on the highlighted element, then settles and
// re-stamps the page. It reports whether the flight should plan again.
func (c *Controller) await(ctx context.Context, gen uint64, target guided) (bool, error) {
	el := target.el
	c.setPhase(gen, entity.PhaseAwaitingInteraction)

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.cfg.InteractionTimeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.InteractionTimeout)
	}
	interaction, err := c.deps.Page.AwaitInteraction(waitCtx, el)
	cancel()

	switch {
	case ctx.Err() != nil:
		return false, nil
	case err != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded):
		c.deps.Logger.Info("No interaction before timeout", "elementId", el.ID, "timeout", c.cfg.InteractionTimeout)
		c.clearHighlight(ctx)
		if !c.mutate(ctx, gen, func(t *entity.NavigationTask) { t.Retract(target.step, el.Fingerprint) }) {
			return false, nil
		}
		return true, nil
	case errors.Is(err, entity.ErrElementGone):
		c.deps.Logger.Info("Highlighted element disappeared", "elementId", el.ID)
		return true, nil
	case err != nil:
		c.deps.Logger.Error("Waiting for interaction failed", "error", err)
		c.deps.Status.ShowStatus(ctx, output.StatusError, "Lost track of the page")
		return false, fmt.Errorf("await interaction: %w", err)
	}

	c.deps.Logger.Info("User interacted", "kind", interaction.Kind, "elementId", el.ID)
	if !c.mutate(ctx, gen, func(t *entity.NavigationTask) { t.CurrentStep++ }) {
		return false, nil
	}

	c.setPhase(gen, entity.PhaseSettling)
	settle := c.cfg.ClickSettle
	switch {
	case interaction.Kind == entity.InteractionNavigated:
		settle = c.cfg.ResumeGrace
	case interaction.Kind.Textual():
		settle = c.cfg.TextSettle
	}
	if !sleep(ctx, settle) {
		return false, nil
	}

	pageURL := c.deps.Page.CurrentURL()
	if !c.mutate(ctx, gen, func(t *entity.NavigationTask) { t.Restamp(pageURL) }) {
		return false, nil
	}
	return true, nil
}

// finish handles a COMPLETE reply.
func (c *Controller) finish(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	goal := c.task.Goal
	c.task.Clear()
	c.mu.Unlock()

	c.clearHighlight(ctx)
	if err := c.deps.Store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.deps.Logger.Warn("Failed to clear navigation state", "error", err)
	}
	c.deps.Logger.Info("Goal reached", "goal", goal)
	c.deps.Status.ShowHistory(ctx, nil)
	c.deps.Status.ShowStatus(ctx, output.StatusSuccess, "Goal completed successfully!")
}

func findCandidate(candidates []entity.CandidateElement, id string) (entity.CandidateElement, bool) {
	for _, el := range candidates {
		if el.ID == id {
			return el, true
		}
	}
	return entity.CandidateElement{}, false
}
