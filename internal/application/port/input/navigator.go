package input

import (
	"context"

	"browser-guide/internal/domain/entity"
)

// Navigator is the inbound side of the navigation loop.
type Navigator interface {
	// Start begins a new task for goal and kicks off the first Planning pass.
	Start(ctx context.Context, goal string) error
	// Resume restores the persisted task, if any, and re-enters Planning.
	Resume(ctx context.Context) (bool, error)
	// Reset clears the task and the persisted record from any state.
	Reset(ctx context.Context) error
	// Complete ends the active task without consulting the model.
	Complete(ctx context.Context) error
	// Task returns a copy of the current task.
	Task() entity.NavigationTask
	Phase() entity.Phase
	// Wait blocks until no Planning or AwaitingInteraction flight is outstanding.
	Wait()
}
