package control

import (
	"context"
	"testing"

	"browser-guide/internal/domain/entity"
	"browser-guide/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNavigator struct {
	goals     []string
	resets    int
	completes int
	active    bool
}

func (n *stubNavigator) Start(_ context.Context, goal string) error {
	if goal == "" {
		return entity.ErrEmptyGoal
	}
	n.goals = append(n.goals, goal)
	n.active = true
	return nil
}

func (n *stubNavigator) Resume(context.Context) (bool, error) { return false, nil }

func (n *stubNavigator) Reset(context.Context) error {
	n.resets++
	n.active = false
	return nil
}

func (n *stubNavigator) Complete(context.Context) error {
	if !n.active {
		return entity.ErrNoActiveTask
	}
	n.completes++
	n.active = false
	return nil
}

func (n *stubNavigator) Task() entity.NavigationTask { return entity.NavigationTask{Active: n.active} }
func (n *stubNavigator) Phase() entity.Phase         { return entity.PhaseIdle }
func (n *stubNavigator) Wait()                       {}

func TestDispatcher_Actions(t *testing.T) {
	nav := &stubNavigator{}
	d := NewDispatcher(nav, logger.NewNop())
	ctx := context.Background()

	reply, err := d.Handle(ctx, entity.ControlMessage{Action: entity.ActionPing})
	require.NoError(t, err)
	assert.Equal(t, "active", reply.Status)

	reply, err = d.Handle(ctx, entity.ControlMessage{Action: entity.ActionStartNavigation, Goal: "Find pricing"})
	require.NoError(t, err)
	assert.Equal(t, "Navigation started", reply.Status)
	assert.Equal(t, []string{"Find pricing"}, nav.goals)

	reply, err = d.Handle(ctx, entity.ControlMessage{Action: entity.ActionComplete})
	require.NoError(t, err)
	assert.Equal(t, "Goal completed manually", reply.Status)

	reply, err = d.Handle(ctx, entity.ControlMessage{Action: entity.ActionComplete})
	require.NoError(t, err)
	assert.Equal(t, "No active navigation to complete", reply.Status)
	assert.Equal(t, 1, nav.completes)

	reply, err = d.Handle(ctx, entity.ControlMessage{Action: entity.ActionReset})
	require.NoError(t, err)
	assert.Equal(t, "Reset complete", reply.Status)
	assert.Equal(t, 1, nav.resets)
}

func TestDispatcher_Errors(t *testing.T) {
	d := NewDispatcher(&stubNavigator{}, logger.NewNop())
	ctx := context.Background()

	reply, err := d.Handle(ctx, entity.ControlMessage{Action: entity.ActionStartNavigation})
	assert.ErrorIs(t, err, entity.ErrEmptyGoal)
	assert.Equal(t, entity.ErrEmptyGoal.Error(), reply.Error)

	reply, err = d.Handle(ctx, entity.ControlMessage{Action: "explode"})
	assert.ErrorIs(t, err, entity.ErrUnknownAction)
	assert.Contains(t, reply.Error, "explode")

	_, err = d.Execute(ctx, []byte("{not json"))
	assert.Error(t, err)
}

func TestDispatcher_Execute(t *testing.T) {
	nav := &stubNavigator{}
	d := NewDispatcher(nav, logger.NewNop())

	reply, err := d.Execute(context.Background(), []byte(`{"action":"startNavigation","goal":"Open docs"}`))
	require.NoError(t, err)
	assert.Equal(t, "Navigation started", reply.Status)
	assert.Equal(t, []string{"Open docs"}, nav.goals)
}
