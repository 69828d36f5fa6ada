package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"browser-guide/internal/application/port/input"
	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"
)

// Dispatcher maps inbound control messages onto the navigator.
type Dispatcher struct {
	nav    input.Navigator
	logger output.LoggerPort
}

func NewDispatcher(nav input.Navigator, logger output.LoggerPort) *Dispatcher {
	return &Dispatcher{nav: nav, logger: logger}
}

// Execute decodes a raw control message and handles it.
func (d *Dispatcher) Execute(ctx context.Context, raw []byte) (entity.ControlReply, error) {
	var msg entity.ControlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return entity.ControlReply{}, fmt.Errorf("decode control message: %w", err)
	}
	return d.Handle(ctx, msg)
}

func (d *Dispatcher) Handle(ctx context.Context, msg entity.ControlMessage) (entity.ControlReply, error) {
	d.logger.Debug("Control message", "action", msg.Action)

	switch msg.Action {
	case entity.ActionPing:
		return entity.ControlReply{Status: "active"}, nil

	case entity.ActionStartNavigation:
		if err := d.nav.Start(ctx, msg.Goal); err != nil {
			return entity.ControlReply{Error: err.Error()}, err
		}
		return entity.ControlReply{Status: "Navigation started"}, nil

	case entity.ActionReset:
		if err := d.nav.Reset(ctx); err != nil {
			return entity.ControlReply{Error: err.Error()}, err
		}
		return entity.ControlReply{Status: "Reset complete"}, nil

	case entity.ActionComplete:
		err := d.nav.Complete(ctx)
		if errors.Is(err, entity.ErrNoActiveTask) {
			return entity.ControlReply{Status: "No active navigation to complete"}, nil
		}
		if err != nil {
			return entity.ControlReply{Error: err.Error()}, err
		}
		return entity.ControlReply{Status: "Goal completed manually"}, nil
	}

	err := fmt.Errorf("%w: %q", entity.ErrUnknownAction, strings.TrimSpace(msg.Action))
	return entity.ControlReply{Error: err.Error()}, err
}
