package output

import (
	"context"

	"browser-guide/internal/domain/entity"
)

type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusBusy    StatusLevel = "busy"
	StatusSuccess StatusLevel = "success"
	StatusError   StatusLevel = "error"
)

// StatusPort is the user-facing status line of the widget collaborator.
type StatusPort interface {
	ShowStatus(ctx context.Context, level StatusLevel, text string)
	ShowHistory(ctx context.Context, history []entity.HistoryEntry)
}
