package output

import (
	"context"

	"browser-guide/internal/domain/entity"
)

// StatePort persists the single navigation record.
type StatePort interface {
	// Load returns the stored record; found is false when there is none.
	Load(ctx context.Context) (state entity.PersistedState, found bool, err error)
	Save(ctx context.Context, state entity.PersistedState) error
	Clear(ctx context.Context) error
}
