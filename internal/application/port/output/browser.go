package output

import (
	"context"

	"browser-guide/internal/domain/entity"
)

// PagePort is the live document the navigation loop works against.
type PagePort interface {
	// Scan enumerates the visible interactive elements outside excludeRootID.
	// Ids are only valid until the next Scan.
	Scan(ctx context.Context, excludeRootID string) ([]entity.CandidateElement, error)
	// Highlight draws the overlay and tooltip for an element of the latest scan.
	Highlight(ctx context.Context, el entity.CandidateElement, g entity.Guidance) error
	ClearHighlight(ctx context.Context) error
	// AwaitInteraction blocks until the user interacts with el, the page
	// navigates away, or ctx is done.
	AwaitInteraction(ctx context.Context, el entity.CandidateElement) (entity.Interaction, error)
	CurrentURL() string
}

// SnapshotPort is implemented by pages that can capture what the user sees.
type SnapshotPort interface {
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
}
