package entity

type InteractionKind string

const (
	InteractionClick     InteractionKind = "click"
	InteractionInput     InteractionKind = "input"
	InteractionChange    InteractionKind = "change"
	InteractionKeydown   InteractionKind = "keydown"
	InteractionNavigated InteractionKind = "navigated"
)

// Interaction is how an AwaitingInteraction wait ended on the page side.
type Interaction struct {
	Kind InteractionKind
	URL  string
}

// Textual reports whether the interaction came from typing, which needs a
// longer settle delay before the page is re-scanned.
func (k InteractionKind) Textual() bool {
	return k == InteractionInput || k == InteractionKeydown
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
