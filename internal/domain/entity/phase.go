package entity

// Phase is where the navigation loop currently is.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhasePlanning            Phase = "planning"
	PhaseAwaitingInteraction Phase = "awaiting_interaction"
	PhaseSettling            Phase = "settling"
)
