package entity

// Inbound control actions.
const (
	ActionPing            = "ping"
	ActionStartNavigation = "startNavigation"
	ActionReset           = "reset"
	ActionComplete        = "complete"
)

type ControlMessage struct {
	Action string `json:"action"`
	Goal   string `json:"goal,omitempty"`
}

type ControlReply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
