package entity

import "strings"

// CompletionSentinel is the element id the model answers with once the goal is reached.
const CompletionSentinel = "NONE"

const (
	DefaultAction      = "click"
	DefaultInstruction = "Click this element"
)

type ParseStatus int

const (
	ParseInvalid ParseStatus = iota
	ParseComplete
	ParseDecision
)

func (s ParseStatus) String() string {
	switch s {
	case ParseComplete:
		return "complete"
	case ParseDecision:
		return "decision"
	default:
		return "invalid"
	}
}

// Decision is the model's choice of the next element.
type Decision struct {
	ElementID   string
	Action      string
	Instruction string
	Reasoning   string
}

type ParseResult struct {
	Status   ParseStatus
	Decision Decision
}

// Guidance is what the highlight tooltip shows next to the chosen element.
type Guidance struct {
	Step        int
	Action      string
	Instruction string
}

// Label is the upper-cased action shown as the tooltip heading.
func (g Guidance) Label() string {
	if g.Action == "" {
		return strings.ToUpper(DefaultAction)
	}
	return strings.ToUpper(g.Action)
}
