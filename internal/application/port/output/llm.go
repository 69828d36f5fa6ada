package output

import (
	"context"

	"browser-guide/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float32
	MaxTokens   int
}

type ChatResponse struct {
	Message entity.Message
}

// DecisionPort returns the raw model reply for a prompt; ok is false on any
// transport or payload failure.
type DecisionPort interface {
	Decide(ctx context.Context, prompt string) (reply string, ok bool)
}
