package langchain

import (
	"context"
	"fmt"
	"net/url"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var _ output.LLMPort = (*Adapter)(nil)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.1"
)

// Adapter serves chat requests from any langchaingo model, typically a local
// Ollama instance.
type Adapter struct {
	model  llms.Model
	logger output.LoggerPort
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		ServerURL: DefaultOllamaURL,
		Model:     DefaultOllamaModel,
	}
}

func NewAdapter(model llms.Model, logger output.LoggerPort) *Adapter {
	return &Adapter{model: model, logger: logger}
}

func NewOllamaAdapter(cfg OllamaConfig, logger output.LoggerPort) (*Adapter, error) {
	// ollama.WithServerURL exits the process on a bad URL.
	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.ServerURL, err)
	}
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return NewAdapter(llm, logger), nil
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	opts := []llms.CallOption{llms.WithTemperature(float64(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	if a.logger != nil {
		a.logger.Debug("Generating content", "messages", len(req.Messages), "temperature", req.Temperature, "maxTokens", req.MaxTokens)
	}

	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("no choices in response")
	}

	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: resp.Choices[0].Content},
	}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		result = append(result, llms.TextParts(roleFor(msg.Role), msg.Content))
	}
	return result
}

func roleFor(role entity.MessageRole) llms.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return llms.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
