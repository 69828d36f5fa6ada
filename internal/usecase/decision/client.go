package decision

import (
	"context"
	"strings"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"
)

var _ output.DecisionPort = (*Client)(nil)

type ClientConfig struct {
	Temperature float32
	MaxTokens   int
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Temperature: 0.2,
		MaxTokens:   500,
	}
}

// Client asks the model for the next step. Failures are logged and reported
// as ok=false; it never retries.
type Client struct {
	llm    output.LLMPort
	cfg    ClientConfig
	logger output.LoggerPort
}

func NewClient(llm output.LLMPort, cfg ClientConfig, logger output.LoggerPort) *Client {
	return &Client{llm: llm, cfg: cfg, logger: logger}
}

func (c *Client) Decide(ctx context.Context, prompt string) (string, bool) {
	resp, err := c.llm.Chat(ctx, output.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		c.logger.Error("Decision request failed", "error", err)
		return "", false
	}
	if resp == nil || strings.TrimSpace(resp.Message.Content) == "" {
		c.logger.Warn("Decision response was empty")
		return "", false
	}

	c.logger.Debug("Decision received", "reply", resp.Message.Content)
	return resp.Message.Content, true
}
