package langchain

import (
	"context"
	"testing"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestChat_ReturnsModelText(t *testing.T) {
	a := NewAdapter(fake.NewFakeLLM([]string{"ELEMENT_ID: elem_2"}), nil)

	resp, err := a.Chat(context.Background(), output.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "prompt"}},
		Temperature: 0.2,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "ELEMENT_ID: elem_2", resp.Message.Content)
}

func TestChat_PropagatesModelError(t *testing.T) {
	a := NewAdapter(fake.NewFakeLLM(nil), nil)

	_, err := a.Chat(context.Background(), output.ChatRequest{})
	assert.Error(t, err)
}

func TestConvertMessages_Roles(t *testing.T) {
	got := convertMessages([]entity.Message{
		{Role: entity.RoleSystem, Content: "s"},
		{Role: entity.RoleUser, Content: "u"},
		{Role: entity.RoleAssistant, Content: "a"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, got[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, got[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, got[2].Role)
	assert.Equal(t, llms.TextContent{Text: "u"}, got[1].Parts[0])
}

func TestNewOllamaAdapter(t *testing.T) {
	a, err := NewOllamaAdapter(DefaultOllamaConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestNewOllamaAdapter_InvalidURL(t *testing.T) {
	_, err := NewOllamaAdapter(OllamaConfig{ServerURL: "http://[::1", Model: "m"}, nil)
	assert.Error(t, err)
}
