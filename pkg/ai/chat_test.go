package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	messages []llms.MessageContent
	content  string
	err      error
	empty    bool
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.content}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestChatClient_Run(t *testing.T) {
	model := &fakeModel{content: `[{"topic":"A","description":"d"}]`}
	client := NewChatClientWithModel(model, NewAssistantConfig("gpt-4o", 1, 1))

	raw, err := client.Run(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, `[{"topic":"A","description":"d"}]`, raw)

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: TopicInstructions}, model.messages[0].Parts[0])
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: `{"textDocuments":["hello"]}`}, model.messages[1].Parts[0])
}

func TestChatClient_Errors(t *testing.T) {
	client := NewChatClientWithModel(&fakeModel{err: errors.New("connection reset")}, NewAssistantConfig("m", 0, 1))
	_, err := client.Run(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrTransientCall)

	client = NewChatClientWithModel(&fakeModel{empty: true}, NewAssistantConfig("m", 0, 1))
	_, err = client.Run(context.Background(), []string{"x"})
	var failed *RunFailedError
	assert.ErrorAs(t, err, &failed)
}
