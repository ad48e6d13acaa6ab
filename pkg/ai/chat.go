package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/johnquangdev/speech-insights/pkg/config"
)

// ChatClient classifies texts through a single chat completion, sending the
// assistant instructions as the system message.
type ChatClient struct {
	llm       llms.Model
	assistant AssistantConfig
}

// NewChatClient creates a chat completion client from the classifier config
func NewChatClient(cfg *config.ClassifierConfig) (*ChatClient, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(cfg.APIVersion),
		)
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewChatClientWithModel(llm, NewAssistantConfig(cfg.Model, cfg.Temperature, cfg.TopP)), nil
}

// NewChatClientWithModel wraps an existing llms.Model
func NewChatClientWithModel(llm llms.Model, assistant AssistantConfig) *ChatClient {
	return &ChatClient{llm: llm, assistant: assistant}
}

// Run implements the classification session contract with one completion
func (c *ChatClient) Run(ctx context.Context, texts []string) (string, error) {
	payload, err := json.Marshal(map[string][]string{"textDocuments": texts})
	if err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, c.assistant.Instructions),
		llms.TextParts(schema.ChatMessageTypeHuman, string(payload)),
	}

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(c.assistant.Temperature),
		llms.WithTopP(c.assistant.TopP),
	)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrTransientCall, err)
	}
	if len(resp.Choices) == 0 {
		return "", &RunFailedError{Status: "empty", Reason: "no choices returned"}
	}
	return resp.Choices[0].Content, nil
}
