// Package app wires configuration into the services shared by the API server
// and the speechctl CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/usecase/topic"
	"github.com/johnquangdev/speech-insights/pkg/ai"
	"github.com/johnquangdev/speech-insights/pkg/config"
)

// NewLogger returns a development logger outside production
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewSession builds the classification session selected by CLASSIFIER_MODE.
// In assistants mode the assistant is created once when no id is configured.
func NewSession(ctx context.Context, cfg *config.ClassifierConfig, logger *zap.Logger) (topic.Session, error) {
	switch cfg.Mode {
	case "chat":
		client, err := ai.NewChatClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat client: %w", err)
		}
		logger.Info("💬 Classifier running in chat mode", zap.String("model", cfg.Model))
		return client, nil
	case "assistants", "":
		client := ai.NewAssistantClient(cfg)
		id, err := client.EnsureAssistant(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare assistant: %w", err)
		}
		logger.Info("🤖 Classifier running in assistants mode",
			zap.String("assistant_id", id),
			zap.String("model", cfg.Model),
		)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Mode)
	}
}

// NewTopicService assembles the batched classification pipeline around session
func NewTopicService(cfg *config.Config, session topic.Session, cache topic.Cache, logger *zap.Logger) *topic.Service {
	retry := topic.NewRetryController(session, topic.ArrayExtractor{}, topic.RetryConfig{
		MaxRetries:     cfg.Topic.MaxRetries,
		Backoff:        cfg.Topic.RetryBackoff,
		AttemptTimeout: cfg.Classifier.RunTimeout,
	}, logger)

	return topic.NewService(retry, topic.Options{
		BatchSize: cfg.Topic.BatchSize,
		MaxLength: cfg.Topic.MaxLength,
		Cache:     cache,
		CacheTTL:  cfg.Cache.TTL,
	}, logger)
}
