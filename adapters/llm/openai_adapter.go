package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type openAICompatibleAdapter struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAICompatibleAdapter talks to any OpenAI-compatible chat endpoint,
// e.g. a local Ollama at http://localhost:11434/v1.
func NewOpenAICompatibleAdapter(cfg config.Config, log logger.Logger) (service.LLMService, error) {
	if cfg.LLM.Host == "" {
		return nil, fmt.Errorf("llm host is not configured")
	}

	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.LLM.Host, "/")

	log.Info("LLM Adapter initialized")
	return &openAICompatibleAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.LLM.Model,
		log:    log,
	}, nil
}

func (a *openAICompatibleAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Stream: false,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no chat choices")
	}

	return resp.Choices[0].Message.Content, nil
}
