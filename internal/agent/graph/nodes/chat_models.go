package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/retail-assistant/server/internal/agent/model"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// NewGenAIClient creates the Gemini API client shared by the chat model and
// the policy embedder.
func NewGenAIClient(ctx context.Context, cfg model.ChatModelConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModel creates the agent chat model. Tools are attached later through
// WithTools so the same instance also answers policy prompts without tools.
func NewChatModel(ctx context.Context, client *genai.Client, cfg model.ChatModelConfig) (*gemini.ChatModel, error) {
	gcfg := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	}
	if cfg.ThinkingBudget > 0 {
		gcfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(cfg.ThinkingBudget),
		}
	}

	cm, err := gemini.NewChatModel(ctx, gcfg)
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return cm, nil
}
