package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	deepseekModel "github.com/cloudwego/eino-ext/components/model/deepseek"

	"github.com/qiuyin/AgentDesk/internal/config"
)

const deepseekMaxTokens = 8192

// DeepSeekProvider drives the DeepSeek chat API. DeepSeek's completion
// endpoint has no enforced JSON response mode here, so decision calls rely
// on the prompt contract and the downstream extractor.
type DeepSeekProvider struct {
	chat *deepseekModel.ChatModel
}

func NewDeepSeekProvider(ctx context.Context, cfg *config.Config) (*DeepSeekProvider, error) {
	if cfg.DeepSeekAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	chat, err := deepseekModel.NewChatModel(ctx, &deepseekModel.ChatModelConfig{
		APIKey:    cfg.DeepSeekAPIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BackendURL,
		MaxTokens: deepseekMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek model: %w", err)
	}
	return &DeepSeekProvider{chat: chat}, nil
}

func (p *DeepSeekProvider) Name() string { return config.ProviderDeepSeek }

func (p *DeepSeekProvider) Complete(ctx context.Context, req Request) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.Prompt),
	}
	resp, err := p.chat.Generate(ctx, msgs, model.WithTemperature(req.Temperature))
	if err != nil {
		return "", fmt.Errorf("deepseek generate: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("deepseek generate: empty completion")
	}
	return resp.Content, nil
}

// NewProvider selects the backend from configuration.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderDeepSeek:
		return NewDeepSeekProvider(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
