package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	openaiProto "github.com/cloudwego/eino-ext/libs/acl/openai"

	"github.com/qiuyin/AgentDesk/internal/config"
)

const openaiMaxTokens = 8192

// OpenAIProvider drives any OpenAI-compatible completion endpoint. It keeps
// two chat model instances: the default one for free-text analysis and a
// second with json_object response format enforced, used for the final
// decision call.
type OpenAIProvider struct {
	chat     *openaiModel.ChatModel
	decision *openaiModel.ChatModel
}

func NewOpenAIProvider(ctx context.Context, cfg *config.Config) (*OpenAIProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	maxTokens := openaiMaxTokens

	chat, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		BaseURL:   cfg.BackendURL,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	decision, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		BaseURL:   cfg.BackendURL,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
		ResponseFormat: &openaiProto.ChatCompletionResponseFormat{
			Type: openaiProto.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create decision model: %w", err)
	}

	return &OpenAIProvider{chat: chat, decision: decision}, nil
}

func (p *OpenAIProvider) Name() string { return config.ProviderOpenAI }

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	cm := p.chat
	if req.JSONOutput {
		cm = p.decision
	}
	msgs := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.Prompt),
	}
	resp, err := cm.Generate(ctx, msgs, model.WithTemperature(req.Temperature))
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("openai generate: empty completion")
	}
	return resp.Content, nil
}
