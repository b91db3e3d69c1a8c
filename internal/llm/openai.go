package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"call-auditor-go/internal/config"
)

// OpenAI talks to the chat completions API or any compatible gateway.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

func NewOpenAI(cfg config.LLMConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// one logical request per analysis; the caller decides about retries
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.F(o.model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		}),
		Temperature: openai.F(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.F(o.maxTokens)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", transportError(o.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", transportError(o.Name(), fmt.Errorf("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}
