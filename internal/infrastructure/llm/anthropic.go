package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"storyharvest/internal/ports"
)

const anthropicMaxTokens = 4096

// AnthropicClient implements ports.TextGenerator on the official Anthropic
// SDK. The system prompt travels in the dedicated system field rather than as
// a message.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
	retry  retrier
}

var _ ports.TextGenerator = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client for the given model.
func NewAnthropicClient(apiKey, model string, logger *slog.Logger) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
		retry:  newRetrier(logger),
	}
}

// Generate sends one user message and returns the first text block.
func (c *AnthropicClient) Generate(ctx context.Context, system, user string, temperature float64) (string, error) {
	return c.retry.generate(ctx, func(ctx context.Context) (string, error) {
		msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       c.model,
			MaxTokens:   anthropicMaxTokens,
			Temperature: anthropic.Float(temperature),
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("create message: %w", err)
		}
		if len(msg.Content) == 0 {
			return "", fmt.Errorf("empty completion")
		}
		return strings.TrimSpace(msg.Content[0].Text), nil
	})
}
