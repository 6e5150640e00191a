package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// AnthropicClient calls the Anthropic Messages API. The output schema travels in
// the system prompt.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *logrus.Logger
}

// NewAnthropicClient creates an Anthropic client with SDK retries disabled.
func NewAnthropicClient(cfg domain.ModelConfig, logger *logrus.Logger) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Name,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Provider implements domain.ModelClient.
func (c *AnthropicClient) Provider() string {
	return ProviderAnthropic
}

// Generate implements domain.ModelClient.
func (c *AnthropicClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	logUnsupportedRetrieval(c.logger, ProviderAnthropic, req)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: instructionWithSchema(req)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	})
	if err != nil {
		c.logger.WithError(err).WithField("model", c.model).Error("Anthropic request failed")
		return nil, &domain.TransportError{Provider: ProviderAnthropic, Err: err}
	}

	usage := domain.TokenUsage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			c.logger.WithFields(logrus.Fields{
				"model":      c.model,
				"size":       len(block.Text),
				"tokens_in":  usage.InputTokens,
				"tokens_out": usage.OutputTokens,
			}).Debug("Anthropic response received")
			return &domain.ModelResponse{Text: block.Text, Usage: usage, Model: string(message.Model)}, nil
		}
	}
	return nil, &domain.TransportError{Provider: ProviderAnthropic, Err: errors.New("no text content in response")}
}
