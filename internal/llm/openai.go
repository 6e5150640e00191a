package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// OpenAIClient calls the chat completions API in JSON object mode.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *logrus.Logger
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(cfg domain.ModelConfig, logger *logrus.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Name,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Provider implements domain.ModelClient.
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

// Generate implements domain.ModelClient.
func (c *OpenAIClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	logUnsupportedRetrieval(c.logger, ProviderOpenAI, req)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructionWithSchema(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
		MaxTokens: c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.WithError(err).WithField("model", c.model).Error("OpenAI request failed")
		return nil, &domain.TransportError{Provider: ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.TransportError{Provider: ProviderOpenAI, Err: errors.New("no choices in response")}
	}

	out := &domain.ModelResponse{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: domain.TokenUsage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}
	if out.Model == "" {
		out.Model = c.model
	}
	c.logger.WithFields(logrus.Fields{
		"model":      out.Model,
		"size":       len(out.Text),
		"tokens_in":  out.Usage.InputTokens,
		"tokens_out": out.Usage.OutputTokens,
	}).Debug("OpenAI response received")
	return out, nil
}
