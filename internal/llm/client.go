// Package llm holds the model provider clients. Every client performs exactly one
// round trip per Generate call; none of them retries.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// Provider names accepted by NewClient.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultGeminiModel    = "gemini-3-pro-preview"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultMaxTokens      = 4096
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return defaultAnthropicModel
	case ProviderOpenAI:
		return defaultOpenAIModel
	default:
		return defaultGeminiModel
	}
}

// NewClient builds the configured provider client, wrapped in a circuit breaker
// when enabled.
func NewClient(ctx context.Context, cfg domain.ModelConfig, logger *logrus.Logger) (domain.ModelClient, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Name == "" {
		cfg.Name = DefaultModel(cfg.Provider)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	var client domain.ModelClient
	switch cfg.Provider {
	case ProviderGemini, "":
		gemini, err := NewGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		client = gemini
	case ProviderAnthropic:
		client = NewAnthropicClient(cfg, logger)
	case ProviderOpenAI:
		client = NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}

	logger.WithFields(logrus.Fields{
		"provider":      client.Provider(),
		"model":         cfg.Name,
		"web_retrieval": cfg.WebRetrieval,
		"breaker":       cfg.Breaker.Enabled,
	}).Info("Model client initialized")

	if cfg.Breaker.Enabled {
		return NewBreakerClient(client, cfg.Breaker, logger), nil
	}
	return client, nil
}

// instructionWithSchema appends the output schema to the instruction for
// providers that cannot take a response schema natively.
func instructionWithSchema(req *domain.ModelRequest) string {
	if req.Schema == nil {
		return req.Instruction
	}
	schema, err := json.MarshalIndent(req.Schema.JSONSchema(), "", "  ")
	if err != nil {
		return req.Instruction
	}
	return req.Instruction + "\n输出必须是符合以下 JSON Schema 的单个 JSON 对象：\n" + string(schema)
}

func logUnsupportedRetrieval(logger *logrus.Logger, provider string, req *domain.ModelRequest) {
	if req.EnableWebRetrieval {
		logger.WithField("provider", provider).Debug("Web retrieval not supported by provider, reply will carry no citations")
	}
}
