package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/heme-genetics-advisor/internal/domain"
)

// GeminiClient calls the Gemini API with schema-constrained JSON output and,
// when requested, Google Search grounding.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	logger    *logrus.Logger
}

// NewGeminiClient creates a Gemini client. No network traffic happens here.
func NewGeminiClient(ctx context.Context, cfg domain.ModelConfig, logger *logrus.Logger) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:    client,
		model:     cfg.Name,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Provider implements domain.ModelClient.
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}

// Generate implements domain.ModelClient.
func (c *GeminiClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.UserMessage), geminiConfig(req, c.maxTokens))
	if err != nil {
		c.logger.WithError(err).WithField("model", c.model).Error("Gemini request failed")
		return nil, &domain.TransportError{Provider: ProviderGemini, Err: err}
	}

	out := geminiResponse(resp, c.model)
	c.logger.WithFields(logrus.Fields{
		"model":      out.Model,
		"size":       len(out.Text),
		"citations":  len(out.Citations),
		"tokens_in":  out.Usage.InputTokens,
		"tokens_out": out.Usage.OutputTokens,
	}).Debug("Gemini response received")
	return out, nil
}

func geminiConfig(req *domain.ModelRequest, maxTokens int) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instruction, genai.RoleUser),
		ResponseMIMEType:  req.ResponseMIMEType,
		ResponseSchema:    toGeminiSchema(req.Schema),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if req.EnableWebRetrieval {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func toGeminiSchema(s *domain.SchemaDescriptor) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case domain.SchemaObject:
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
		out.Required = append([]string(nil), s.Required...)
		out.PropertyOrdering = s.PropertyNames()
	case domain.SchemaArray:
		out.Type = genai.TypeArray
		out.Items = toGeminiSchema(s.Items)
	default:
		out.Type = genai.TypeString
	}
	return out
}

// geminiResponse reads the reply text and the grounding chunks' web locations.
func geminiResponse(resp *genai.GenerateContentResponse, model string) *domain.ModelResponse {
	out := &domain.ModelResponse{Text: resp.Text(), Model: model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.Usage = domain.TokenUsage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return out
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out.Citations = append(out.Citations, domain.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}
