package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/prompt"
)

// InterpretationPrompt renders the request the interpreter would send, so a
// client can run it against its own model.
const InterpretationPrompt = "interpretation_request"

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        InterpretationPrompt,
		Description: "Grounded interpretation prompt for a disease category and findings",
		Arguments: []*mcp.PromptArgument{
			{Name: "disease", Description: "ALL, AML, APL, CML, MDS or the Chinese label", Required: true},
			{Name: "findings", Description: "cytogenetic and molecular findings", Required: true},
			{Name: "mode", Description: "single or dual"},
		},
	}, s.handleInterpretationPrompt)
}

func (s *Server) handleInterpretationPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments

	disease, ok := domain.ParseDiseaseCategory(args["disease"])
	if !ok {
		return nil, fmt.Errorf("unrecognized disease category %q", args["disease"])
	}
	findings := args["findings"]
	if strings.TrimSpace(findings) == "" {
		return nil, domain.ErrEmptyInput
	}

	mode := s.interpreter.Mode()
	if args["mode"] != "" {
		mode = domain.ReportMode(strings.ToLower(args["mode"]))
		if !mode.IsValid() {
			return nil, fmt.Errorf("mode must be 'single' or 'dual', got %q", args["mode"])
		}
	}

	rendered := prompt.Build(disease, findings)
	if mode == domain.ReportModeDual {
		rendered = prompt.BuildDual(disease, findings)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Interpretation of %s findings", disease.Label()),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: rendered.Instruction + "\n\n" + rendered.UserMessage}},
		},
	}, nil
}
