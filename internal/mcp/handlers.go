package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heme-genetics-advisor/internal/domain"
)

// InterpretFindingsParams defines parameters for interpret_findings tool
type InterpretFindingsParams struct {
	Disease  string `json:"disease" jsonschema:"disease category code (ALL, AML, APL, CML, MDS) or its Chinese label"`
	Findings string `json:"findings" jsonschema:"free-text cytogenetic and molecular findings"`
	Mode     string `json:"mode,omitempty" jsonschema:"report mode: single or dual; defaults to the server setting"`
}

// ListDiseasesParams defines parameters for list_diseases tool
type ListDiseasesParams struct{}

// DiseaseEntry is one item of the list_diseases result.
type DiseaseEntry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

// handleInterpretFindings handles the interpret_findings tool invocation
func (s *Server) handleInterpretFindings(ctx context.Context, req *mcp.CallToolRequest, params InterpretFindingsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "interpret_findings").Info("Tool invoked")

	if strings.TrimSpace(params.Findings) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("findings is required")), nil, nil
	}
	disease, ok := domain.ParseDiseaseCategory(params.Disease)
	if !ok {
		return s.createErrorResult("Invalid parameter", fmt.Errorf("unrecognized disease category %q", params.Disease)), nil, nil
	}

	mode := s.interpreter.Mode()
	if params.Mode != "" {
		mode = domain.ReportMode(strings.ToLower(params.Mode))
		if !mode.IsValid() {
			return s.createErrorResult("Invalid parameter", fmt.Errorf("mode must be 'single' or 'dual', got %q", params.Mode)), nil, nil
		}
	}

	var (
		result  any
		summary string
		err     error
	)
	if mode == domain.ReportModeDual {
		var dual *domain.DualQueryResult
		dual, err = s.interpreter.InterpretDual(ctx, disease, params.Findings)
		if err == nil {
			result = dual
			summary = fmt.Sprintf("%s: SCCCG %s / global %s (%s)", disease.Label(),
				dual.SCCCGReport.Report.PrognosisLevel, dual.GlobalReport.Report.PrognosisLevel, dual.Source)
		}
	} else {
		var single *domain.QueryResult
		single, err = s.interpreter.Interpret(ctx, disease, params.Findings)
		if err == nil {
			result = single
			summary = fmt.Sprintf("%s: %s (%s)", disease.Label(), single.StructuredData.PrognosisLevel, single.Source)
		}
	}
	if err != nil {
		// Only the user-facing message leaves the process.
		return s.createErrorResult("Interpretation failed", errors.New(domain.UserMessage(err))), nil, nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(payload)},
		},
	}, result, nil
}

// handleListDiseases handles the list_diseases tool invocation
func (s *Server) handleListDiseases(ctx context.Context, req *mcp.CallToolRequest, params ListDiseasesParams) (*mcp.CallToolResult, any, error) {
	categories := domain.AllDiseaseCategories()
	entries := make([]DiseaseEntry, 0, len(categories))
	lines := make([]string, 0, len(categories))
	for _, d := range categories {
		entries = append(entries, DiseaseEntry{Code: string(d), Label: d.Label(), Name: d.Name()})
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", d, d.Label(), d.Name()))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(lines, "\n")},
		},
	}, map[string]any{"diseases": entries}, nil
}

func (s *Server) handleReadReference(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: ReferenceURI, MIMEType: "text/plain", Text: domain.ReferenceDocument},
		},
	}, nil
}

// createErrorResult creates an error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := message
	if err != nil {
		errorText = fmt.Sprintf("%s: %v", message, err)
	}
	s.logger.WithError(err).Warn(message)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
