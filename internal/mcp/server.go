package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// Transport types accepted in mcp.transport_type.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ReferenceURI addresses the reference document resource.
const ReferenceURI = "heme://reference/scccg"

// Server exposes the interpreter as MCP tools.
type Server struct {
	config      domain.MCPConfig
	interpreter domain.Interpreter
	mcpServer   *mcp.Server
	logger      *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg domain.MCPConfig, interpreter domain.Interpreter, logger *logrus.Logger) (*Server, error) {
	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	if serverInfo.Name == "" {
		serverInfo.Name = "heme-genetics-advisor"
	}
	if serverInfo.Version == "" {
		serverInfo.Version = "1.0.0"
	}

	server := &Server{
		config:      cfg,
		interpreter: interpreter,
		mcpServer:   mcp.NewServer(serverInfo, nil),
		logger:      logger,
	}

	// Register capabilities
	if err := server.registerCapabilities(); err != nil {
		return nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	return server, nil
}

// Start runs the server on the configured transport until ctx is cancelled or
// the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("transport_type", s.config.TransportType).Info("Starting MCP server")

	switch s.config.TransportType {
	case TransportHTTP:
		return s.serveHTTP(ctx)
	case TransportStdio, "":
		if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported MCP transport: %s", s.config.TransportType)
	}
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

func (s *Server) serveHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.HTTPHost, s.config.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.WithField("addr", addr).Info("MCP HTTP transport listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("MCP HTTP transport failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// registerCapabilities registers all MCP tools and resources
func (s *Server) registerCapabilities() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "interpret_findings",
		Description: "Interpret cytogenetic and molecular findings for a hematologic malignancy. " +
			"Returns a structured report with prognosis level, clinical significance, recommendations, " +
			"optional targeted therapy, provenance and cited web locations.",
	}, s.handleInterpretFindings)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_diseases",
		Description: "List the disease categories accepted by interpret_findings.",
	}, s.handleListDiseases)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         ReferenceURI,
		Name:        "scccg-reference",
		Description: "Reference document every interpretation is grounded on",
		MIMEType:    "text/plain",
	}, s.handleReadReference)

	s.registerPrompts()

	s.logger.WithField("tool_count", 2).Info("Successfully registered all MCP capabilities")
	return nil
}
