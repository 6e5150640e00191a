package domain

import (
	"context"
)

// ModelClient performs one request/response round trip against a generative model.
type ModelClient interface {
	Generate(ctx context.Context, req *ModelRequest) (*ModelResponse, error)
	Provider() string
}

// Interpreter turns a disease category and free-text findings into a report.
type Interpreter interface {
	Interpret(ctx context.Context, disease DiseaseCategory, findings string) (*QueryResult, error)
	InterpretDual(ctx context.Context, disease DiseaseCategory, findings string) (*DualQueryResult, error)
	Mode() ReportMode
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetModelConfig() *ModelConfig
	GetReportConfig() *ReportConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
