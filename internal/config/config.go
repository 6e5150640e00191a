package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/heme-genetics-advisor/internal/domain"
)

// EnvPrefix is prepended to every configuration key read from the environment,
// e.g. HEME_MODEL_PROVIDER for model.provider.
const EnvPrefix = "HEME"

// apiKeyFallbacks lists the provider-native variables consulted when
// model.api_key is unset.
var apiKeyFallbacks = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY", "API_KEY"},
	"openai":    {"OPENAI_API_KEY", "API_KEY"},
}

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager reading the given file
// instead of searching the default config paths.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// A .env file is optional; variables already set in the process win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/heme-genetics-advisor/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Model.Provider = strings.ToLower(strings.TrimSpace(config.Model.Provider))
	config.Report.Mode = strings.ToLower(strings.TrimSpace(config.Report.Mode))
	if config.Model.APIKey == "" {
		config.Model.APIKey = lookupAPIKey(config.Model.Provider)
	}

	m.v = v
	m.config = config
	return nil
}

func lookupAPIKey(provider string) string {
	for _, name := range apiKeyFallbacks[provider] {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.tls_enabled", false)
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")
	v.SetDefault("server.metrics_enabled", true)

	// Model defaults
	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.web_retrieval", true)
	v.SetDefault("model.breaker.enabled", true)
	v.SetDefault("model.breaker.max_requests", 1)
	v.SetDefault("model.breaker.interval", "0s")
	v.SetDefault("model.breaker.timeout", "60s")
	v.SetDefault("model.breaker.min_requests", 3)
	v.SetDefault("model.breaker.failure_ratio", 0.6)

	// Report defaults
	v.SetDefault("report.mode", string(domain.ReportModeSingle))
	v.SetDefault("report.strict_schema", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.filename", "")

	// MCP defaults
	v.SetDefault("mcp.server_name", "heme-genetics-advisor")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.transport_type", "stdio")
	v.SetDefault("mcp.http_host", "0.0.0.0")
	v.SetDefault("mcp.http_port", 8081)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns model provider configuration
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// GetReportConfig returns report configuration
func (m *Manager) GetReportConfig() *domain.ReportConfig {
	return &m.config.Report
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled && (config.Server.CertFile == "" || config.Server.KeyFile == "") {
		return fmt.Errorf("TLS requires both cert_file and key_file")
	}

	if _, ok := apiKeyFallbacks[config.Model.Provider]; !ok {
		return fmt.Errorf("invalid model provider: %s", config.Model.Provider)
	}
	if config.Model.APIKey == "" {
		return fmt.Errorf("model API key is required (set %s_MODEL_API_KEY or %s)",
			EnvPrefix, strings.Join(apiKeyFallbacks[config.Model.Provider], ", "))
	}
	if config.Model.MaxTokens <= 0 {
		return fmt.Errorf("invalid model max_tokens: %d", config.Model.MaxTokens)
	}
	if ratio := config.Model.Breaker.FailureRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("invalid breaker failure_ratio: %v", ratio)
	}

	if !domain.ReportMode(config.Report.Mode).IsValid() {
		return fmt.Errorf("invalid report mode: %s", config.Report.Mode)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if config.Logging.Output == "file" && config.Logging.Filename == "" {
		return fmt.Errorf("logging output 'file' requires a filename")
	}

	switch config.MCP.TransportType {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid MCP transport: %s", config.MCP.TransportType)
	}
	if config.MCP.TransportType == "http" && (config.MCP.HTTPPort <= 0 || config.MCP.HTTPPort > 65535) {
		return fmt.Errorf("invalid MCP HTTP port: %d", config.MCP.HTTPPort)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
