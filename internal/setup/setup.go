// Package setup registers the MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ServerName is the key the server is registered under.
const ServerName = "heme-genetics-advisor"

// binaryName is the MCP server executable looked up when no path is given.
const binaryName = "heme-mcp-server"

// forwardedEnv lists the environment variables copied into the client entry
// when they are set in the setup process.
var forwardedEnv = []string{
	"HEME_MODEL_PROVIDER",
	"HEME_MODEL_NAME",
	"HEME_REPORT_MODE",
	"GEMINI_API_KEY",
	"GOOGLE_API_KEY",
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
}

// DesktopConfig is the client configuration file structure.
type DesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	// Other top-level keys are preserved across rewrites.
	Extra map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls one registration.
type Options struct {
	ConfigPath  string // defaults to DesktopConfigPath()
	BinaryPath  string // defaults to the binary found on PATH
	Provider    string // HEME_MODEL_PROVIDER for the registered server
	AutoConfirm bool
}

// Status describes what is currently registered.
type Status struct {
	ConfigPath string
	Registered bool
	Command    string
	Env        map[string]string
	Issues     []string
}

// DesktopConfigPath returns the desktop client's config file for this OS.
func DesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadDesktopConfig reads path. A missing file yields an empty config.
func LoadDesktopConfig(path string) (*DesktopConfig, error) {
	config := &DesktopConfig{MCPServers: map[string]MCPServerConfig{}, Extra: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.Extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.Extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(config.Extra, "mcpServers")
	}
	if config.MCPServers == nil {
		config.MCPServers = map[string]MCPServerConfig{}
	}
	return config, nil
}

// SaveDesktopConfig writes config to path, creating the directory if needed.
func SaveDesktopConfig(path string, config *DesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(config.Extra)+1)
	for k, v := range config.Extra {
		out[k] = v
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry in the desktop client config and
// returns the entry written.
func Register(opts Options) (*MCPServerConfig, error) {
	path, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	config, err := LoadDesktopConfig(path)
	if err != nil {
		return nil, err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = exec.LookPath(binaryName); err != nil {
			return nil, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := MCPServerConfig{
		Command: binaryPath,
		Env:     map[string]string{},
	}
	for _, key := range forwardedEnv {
		if value := os.Getenv(key); value != "" {
			entry.Env[key] = value
		}
	}
	if opts.Provider != "" {
		entry.Env["HEME_MODEL_PROVIDER"] = strings.ToLower(opts.Provider)
	}

	config.MCPServers[ServerName] = entry
	if err := SaveDesktopConfig(path, config); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetStatus inspects the desktop client config at configPath.
func GetStatus(configPath string) (*Status, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	status := &Status{ConfigPath: path}

	config, err := LoadDesktopConfig(path)
	if err != nil {
		return nil, err
	}
	entry, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "server is not registered")
		return status, nil
	}

	status.Registered = true
	status.Command = entry.Command
	status.Env = entry.Env

	if _, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	}
	if !hasAPIKey(entry.Env) {
		status.Issues = append(status.Issues, "no model API key in the registered environment")
	}
	return status, nil
}

func hasAPIKey(env map[string]string) bool {
	for key, value := range env {
		if strings.HasSuffix(key, "_API_KEY") && value != "" {
			return true
		}
	}
	return false
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DesktopConfigPath()
}
