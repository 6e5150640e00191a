package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// CLI provides command-line interface for setup operations.
type CLI struct {
	in  *bufio.Reader
	out io.Writer
}

// NewCLI creates a CLI reading answers from in and printing to out.
func NewCLI(in io.Reader, out io.Writer) *CLI {
	return &CLI{in: bufio.NewReader(in), out: out}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "register":
		return c.register(args[1:])
	case "status":
		return c.showStatus(args[1:])
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		c.showHelp()
		return fmt.Errorf("unknown setup command %q", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `Hematologic Genetics Advisor MCP setup

Usage:
  heme-mcp-server setup <command> [options]

Commands:
  register   Register the MCP server with the desktop client
  status     Show the current registration

Options:
  --config    desktop client config file (default: platform location)
  --binary    server binary (default: heme-mcp-server on PATH)
  --provider  model provider for the registered server (gemini, anthropic, openai)
  --yes       do not ask for confirmation
`)
}

func (c *CLI) register(args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "desktop client config file")
	fs.StringVar(&opts.BinaryPath, "binary", "", "server binary")
	fs.StringVar(&opts.Provider, "provider", "", "model provider")
	fs.BoolVar(&opts.AutoConfirm, "yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.BinaryPath == "" {
		if exe, err := os.Executable(); err == nil {
			opts.BinaryPath = exe
		}
	}

	path, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Config file:   %s\n", path)
	fmt.Fprintf(c.out, "Server binary: %s\n", opts.BinaryPath)

	if !opts.AutoConfirm {
		fmt.Fprint(c.out, "Proceed with registration? [Y/n]: ")
		response, _ := c.in.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Registration cancelled.")
			return nil
		}
	}

	opts.ConfigPath = path
	entry, err := Register(opts)
	if err != nil {
		return fmt.Errorf("failed to register server: %w", err)
	}

	fmt.Fprintf(c.out, "Registered %s (%d environment variables). Restart the desktop client to load it.\n", ServerName, len(entry.Env))
	if !hasAPIKey(entry.Env) {
		fmt.Fprintln(c.out, "Warning: no model API key was set in this shell; add one to the entry before use.")
	}
	return nil
}

func (c *CLI) showStatus(args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.SetOutput(c.out)
	configPath := fs.String("config", "", "desktop client config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	status, err := GetStatus(*configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Config path: %s\n", status.ConfigPath)
	if status.Registered {
		fmt.Fprintf(c.out, "Registered:  yes (%s)\n", status.Command)
	} else {
		fmt.Fprintln(c.out, "Registered:  no")
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}
