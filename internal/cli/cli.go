package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/pinechat/internal/config"
	"github.com/semmy-space/pinechat/internal/logging"
	"github.com/semmy-space/pinechat/internal/output"
)

// FormatterProvider wraps the formatter interface for Kong binding.
// Out and Err are the raw streams for messages that bypass the formatter.
type FormatterProvider struct {
	Formatter output.Formatter
	Out       io.Writer
	Err       io.Writer
}

// CLI is the root command structure
type CLI struct {
	Globals

	Creds              CredsCmd                     `cmd:"" help:"Manage the encrypted assistant credentials"`
	Open               OpenCmd                      `cmd:"" help:"Open the configured assistant host in the browser"`
	Config             ConfigCmd                    `cmd:"" help:"Configuration commands"`
	Version            VersionCmd                   `cmd:"" help:"Show version information"`
	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	deps   *Deps
}

// New returns a CLI wired to the process standard streams
func New() *CLI {
	return &CLI{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// AfterApply hook runs once flags are applied, before command execution
// It loads config, creates formatter and logger, and binds dependencies
func (c *CLI) AfterApply(ctx *kong.Context) error {
	if c.stdin == nil {
		c.stdin = os.Stdin
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}

	// Load config from --config or the XDG path (returns defaults if missing)
	path := c.ConfigFile
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return output.Wrap(output.ExitConfigError, "Failed to load config", err).
			WithHint(fmt.Sprintf("Check %s or remove it to start over", path))
	}

	formatter := &FormatterProvider{
		Formatter: output.NewWithWriters(c.ResolvedOutput(cfg.DefaultOutput, c.stdout), c.stdout, c.stderr),
		Out:       c.stdout,
		Err:       c.stderr,
	}

	level := cfg.LogLevel
	if c.Verbose {
		level = "debug"
	}
	log := logging.New(c.stderr, level, isTerminal(c.stderr))

	c.deps = newDeps(&c.Globals, cfg, log, c.stdin)

	// Bind dependencies to kong context
	ctx.Bind(cfg)
	ctx.Bind(formatter)
	ctx.Bind(&c.Globals)
	ctx.Bind(c.deps)

	return nil
}

// Close releases the store opened by the executed command, if any
func (c *CLI) Close() error {
	if c.deps == nil {
		return nil
	}
	return c.deps.Close()
}

// CredsCmd holds credential subcommands
type CredsCmd struct {
	Save     CredsSaveCmd     `cmd:"" help:"Validate and save assistant credentials"`
	Show     CredsShowCmd     `cmd:"" help:"Show the saved credentials"`
	Status   CredsStatusCmd   `cmd:"" help:"Report whether credentials are stored and readable"`
	Clear    CredsClearCmd    `cmd:"" help:"Delete the stored credentials and encryption key"`
	DarkMode CredsDarkModeCmd `cmd:"dark-mode" help:"Set the dark mode preference"`
	Migrate  CredsMigrateCmd  `cmd:"" help:"Move legacy plaintext settings into the encrypted store"`
}

// ConfigCmd holds configuration subcommands
type ConfigCmd struct {
	Get   ConfigGetCmd        `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd        `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd      `cmd:"" help:"Remove a configuration value"`
	List  ConfigListConfigCmd `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd       `cmd:"" help:"Show config file path"`
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context, fp *FormatterProvider) error {
	version := ctx.Model.Vars()["version"]
	fmt.Fprintf(fp.Out, "pinechat version %s\n", version)
	return nil
}
