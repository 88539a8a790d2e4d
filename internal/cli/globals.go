package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Globals holds global flags available to all commands
type Globals struct {
	ConfigFile string `help:"Config file path" name:"config" type:"path" placeholder:"PATH" env:"PINECHAT_CONFIG"`
	Store      string `help:"Storage backend (auto, file, keyring, sqlite, memory)" default:"" enum:"auto,file,keyring,sqlite,memory," predictor:"store" env:"PINECHAT_STORE"`
	DataDir    string `help:"Directory for the store file, sqlite database and keyring fallback" type:"path" name:"data-dir" env:"PINECHAT_DATA_DIR"`
	Output     string `help:"Output format" default:"" enum:"json,plain,rich,auto," short:"o" env:"PINECHAT_OUTPUT"`
	Verbose    bool   `help:"Verbose output (debug logging)" short:"v" env:"PINECHAT_VERBOSE"`
	NoInput    bool   `help:"Disable interactive prompts (fail instead)" env:"PINECHAT_NO_INPUT"`
	Force      bool   `help:"Skip confirmation prompts for destructive operations" env:"PINECHAT_FORCE"`
}

// ResolvedOutput returns the effective output mode.
// Flag wins over configDefault; "auto" detects TTY: if stdout is TTY -> rich, else -> plain
func (g *Globals) ResolvedOutput(configDefault string, stdout io.Writer) string {
	mode := g.Output
	if mode == "" {
		mode = configDefault
	}
	if mode != "" && mode != "auto" {
		return mode
	}

	if isTerminal(stdout) {
		return "rich"
	}

	return "plain"
}

// isTerminal reports whether v is an *os.File attached to a terminal
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
