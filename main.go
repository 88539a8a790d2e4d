package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/pinechat/internal/cli"
	"github.com/semmy-space/pinechat/internal/config"
	"github.com/semmy-space/pinechat/internal/output"
	"github.com/semmy-space/pinechat/internal/storage"
)

var (
	version = "dev"
)

func main() {
	// A missing .env is fine; values already in the environment win
	_ = godotenv.Load()

	cliInstance := cli.New()
	parser := kong.Must(cliInstance,
		kong.Name("pinechat"),
		kong.Description("Encrypted credential store for the RAG assistant"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	// Handles shell completion requests and exits when one is active
	kongplete.Complete(parser,
		kongplete.WithPredictor("store", complete.PredictSet(storage.Backends()...)),
		kongplete.WithPredictor("config-key", complete.PredictSet(config.Keys()...)),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	// Run command with bound dependencies
	err = ctx.Run()
	if cerr := cliInstance.Close(); cerr != nil && err == nil {
		err = output.Wrap(output.ExitStorage, "Failed to close store", cerr)
	}
	if err != nil {
		// Handle error with proper exit code
		var cliErr *output.CLIError
		if errors.As(err, &cliErr) {
			formatter := output.New("plain")
			formatter.PrintError(err)
			if cliErr.Hint != "" {
				formatter.PrintHint(cliErr.Hint)
			}
			os.Exit(cliErr.ExitCode)
		}
		// Unknown error
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(output.ExitGeneral)
	}
}
