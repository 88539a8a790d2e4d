package cli

import (
	"context"
	"fmt"

	"github.com/semmy-space/pinechat/internal/output"
	"github.com/semmy-space/pinechat/pkg/browser"
)

// openBrowser is replaced in tests
var openBrowser = browser.Open

// OpenCmd opens the saved host URL
type OpenCmd struct{}

// Run executes the open command
func (cmd *OpenCmd) Run(fp *FormatterProvider, deps *Deps) error {
	ctx := context.Background()

	svc, err := deps.Settings(ctx)
	if err != nil {
		return err
	}

	creds, err := svc.Load(ctx)
	if err != nil {
		return commandError("Failed to load credentials", err)
	}

	if creds.HostURL == "" {
		return output.NewCLIError(output.ExitNotFound, "No assistant host URL saved").
			WithHint("Run: pinechat creds save --host-url URL")
	}

	if err := openBrowser(creds.HostURL); err != nil {
		return output.Wrap(output.ExitGeneral, "Failed to open browser", err).
			WithHint(fmt.Sprintf("Open %s manually", creds.HostURL))
	}

	log := deps.Logger()
	log.Debug().Str("url", creds.HostURL).Msg("opened browser")
	return nil
}
