package cli

import (
	"errors"

	"github.com/semmy-space/pinechat/internal/output"
	"github.com/semmy-space/pinechat/internal/settings"
	"github.com/semmy-space/pinechat/internal/vault"
)

// commandError maps library errors to CLIErrors with matching exit codes.
// CLIErrors pass through untouched.
func commandError(msg string, err error) error {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, settings.ErrInvalid):
		return output.Wrap(output.ExitUsage, msg, err).
			WithHint("Pass the missing values with --api-key, --host-url and --assistant-id")
	case errors.Is(err, vault.ErrStorage):
		return output.Wrap(output.ExitStorage, msg, err).
			WithHint("Check that the data directory is writable or pick another backend with --store")
	default:
		return output.Wrap(output.ExitGeneral, msg, err)
	}
}
