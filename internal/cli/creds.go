package cli

import (
	"context"
	"fmt"

	"github.com/semmy-space/pinechat/internal/output"
	"github.com/semmy-space/pinechat/internal/settings"
	"github.com/semmy-space/pinechat/internal/vault"
)

// credsView is the printable form of vault.Credentials
type credsView struct {
	APIKey      string `json:"apiKey"`
	HostURL     string `json:"hostUrl"`
	AssistantID string `json:"assistantId"`
	DarkMode    bool   `json:"darkMode"`
}

func newCredsView(c vault.Credentials, reveal bool) credsView {
	key := c.APIKey
	if !reveal {
		key = vault.MaskSecret(key)
	}
	return credsView{
		APIKey:      key,
		HostURL:     c.HostURL,
		AssistantID: c.AssistantID,
		DarkMode:    c.DarkMode,
	}
}

// CredsSaveCmd merges the given values onto the stored credentials
type CredsSaveCmd struct {
	APIKey      string `help:"Assistant API key (pcsk_...)" name:"api-key" env:"PINECHAT_API_KEY"`
	HostURL     string `help:"Assistant host URL" name:"host-url" env:"PINECHAT_HOST_URL"`
	AssistantID string `help:"Assistant id" name:"assistant-id" env:"PINECHAT_ASSISTANT_ID"`
	DarkMode    string `help:"Dark mode preference" name:"dark-mode" enum:"on,off," default:""`
}

// Run executes the save command
func (cmd *CredsSaveCmd) Run(fp *FormatterProvider, globals *Globals, deps *Deps) error {
	ctx := context.Background()

	svc, err := deps.Settings(ctx)
	if err != nil {
		return err
	}

	patch := settings.Patch{}
	if cmd.APIKey != "" {
		patch.APIKey = &cmd.APIKey
	}
	if cmd.HostURL != "" {
		patch.HostURL = &cmd.HostURL
	}
	if cmd.AssistantID != "" {
		patch.AssistantID = &cmd.AssistantID
	}
	if cmd.DarkMode != "" {
		on := cmd.DarkMode == "on"
		patch.DarkMode = &on
	}

	// Ask for the key only when nothing else provides one
	if patch.APIKey == nil && !globals.NoInput {
		current, err := svc.Load(ctx)
		if err != nil {
			return commandError("Failed to load credentials", err)
		}
		if current.APIKey == "" {
			key, err := readSecret(deps.stdin, fp.Err, "API key: ")
			if err == nil && key != "" {
				patch.APIKey = &key
			}
		}
	}

	saved, err := svc.Update(ctx, patch)
	if err != nil {
		return commandError("Failed to save credentials", err)
	}

	fp.Formatter.PrintSuccess("Credentials saved")
	return fp.Formatter.Print(newCredsView(saved, false))
}

// CredsShowCmd prints the stored credentials
type CredsShowCmd struct {
	Reveal bool `help:"Print the API key unmasked"`
}

// Run executes the show command
func (cmd *CredsShowCmd) Run(fp *FormatterProvider, deps *Deps) error {
	ctx := context.Background()

	svc, err := deps.Settings(ctx)
	if err != nil {
		return err
	}

	creds, err := svc.Load(ctx)
	if err != nil {
		return commandError("Failed to load credentials", err)
	}

	if creds.IsZero() {
		fp.Formatter.PrintHint("No credentials saved. Run: pinechat creds save")
	}
	return fp.Formatter.Print(newCredsView(creds, cmd.Reveal))
}

// statusView is the printable form of vault.Status
type statusView struct {
	State       string `json:"state"`
	KeyPresent  bool   `json:"key_present"`
	BlobPresent bool   `json:"blob_present"`
	Detail      string `json:"detail,omitempty"`
}

// CredsStatusCmd reports the vault state without changing it
type CredsStatusCmd struct{}

// Run executes the status command
func (cmd *CredsStatusCmd) Run(fp *FormatterProvider, deps *Deps) error {
	ctx := context.Background()

	v, err := deps.Vault(ctx)
	if err != nil {
		return err
	}

	st, err := v.Inspect(ctx)
	if err != nil {
		return commandError("Failed to inspect credentials", err)
	}

	switch st.State {
	case vault.StateEmpty:
		fp.Formatter.PrintHint("Run: pinechat creds save")
	case vault.StateUnreadable:
		fp.Formatter.PrintHint("Stored credentials can't be decrypted. Run: pinechat creds clear, then save them again")
	}

	return fp.Formatter.Print(statusView{
		State:       st.State.String(),
		KeyPresent:  st.KeyPresent,
		BlobPresent: st.BlobPresent,
		Detail:      st.Detail,
	})
}

// CredsClearCmd deletes the key and the encrypted blob
type CredsClearCmd struct{}

// Run executes the clear command
func (cmd *CredsClearCmd) Run(fp *FormatterProvider, globals *Globals, deps *Deps) error {
	if !globals.Force {
		if globals.NoInput || !isTerminal(deps.stdin) {
			return output.NewCLIError(output.ExitUsage, "Clearing credentials requires confirmation").
				WithHint("Re-run with --force")
		}
		if !confirm(deps.stdin, fp.Err, "Delete the stored credentials and encryption key?") {
			return output.NewCLIError(output.ExitCancelled, "Cancelled")
		}
	}

	ctx := context.Background()

	v, err := deps.Vault(ctx)
	if err != nil {
		return err
	}

	if err := v.Clear(ctx); err != nil {
		return commandError("Failed to clear credentials", err)
	}

	fp.Formatter.PrintSuccess("Credentials removed")
	return nil
}

// CredsDarkModeCmd toggles the dark mode preference
type CredsDarkModeCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

// Run executes the dark-mode command
func (cmd *CredsDarkModeCmd) Run(fp *FormatterProvider, deps *Deps) error {
	ctx := context.Background()

	svc, err := deps.Settings(ctx)
	if err != nil {
		return err
	}

	if _, err := svc.SetDarkMode(ctx, cmd.State == "on"); err != nil {
		return commandError("Failed to save dark mode", err)
	}

	fp.Formatter.PrintSuccess(fmt.Sprintf("Dark mode %s", cmd.State))
	return nil
}

// CredsMigrateCmd imports legacy plaintext settings into the vault
type CredsMigrateCmd struct{}

// Run executes the migrate command
func (cmd *CredsMigrateCmd) Run(fp *FormatterProvider, deps *Deps) error {
	ctx := context.Background()

	svc, err := deps.Settings(ctx)
	if err != nil {
		return err
	}

	imported, err := svc.MigrateLegacy(ctx)
	if err != nil {
		return commandError("Failed to migrate legacy settings", err)
	}

	if imported {
		fp.Formatter.PrintSuccess("Legacy settings moved into the encrypted store")
	} else {
		fp.Formatter.PrintSuccess("Nothing to migrate")
	}
	return nil
}
