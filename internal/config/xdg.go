package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigDir returns the XDG-compliant config directory for pinechat
// Typically ~/.config/pinechat/ on Linux
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "pinechat")
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}

// DataDir returns the XDG-compliant data directory for pinechat
// Typically ~/.local/share/pinechat/ on Linux (store file, sqlite db, keyring fallback)
func DataDir() string {
	return filepath.Join(xdg.DataHome, "pinechat")
}
