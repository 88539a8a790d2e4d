package cli

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/pinechat/internal/config"
)

func mustLoadConfig(t *testing.T, h *harness) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile(filepath.Join(h.dir, "config.json5"))
	require.NoError(t, err)
	return cfg
}

func zerologNop() zerolog.Logger {
	return zerolog.Nop()
}
