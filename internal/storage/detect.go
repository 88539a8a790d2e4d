package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend string // one of Backends(); empty means auto
	DataDir string // empty means DefaultDataDir()
	Logger  zerolog.Logger
	Quiet   bool // suppress the one-time fallback warning
}

const warningMarker = ".file-store-warning-shown"

// Open creates a Store for the requested backend.
// "auto" tries the OS keyring first and falls back to the file store when the
// keyring is unavailable or the environment (WSL, headless) can't use it.
func Open(ctx context.Context, opts Options) (Store, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	log := opts.Logger.With().Str("component", "storage").Logger()

	backend := opts.Backend
	if backend == "" {
		backend = BackendAuto
	}
	log.Debug().Str("backend", backend).Str("data_dir", dataDir).Msg("opening store")

	switch backend {
	case BackendFile:
		return NewFileStore(dataDir)
	case BackendKeyring:
		return NewKeyringStore(dataDir)
	case BackendSQLite:
		return NewSQLiteStore(ctx, dataDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendAuto:
		return openAuto(opts, dataDir, log)
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownBackend, backend, strings.Join(Backends(), ", "))
	}
}

func openAuto(opts Options, dataDir string, log zerolog.Logger) (Store, error) {
	// WSL and headless environments can't use keyring reliably
	if IsWSL() || IsHeadless() {
		warnOnce(opts, dataDir, log, "detected WSL/headless environment, using file storage")
		return NewFileStore(dataDir)
	}

	store, err := NewKeyringStore(dataDir)
	if err != nil {
		warnOnce(opts, dataDir, log, fmt.Sprintf("keyring unavailable (%v), falling back to file storage", err))
		return NewFileStore(dataDir)
	}

	return store, nil
}

// warnOnce logs a fallback warning the first time it happens for a data
// directory. A marker file records that it was shown.
func warnOnce(opts Options, dataDir string, log zerolog.Logger, msg string) {
	marker := filepath.Join(dataDir, warningMarker)
	if opts.Quiet || fileExists(marker) {
		log.Debug().Msg(msg)
		return
	}

	log.Warn().Msg(msg)
	if err := os.MkdirAll(dataDir, 0700); err == nil {
		_ = os.WriteFile(marker, []byte("1"), 0600)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsWSL returns true if running under Windows Subsystem for Linux.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true if running in a headless environment (no display server).
// Only applicable on Linux; macOS and Windows are assumed to have GUI.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	// Check for X11 or Wayland display
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
