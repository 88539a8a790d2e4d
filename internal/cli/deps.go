package cli

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/semmy-space/pinechat/internal/config"
	"github.com/semmy-space/pinechat/internal/output"
	"github.com/semmy-space/pinechat/internal/settings"
	"github.com/semmy-space/pinechat/internal/storage"
	"github.com/semmy-space/pinechat/internal/vault"
)

// Deps lazily opens the store and builds the vault and settings service.
// Commands that don't touch credentials never open a store.
type Deps struct {
	globals *Globals
	cfg     *config.Config
	log     zerolog.Logger
	stdin   io.Reader

	once     sync.Once
	store    storage.Store
	settings *settings.Service
	err      error
}

func newDeps(g *Globals, cfg *config.Config, log zerolog.Logger, stdin io.Reader) *Deps {
	return &Deps{globals: g, cfg: cfg, log: log, stdin: stdin}
}

// Settings returns the settings service, opening the store on first call.
func (d *Deps) Settings(ctx context.Context) (*settings.Service, error) {
	d.once.Do(func() {
		opts := d.storeOptions()
		store, err := storage.Open(ctx, opts)
		if err != nil {
			d.err = output.Wrap(output.ExitStorage, "Failed to open credential store", err).
				WithHint("Try another backend with --store file")
			return
		}
		d.store = store

		v := vault.New(store, vault.WithLogger(d.log))
		d.settings = settings.NewService(v, store, d.log)
	})
	return d.settings, d.err
}

// Vault returns the vault behind the settings service.
func (d *Deps) Vault(ctx context.Context) (*vault.Vault, error) {
	svc, err := d.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Vault(), nil
}

// Logger returns the command logger.
func (d *Deps) Logger() zerolog.Logger {
	return d.log
}

// Close closes the store if it was opened.
func (d *Deps) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

// storeOptions resolves backend and data dir: flag > config > defaults
func (d *Deps) storeOptions() storage.Options {
	backend := d.globals.Store
	if backend == "" {
		backend = d.cfg.Store
	}
	if backend == "" {
		backend = storage.BackendAuto
	}

	dataDir := d.globals.DataDir
	if dataDir == "" {
		dataDir = d.cfg.DataDir
	}
	if dataDir == "" {
		dataDir = config.DataDir()
	}

	return storage.Options{
		Backend: backend,
		DataDir: dataDir,
		Logger:  d.log,
		Quiet:   d.globals.NoInput,
	}
}
