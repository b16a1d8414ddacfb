package cli

import (
	"fmt"

	"browserify/config"
	"browserify/internal/adapter/browserify"
	"browserify/internal/adapter/esbuild"
	"browserify/internal/adapter/fs"
	"browserify/internal/adapter/memstore"
	"browserify/internal/adapter/process"
	"browserify/internal/adapter/store"
	"browserify/internal/port"
	"browserify/internal/usecase"
)

func newEngine(cfg *config.Config, root string) (port.Engine, error) {
	switch cfg.Bundler.Engine {
	case "", "browserify":
		runner := process.NewExecRunner(cfg.Bundler.Timeout, logger)
		return browserify.NewEngine(root, cfg.Bundler, runner, fs.OS{}), nil
	case "esbuild":
		return esbuild.NewEngine(), nil
	default:
		return nil, fmt.Errorf("unsupported bundler engine: %s", cfg.Bundler.Engine)
	}
}

func newProcessor(cfg *config.Config, root string) (*usecase.Processor, error) {
	engine, err := newEngine(cfg, root)
	if err != nil {
		return nil, err
	}
	return usecase.NewProcessor(engine, fs.OS{}, root, logger), nil
}

// openStore opens the dependency store for root. With the cache disabled
// the store only lives for the current command.
func openStore(cfg *config.Config, root string) (port.DependencyStore, error) {
	if !cfg.Cache.Enabled {
		return memstore.NewMemoryStore(), nil
	}

	if err := config.EnsureStateDir(root); err != nil {
		return nil, fmt.Errorf("failed to create .browserify directory: %w", err)
	}

	st, err := store.NewBoltStore(config.DepsDBPath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open dependency store: %w", err)
	}

	r, err := st.Reconcile(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to reconcile dependency store: %w", err)
	}
	if r.Cleared || r.Reindexed {
		logger.Info().Str("reason", r.Reason).Bool("cleared", r.Cleared).Msg("dependency store reconciled")
	}

	return st, nil
}
