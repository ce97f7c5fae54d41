package cmd

import (
	"fmt"

	"github.com/docidx/docidx/internal/config"
	"github.com/docidx/docidx/internal/engine"
)

// openEngine loads the host configuration and opens the shared Engine
// every subcommand drives.
func openEngine() (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return engine.Open(*cfg)
}

// loadIndexingConfig loads the host's IndexingConfig alone, for
// subcommands that need a Work Context but have no other use for the
// rest of the configuration.
func loadIndexingConfig() (config.IndexingConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.IndexingConfig{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg.Indexing, nil
}
