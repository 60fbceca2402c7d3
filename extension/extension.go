// Package extension provides the Forge extension adapter for the escrow
// engine.
//
// It implements the forge.Extension interface to integrate escrow into a
// Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions or
// via YAML configuration files under "extensions.escrow" or "escrow" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "escrow"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Arbitrated token escrow for invoices"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the escrow engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *escrow.Escrow
	store      store.Store
	groveDB    *grove.DB
	escrowOpts []escrow.Option
}

// New creates a new escrow Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Escrow instance.
// This is nil until Register is called.
func (e *Extension) Engine() *escrow.Escrow { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the escrow engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.initStore(); err != nil {
		return err
	}

	e.engine = escrow.New(e.store, e.buildEscrowOpts()...)

	return vessel.Provide(fapp.Container(), func() (*escrow.Escrow, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("escrow: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("escrow: store not initialized")
	}
	return e.store.Ping(ctx)
}

// initStore resolves the store: an explicit store wins over a grove
// database, and the memory store is the fallback.
func (e *Extension) initStore() error {
	if e.store != nil {
		return nil
	}
	if e.groveDB != nil {
		s, err := storeForDB(e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
		return nil
	}
	e.store = memory.New()
	return nil
}

// buildEscrowOpts constructs escrow.Option values from the resolved config.
// Pass-through options are applied last so they can override config.
func (e *Extension) buildEscrowOpts() []escrow.Option {
	opts := make([]escrow.Option, 0, len(e.escrowOpts)+4)

	if e.config.DisableMigrate {
		opts = append(opts, escrow.WithoutMigrate())
	}
	if e.config.AllowSelfArbitration {
		opts = append(opts, escrow.WithSelfArbitration(true))
	}
	if e.config.EscrowAccountPrefix != "" {
		opts = append(opts, escrow.WithEscrowAccountPrefix(e.config.EscrowAccountPrefix))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, escrow.WithPluginTimeout(e.config.PluginTimeout))
	}

	return append(opts, e.escrowOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("escrow: configuration is required but not found in config files; " +
				"ensure 'extensions.escrow' or 'escrow' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("escrow: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("allow_self_arbitration", e.config.AllowSelfArbitration),
		forge.F("escrow_account_prefix", e.config.EscrowAccountPrefix),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.escrow", "escrow"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("escrow: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("escrow: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EscrowAccountPrefix == "" {
		cfg.EscrowAccountPrefix = defaults.EscrowAccountPrefix
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and
// programmatic bool flags override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.AllowSelfArbitration {
		yamlConfig.AllowSelfArbitration = true
	}
	if yamlConfig.EscrowAccountPrefix == "" {
		yamlConfig.EscrowAccountPrefix = programmaticConfig.EscrowAccountPrefix
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	return mergeWithDefaults(yamlConfig)
}
