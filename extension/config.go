package extension

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable ConfigFromEnv reads.
const EnvPrefix = "ESCROW_"

// Config holds the escrow extension configuration.
// Fields can be set programmatically via Option functions, loaded from the
// Forge config manager (under "extensions.escrow" or "escrow" keys), read
// from a standalone YAML file or from ESCROW_* environment variables.
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate" env:"DISABLE_MIGRATE"`

	// AllowSelfArbitration lets the arbiter also be the payer or payee.
	AllowSelfArbitration bool `json:"allow_self_arbitration" mapstructure:"allow_self_arbitration" yaml:"allow_self_arbitration" env:"ALLOW_SELF_ARBITRATION"`

	// EscrowAccountPrefix names the custody account for each invoice as
	// prefix + invoice id (default: "escrow:").
	EscrowAccountPrefix string `json:"escrow_account_prefix" mapstructure:"escrow_account_prefix" yaml:"escrow_account_prefix" env:"ACCOUNT_PREFIX"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout" env:"PLUGIN_TIMEOUT"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-" env:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EscrowAccountPrefix: "escrow:",
		PluginTimeout:       5 * time.Second,
	}
}

// ConfigFromEnv reads ESCROW_* variables. Unset variables keep their zero
// value so the result can be merged like any programmatic config.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("escrow: parse environment: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a Config from a YAML file. The settings may sit at the
// top level or under an "escrow" or "extensions.escrow" key.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Config{}, fmt.Errorf("escrow: read config: %w", err)
	}

	var doc struct {
		Escrow     *Config `yaml:"escrow"`
		Extensions struct {
			Escrow *Config `yaml:"escrow"`
		} `yaml:"extensions"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("escrow: parse config %s: %w", path, err)
	}
	switch {
	case doc.Extensions.Escrow != nil:
		return *doc.Extensions.Escrow, nil
	case doc.Escrow != nil:
		return *doc.Escrow, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("escrow: parse config %s: %w", path, err)
	}
	return cfg, nil
}
