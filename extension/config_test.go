package extension

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/store/memory"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escrow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"flat", "allow_self_arbitration: true\nescrow_account_prefix: vault/\nplugin_timeout: 2s\n"},
		{"escrow key", "escrow:\n  allow_self_arbitration: true\n  escrow_account_prefix: vault/\n  plugin_timeout: 2s\n"},
		{"extensions key", "extensions:\n  escrow:\n    allow_self_arbitration: true\n    escrow_account_prefix: vault/\n    plugin_timeout: 2s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFile(writeFile(t, tt.body))
			require.NoError(t, err)
			assert.True(t, cfg.AllowSelfArbitration)
			assert.Equal(t, "vault/", cfg.EscrowAccountPrefix)
			assert.Equal(t, 2*time.Second, cfg.PluginTimeout)
			assert.False(t, cfg.DisableMigrate)
		})
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeFile(t, "plugin_timeout: [not, a, duration]\n"))
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ESCROW_DISABLE_MIGRATE", "true")
	t.Setenv("ESCROW_ACCOUNT_PREFIX", "hold:")
	t.Setenv("ESCROW_PLUGIN_TIMEOUT", "750ms")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.DisableMigrate)
	assert.False(t, cfg.AllowSelfArbitration)
	assert.Equal(t, "hold:", cfg.EscrowAccountPrefix)
	assert.Equal(t, 750*time.Millisecond, cfg.PluginTimeout)
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("ESCROW_PLUGIN_TIMEOUT", "soon")
	_, err := ConfigFromEnv()
	assert.Error(t, err)
}

func TestMergeConfigurations(t *testing.T) {
	merged := mergeConfigurations(
		Config{PluginTimeout: time.Second},
		Config{DisableMigrate: true, EscrowAccountPrefix: "p:", PluginTimeout: time.Minute},
	)
	assert.True(t, merged.DisableMigrate)
	assert.Equal(t, "p:", merged.EscrowAccountPrefix)
	assert.Equal(t, time.Second, merged.PluginTimeout, "file value wins")

	defaults := mergeWithDefaults(Config{})
	assert.Equal(t, DefaultConfig(), defaults)
}

func TestBuildEscrowOpts(t *testing.T) {
	ext := New(
		WithEscrowAccountPrefix("vault/"),
		WithSelfArbitration(),
	)
	ext.config = mergeWithDefaults(ext.config)

	eng := escrow.New(memory.New(), ext.buildEscrowOpts()...)
	assert.Equal(t, "vault/7", eng.EscrowAccount(7))
}

func TestInitStoreFallsBackToMemory(t *testing.T) {
	ext := New()
	require.NoError(t, ext.initStore())
	_, ok := ext.store.(*memory.Store)
	assert.True(t, ok)

	explicit := memory.New()
	ext = New(WithStore(explicit))
	require.NoError(t, ext.initStore())
	assert.Same(t, explicit, ext.store)
}
