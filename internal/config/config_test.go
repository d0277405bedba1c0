package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join("conf", "privlib.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigPartialFile(t *testing.T) {
	t.Chdir(t.TempDir())
	raw := []byte("ledger:\n  confirm_delay: 50ms\ndisclosure:\n  serialize_per_record: false\n")
	require.NoError(t, os.WriteFile("privlib.yaml", raw, 0o644))

	cfg, err := LoadConfig("privlib.yaml")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.ConfirmDelay)
	assert.False(t, cfg.Disclosure.SerializePerRecord)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr, "unset fields keep defaults")
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRIVLIB_ADDR", "127.0.0.1:9000")
	t.Setenv("PRIVLIB_CONFIRM_DELAY", "1s")
	t.Setenv("PRIVLIB_RELOAD_CONCURRENCY", "2")
	t.Setenv("PRIVLIB_SERIALIZE_DISCLOSURE", "false")

	cfg, err := LoadConfig("privlib.yaml")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Ledger.ConfirmDelay)
	assert.Equal(t, 2, cfg.Store.ReloadConcurrency)
	assert.False(t, cfg.Disclosure.SerializePerRecord)
}

func TestDotEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("PRIVLIB_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PRIVLIB_LOG_LEVEL") })

	cfg, err := LoadConfig("privlib.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestInvalidEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRIVLIB_CONFIRM_DELAY", "soon")

	_, err := LoadConfig("privlib.yaml")
	assert.ErrorContains(t, err, "PRIVLIB_CONFIRM_DELAY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"no contract", func(c *Config) { c.Ledger.ContractAddress = "" }},
		{"negative delay", func(c *Config) { c.Ledger.ConfirmDelay = -time.Second }},
		{"zero dismiss", func(c *Config) { c.Status.ErrorDismiss = 0 }},
		{"zero concurrency", func(c *Config) { c.Store.ReloadConcurrency = 0 }},
		{"zero cache", func(c *Config) { c.Store.HandleCacheSize = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestStatusDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Status.ErrorDismiss = 5 * time.Second
	d := cfg.StatusDurations()
	assert.Equal(t, 5*time.Second, d.Error)
	assert.Equal(t, cfg.Status.SuccessDismiss, d.Success)
}
