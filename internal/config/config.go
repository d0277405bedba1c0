// config.go - Configuration management for the record library service
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"privlib/internal/status"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "PRIVLIB_"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Crypto     CryptoConfig     `yaml:"crypto"`
	Status     StatusConfig     `yaml:"status"`
	Store      StoreConfig      `yaml:"store"`
	Disclosure DisclosureConfig `yaml:"disclosure"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LedgerConfig locates the contract snapshot and tunes the simulated
// confirmation latency.
type LedgerConfig struct {
	SnapshotPath    string        `yaml:"snapshot_path"`
	ContractAddress string        `yaml:"contract_address"`
	ConfirmDelay    time.Duration `yaml:"confirm_delay"`
}

type CryptoConfig struct {
	KeyDir string `yaml:"key_dir"`
}

// StatusConfig holds the notification auto-dismiss durations.
type StatusConfig struct {
	SuccessDismiss time.Duration `yaml:"success_dismiss"`
	ErrorDismiss   time.Duration `yaml:"error_dismiss"`
	InfoDismiss    time.Duration `yaml:"info_dismiss"`
}

type StoreConfig struct {
	ReloadConcurrency int           `yaml:"reload_concurrency"`
	HandleCacheSize   int           `yaml:"handle_cache_size"`
	HandleCacheTTL    time.Duration `yaml:"handle_cache_ttl"`
}

// DisclosureConfig controls same-record disclosure coalescing. When
// SerializePerRecord is false, concurrent disclosures of one record each
// submit and the loser observes an already-verified rejection.
type DisclosureConfig struct {
	SerializePerRecord bool `yaml:"serialize_per_record"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	AuditFile string `yaml:"audit_file"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	d := status.DefaultDurations()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Ledger: LedgerConfig{
			SnapshotPath:    "data/library.json",
			ContractAddress: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			ConfirmDelay:    500 * time.Millisecond,
		},
		Crypto: CryptoConfig{KeyDir: "keys"},
		Status: StatusConfig{
			SuccessDismiss: d.Success,
			ErrorDismiss:   d.Error,
			InfoDismiss:    d.Info,
		},
		Store: StoreConfig{
			ReloadConcurrency: 8,
			HandleCacheSize:   1024,
			HandleCacheTTL:    10 * time.Minute,
		},
		Disclosure: DisclosureConfig{SerializePerRecord: true},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			AuditFile: "audit.log",
		},
		RateLimit: RateLimitConfig{RPS: 2, Burst: 5},
	}
}

// LoadConfig loads configuration from file or creates default. A .env file
// next to the working directory is loaded first; PRIVLIB_* variables then
// override the file values.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg *Config
	if _, err := os.Stat(configPath); err == nil {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg = DefaultConfig()
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else {
		cfg = DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	str("ADDR", &cfg.Server.Addr)
	str("SNAPSHOT_PATH", &cfg.Ledger.SnapshotPath)
	str("CONTRACT_ADDRESS", &cfg.Ledger.ContractAddress)
	str("KEY_DIR", &cfg.Crypto.KeyDir)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.File)
	str("AUDIT_FILE", &cfg.Logging.AuditFile)

	if err := dur("CONFIRM_DELAY", &cfg.Ledger.ConfirmDelay); err != nil {
		return err
	}
	if err := dur("HANDLE_CACHE_TTL", &cfg.Store.HandleCacheTTL); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvPrefix + "RELOAD_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRELOAD_CONCURRENCY: %w", EnvPrefix, err)
		}
		cfg.Store.ReloadConcurrency = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SERIALIZE_DISCLOSURE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sSERIALIZE_DISCLOSURE: %w", EnvPrefix, err)
		}
		cfg.Disclosure.SerializePerRecord = b
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Ledger.ContractAddress == "" {
		return fmt.Errorf("ledger.contract_address must be set")
	}
	if c.Ledger.ConfirmDelay < 0 {
		return fmt.Errorf("ledger.confirm_delay must not be negative")
	}
	if c.Status.SuccessDismiss <= 0 || c.Status.ErrorDismiss <= 0 || c.Status.InfoDismiss <= 0 {
		return fmt.Errorf("status dismiss durations must be positive")
	}
	if c.Store.ReloadConcurrency <= 0 {
		return fmt.Errorf("store.reload_concurrency must be positive")
	}
	if c.Store.HandleCacheSize <= 0 {
		return fmt.Errorf("store.handle_cache_size must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit rps and burst must be positive")
	}
	return nil
}

// StatusDurations converts the status section for the tracker.
func (c *Config) StatusDurations() status.Durations {
	return status.Durations{
		Success: c.Status.SuccessDismiss,
		Error:   c.Status.ErrorDismiss,
		Info:    c.Status.InfoDismiss,
	}
}
