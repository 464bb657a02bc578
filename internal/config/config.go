package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seatsync/seatsync/internal/crypto"
)

// Config is the parsed seatsync.jsonc plus environment overrides.
type Config struct {
	Server   ServerSection   `json:"server"`
	Upstream UpstreamSection `json:"upstream"`
	Cache    CacheSection    `json:"cache"`
	Backup   BackupSection   `json:"backup"`
	Audit    AuditSection    `json:"audit"`

	key *crypto.Key
}

// ServerSection contains HTTP listener configuration
type ServerSection struct {
	Address string `json:"address"`
}

// UpstreamSection points at the reservation platform API
type UpstreamSection struct {
	BaseURL string `json:"base_url"`
}

// CacheSection configures the encrypted token cache
type CacheSection struct {
	DataDir string `json:"data_dir"`
	// EncryptionKey is a 64-char hex string (32 bytes decoded)
	EncryptionKey string `json:"encryption_key"`
}

// BackupSection configures scheduled token cache backups
type BackupSection struct {
	Enabled   bool   `json:"enabled"`
	Directory string `json:"directory"`
	Retention int    `json:"retention"`
	// Schedule is a cron expression, standard five fields
	Schedule string `json:"schedule"`
}

// AuditSection toggles the audit trail
type AuditSection struct {
	Enabled *bool `json:"enabled"`
}

// FindConfigPath returns the path to seatsync.jsonc using precedence:
// 1. configDir + /seatsync.jsonc (if configDir specified)
// 2. ./config/seatsync.jsonc (project-local)
// 3. ~/.seatsync/config/seatsync.jsonc (user global)
func FindConfigPath(configDir string) (string, error) {
	if configDir != "" {
		path := filepath.Join(configDir, "seatsync.jsonc")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("seatsync.jsonc not found in %s", configDir)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path, nil
		}
		return abs, nil
	}

	candidates := []string{
		filepath.Join("config", "seatsync.jsonc"),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".seatsync", "config", "seatsync.jsonc"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("seatsync.jsonc not found; tried: %v", candidates)
}

// Load reads and parses a seatsync.jsonc file, applies defaults and
// environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	jsonData := StripJSONComments(data)

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Cache.DataDir == "" {
		c.Cache.DataDir = "data"
	}
	if c.Backup.Directory == "" {
		c.Backup.Directory = "data/backups"
	}
	if c.Backup.Retention == 0 {
		c.Backup.Retention = 7
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "0 3 * * *"
	}
}

// Environment variables override file values, so deployments can keep
// the encryption key out of the config file entirely.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEATSYNC_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("SEATSYNC_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("SEATSYNC_DATA_DIR"); v != "" {
		c.Cache.DataDir = v
	}
	if v := os.Getenv("SEATSYNC_ENCRYPTION_KEY"); v != "" {
		c.Cache.EncryptionKey = v
	}
}

// Validate checks that required configuration is present and parses the
// encryption key. A malformed key is a setup failure, never a
// per-request one.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required: add to seatsync.jsonc or set SEATSYNC_UPSTREAM_URL")
	}
	if c.Cache.EncryptionKey == "" {
		return fmt.Errorf("cache.encryption_key is required: generate one with the keygen subcommand")
	}

	key, err := crypto.ParseKey(c.Cache.EncryptionKey)
	if err != nil {
		return fmt.Errorf("cache.encryption_key: %w", err)
	}
	c.key = key
	return nil
}

// EncryptionKey returns the parsed token cache key. Only valid after a
// successful Validate.
func (c *Config) EncryptionKey() *crypto.Key {
	return c.key
}

// AuditEnabled defaults to on when the section is absent.
func (c *Config) AuditEnabled() bool {
	if c.Audit.Enabled == nil {
		return true
	}
	return *c.Audit.Enabled
}
