package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seatsync.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `{
		// reservation platform
		"upstream": {"base_url": "https://api.example.com"},
		"server": {"address": ":9090"},
		"cache": {
			"data_dir": "/var/lib/seatsync",
			"encryption_key": "`+testKeyHex+`"
		},
		"backup": {"enabled": true, "retention": 3, "schedule": "30 2 * * *"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.Upstream.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Cache.DataDir != "/var/lib/seatsync" {
		t.Errorf("DataDir = %q", cfg.Cache.DataDir)
	}
	if !cfg.Backup.Enabled || cfg.Backup.Retention != 3 || cfg.Backup.Schedule != "30 2 * * *" {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if cfg.EncryptionKey() == nil {
		t.Fatal("EncryptionKey() = nil after successful Load")
	}
	if got := hex.EncodeToString(cfg.EncryptionKey()[:]); got != testKeyHex {
		t.Errorf("parsed key = %s, want %s", got, testKeyHex)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{
		"upstream": {"base_url": "https://api.example.com"},
		"cache": {"encryption_key": "`+testKeyHex+`"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("default Address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Cache.DataDir != "data" {
		t.Errorf("default DataDir = %q, want data", cfg.Cache.DataDir)
	}
	if cfg.Backup.Schedule != "0 3 * * *" {
		t.Errorf("default Schedule = %q", cfg.Backup.Schedule)
	}
	if cfg.Backup.Retention != 7 {
		t.Errorf("default Retention = %d, want 7", cfg.Backup.Retention)
	}
	if !cfg.AuditEnabled() {
		t.Error("AuditEnabled() = false by default, want true")
	}
}

func TestLoad_MissingUpstream(t *testing.T) {
	path := writeConfig(t, `{"cache": {"encryption_key": "`+testKeyHex+`"}}`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "upstream.base_url") {
		t.Fatalf("Load() error = %v, want upstream.base_url error", err)
	}
}

func TestLoad_BadEncryptionKey(t *testing.T) {
	for _, key := range []string{"", "not-hex", "abcd"} {
		content := `{"upstream": {"base_url": "https://api.example.com"}`
		if key != "" {
			content += `, "cache": {"encryption_key": "` + key + `"}`
		}
		content += `}`
		path := writeConfig(t, content)

		if _, err := Load(path); err == nil {
			t.Errorf("Load() with key %q succeeded, want error", key)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEATSYNC_ADDRESS", ":7000")
	t.Setenv("SEATSYNC_ENCRYPTION_KEY", testKeyHex)

	path := writeConfig(t, `{"upstream": {"base_url": "https://api.example.com"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":7000" {
		t.Errorf("Address = %q, want env override :7000", cfg.Server.Address)
	}
	if cfg.EncryptionKey() == nil {
		t.Error("EncryptionKey() = nil, env key not applied")
	}
}

func TestStripJSONComments(t *testing.T) {
	input := `{
		// line comment
		"a": "value // not a comment",
		/* block
		   comment */
		"b": 2
	}`
	out := StripJSONComments([]byte(input))
	s := string(out)
	if strings.Contains(s, "line comment") || strings.Contains(s, "block") {
		t.Errorf("comments survived: %s", s)
	}
	if !strings.Contains(s, "value // not a comment") {
		t.Errorf("comment marker inside string was stripped: %s", s)
	}
}
