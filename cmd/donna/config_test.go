package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", filepath.Join(t.TempDir(), "no-such-config.json"))

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server.addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Chat.HistoryWindow != 10 {
		t.Fatalf("chat.history_window = %d, want %d", cfg.Chat.HistoryWindow, 10)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeTestConfig(t, `{
  "server": {"addr": ":9090"},
  "model": {"model": "gpt-4o", "timeout": 30},
  "chat": {"max_tool_rounds": 4}
}`)

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("server.addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
	if cfg.Model.Model != "gpt-4o" {
		t.Fatalf("model.model = %q, want %q", cfg.Model.Model, "gpt-4o")
	}
	if cfg.Chat.MaxToolRounds != 4 {
		t.Fatalf("chat.max_tool_rounds = %d, want %d", cfg.Chat.MaxToolRounds, 4)
	}
	// Untouched keys keep their defaults.
	if cfg.DB.Path != ".donna/donna.db" {
		t.Fatalf("db.path = %q, want default", cfg.DB.Path)
	}
}

func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	path := writeTestConfig(t, `{"server": {"port": 9090}}`)

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", path)

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected schema validation error for unknown key")
	}
}
