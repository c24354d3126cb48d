package config

import "testing"

func TestValidateSettings_AcceptsFullConfig(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"server": map[string]any{
			"addr":           ":9090",
			"jwt_secret_env": "DONNA_JWT_SECRET",
			"cors_origins":   []any{"http://localhost:3000"},
		},
		"db": map[string]any{"path": "/tmp/donna.db"},
		"model": map[string]any{
			"model":       "gpt-4o-mini",
			"api_key_env": "OPENAI_API_KEY",
			"timeout":     60,
		},
		"chat": map[string]any{
			"history_window":  10,
			"max_tool_rounds": 8,
		},
	}

	if err := ValidateSettings(settings); err != nil {
		t.Fatalf("ValidateSettings returned error: %v", err)
	}
}

func TestValidateSettings_RejectsUnknownKeysAndBadTypes(t *testing.T) {
	t.Parallel()

	if err := ValidateSettings(map[string]any{"agents": map[string]any{}}); err == nil {
		t.Fatal("unknown top-level key should fail validation")
	}

	if err := ValidateSettings(map[string]any{
		"chat": map[string]any{"max_tool_rounds": "eight"},
	}); err == nil {
		t.Fatal("non-integer max_tool_rounds should fail validation")
	}

	if err := ValidateSettings(map[string]any{
		"chat": map[string]any{"history_window": 0},
	}); err == nil {
		t.Fatal("zero history_window should fail validation")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Chat.HistoryWindow != 10 {
		t.Fatalf("history window = %d, want 10", cfg.Chat.HistoryWindow)
	}
	if cfg.Chat.MaxToolRounds <= 0 {
		t.Fatal("max tool rounds must be positive")
	}
	if cfg.Model.APIKeyEnv == "" {
		t.Fatal("default api key env must be set")
	}
}
