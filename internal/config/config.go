// Package config provides configuration loading and management for donna.
package config

// Config is the root configuration.
type Config struct {
	Server ServerConfig `json:"server" mapstructure:"server"`
	DB     DBConfig     `json:"db"     mapstructure:"db"`
	Model  ModelConfig  `json:"model"  mapstructure:"model"`
	Chat   ChatConfig   `json:"chat"   mapstructure:"chat"`
}

// ServerConfig describes the HTTP API server.
type ServerConfig struct {
	Addr         string   `json:"addr"                   mapstructure:"addr"`
	JWTSecretEnv string   `json:"jwt_secret_env"         mapstructure:"jwt_secret_env"`
	CORSOrigins  []string `json:"cors_origins,omitempty" mapstructure:"cors_origins"`
}

// DBConfig describes the SQLite database location.
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// ModelConfig describes how to reach the language model.
type ModelConfig struct {
	Model     string `json:"model"                 mapstructure:"model"`
	BaseURL   string `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKey    string `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Timeout   int    `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// ChatConfig bounds the conversational loop.
type ChatConfig struct {
	HistoryWindow int `json:"history_window" mapstructure:"history_window"`
	MaxToolRounds int `json:"max_tool_rounds" mapstructure:"max_tool_rounds"`
	RateLimit     int `json:"rate_limit,omitempty"        mapstructure:"rate_limit"`
	RateWindowSec int `json:"rate_window_sec,omitempty"   mapstructure:"rate_window_sec"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			JWTSecretEnv: "DONNA_JWT_SECRET",
		},
		DB:    DBConfig{Path: ".donna/donna.db"},
		Model: ModelConfig{Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
		Chat: ChatConfig{
			HistoryWindow: 10,
			MaxToolRounds: 8,
			RateLimit:     10,
			RateWindowSec: 60,
		},
	}
}
