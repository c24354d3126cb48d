package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"

	"github.com/metalagman/donna/internal/config"
)

// loadConfig reads the config file named by the --config flag and merges it
// over the built-in defaults. A missing file is not an error; the defaults
// apply unchanged.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	path := viper.GetString("config")
	if path == "" {
		path = defaultConfigPath
	}

	// A dedicated instance keeps flag bindings on the global viper out of
	// the settings handed to schema validation.
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := config.ValidateSettings(v.AllSettings()); err != nil {
		return config.Config{}, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// jwtSecret resolves the signing secret from the configured env var.
func jwtSecret(cfg config.Config) ([]byte, error) {
	secret := os.Getenv(cfg.Server.JWTSecretEnv)
	if secret == "" {
		return nil, fmt.Errorf("environment variable %s must be set", cfg.Server.JWTSecretEnv)
	}
	return []byte(secret), nil
}
