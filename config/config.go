// Package config loads console settings from a config file and the
// environment.
package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is everything the console needs to talk to a backend.
type Config struct {
	ServerURL     string `mapstructure:"server_url"`
	PageSize      int    `mapstructure:"page_size"`
	SessionDB     string `mapstructure:"session_db"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Load reads console.yaml from the given directory (or the default config
// locations when dir is empty) and merges INVENTORY_* environment variables
// over it. A missing config file is fine; defaults apply.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("console")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "inventory-console"))
		}
		v.AddConfigPath(".")
	}

	v.SetDefault("server_url", "https://localhost:7136")
	v.SetDefault("page_size", 5)
	v.SetDefault("session_db", defaultSessionDB())
	v.SetDefault("encryption_key", "")

	v.SetEnvPrefix("INVENTORY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.EncryptionKey == "" {
		log.Println("Warning: encryption_key not set, the session token will be stored unencrypted")
	}
	return cfg, nil
}

func defaultSessionDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./session.db"
	}
	return filepath.Join(home, ".config", "inventory-console", "session.db")
}
