// Package config loads CLI configuration from config files and the
// environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Config holds the CLI configuration
type Config struct {
	Provider    string
	DatabaseURL string
	NamedPrefix string
}

// Load reads configuration from config files, .env files and the
// environment. Later sources win: config file, then .env, then .env.local,
// then real environment variables.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".datamodel")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "datamodel"))

	viper.SetEnvPrefix("DATAMODEL")
	viper.AutomaticEnv()

	viper.SetDefault("provider", "postgres")
	viper.SetDefault("named_prefix", "?:")

	// Missing config file is fine, flags and env cover everything.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	// .env.local overrides .env
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		Provider:    viper.GetString("provider"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NamedPrefix: viper.GetString("named_prefix"),
	}

	return cfg, nil
}
