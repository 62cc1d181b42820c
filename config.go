package calmsql

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the calmsql project configuration.
type Config struct {
	Databases map[string]Database `yaml:"databases"`
	Manifest  string              `yaml:"manifest"`
	Schema    string              `yaml:"schema"`
}

// Database represents one database connection configuration.
type Database struct {
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
}

// LoadConfig reads the YAML configuration at configPath, loading a .env file
// first so ${VAR} references in connection strings can expand. A missing
// config file yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	// Missing .env is fine; an unreadable one is not.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := defaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

func defaultConfig() *Config {
	return &Config{
		Databases: map[string]Database{
			"development": {
				Connection: "${DATABASE_URL}",
			},
		},
		Manifest: "./queries.yaml",
		Schema:   "public",
	}
}

func validateConfig(config *Config) error {
	for name, db := range config.Databases {
		if strings.TrimSpace(db.Connection) == "" {
			return fmt.Errorf("database %q has an empty connection string", name)
		}
	}

	return nil
}

func applyDefaults(config *Config) {
	if config.Manifest == "" {
		config.Manifest = "./queries.yaml"
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
}

func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = os.ExpandEnv(db.Connection)
		config.Databases[name] = db
	}
}
