// Package config loads keelson.config.json and the cycle override
// file, turning both into the typed options the pipeline consumes.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/keelson-db/keelson/internal/model"
)

type Config struct {
	Version      string             `json:"version" mapstructure:"version"`
	ModelPath    string             `json:"model_path" mapstructure:"model_path"`
	DatasetDir   string             `json:"dataset_dir" mapstructure:"dataset_dir"`
	OutputDir    string             `json:"output_dir" mapstructure:"output_dir"`
	Database     Database           `json:"database" mapstructure:"database"`
	Sort         Sort               `json:"sort" mapstructure:"sort"`
	BatchSize    int                `json:"batch_size" mapstructure:"batch_size"`
	Naming       []model.RenameRule `json:"naming,omitempty" mapstructure:"naming"`
	CyclesPath   string             `json:"cycles_path" mapstructure:"cycles_path"`
	EvidencePath string             `json:"evidence_path" mapstructure:"evidence_path"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Sort struct {
	DeferJunctionTables bool `json:"defer_junction_tables" mapstructure:"defer_junction_tables"`
}

// Load unmarshals whatever viper has read and fills in defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = "model.json"
	}
	if cfg.DatasetDir == "" {
		cfg.DatasetDir = "data"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "sqlserver"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.CyclesPath == "" {
		cfg.CyclesPath = "keelson.cycles.yaml"
	}
	if cfg.EvidencePath == "" {
		cfg.EvidencePath = ".keelson/evidence.db"
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"sqlserver", "mssql", "postgresql", "postgres", "mysql"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v",
			c.Database.Provider, supportedProviders)
	}

	if c.ModelPath == "" {
		return fmt.Errorf("model_path cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}

	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// Resolver builds the effective-name resolver from the configured
// rename rules. The same resolver feeds ordering and every writer.
func (c *Config) Resolver() model.NameResolver {
	if len(c.Naming) == 0 {
		return model.DefaultResolver()
	}
	return model.ResolverFromRules(c.Naming)
}
