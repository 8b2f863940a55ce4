package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

type cycleDecl struct {
	Tables  []string `yaml:"tables"`
	Order   []string `yaml:"order,omitempty"`
	Allowed bool     `yaml:"allowed,omitempty"`
	Reason  string   `yaml:"reason,omitempty"`
}

type cyclesFile struct {
	Cycles []cycleDecl `yaml:"cycles"`
}

// LoadOverrides reads the cycle override declarations. A missing file
// simply means no overrides; a malformed file or declaration is a
// configuration error and fails loudly.
func LoadOverrides(path string) ([]depgraph.CycleOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cycle overrides: %w", err)
	}

	var file cyclesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cycle overrides %s: %w", path, err)
	}

	overrides := make([]depgraph.CycleOverride, 0, len(file.Cycles))
	for _, decl := range file.Cycles {
		ov := depgraph.CycleOverride{
			Allowed: decl.Allowed || len(decl.Order) > 0,
			Reason:  decl.Reason,
		}
		for _, name := range decl.Tables {
			ov.Tables = append(ov.Tables, parseTableName(name))
		}
		for _, name := range decl.Order {
			ov.Order = append(ov.Order, parseTableName(name))
		}
		overrides = append(overrides, ov)
	}

	if err := depgraph.ValidateOverrides(overrides); err != nil {
		return nil, fmt.Errorf("invalid cycle overrides in %s: %w", path, err)
	}
	return overrides, nil
}

// parseTableName splits "schema.name", defaulting the schema for bare
// names the way the model loader does.
func parseTableName(name string) model.TableName {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return model.TableName{Schema: parts[0], Name: parts[1]}
	}
	return model.TableName{Schema: model.DefaultSchema, Name: name}
}
