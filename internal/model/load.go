package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads a model export from disk. Structural problems that the
// ordering engine can survive (unknown entities in relationships,
// relationships without column pairs, duplicate entity names) come back
// as warnings; only an unreadable or unparseable export is an error.
func Load(path string) (*Model, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m Model
	if err := decodeJSON(data, &m); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	normalize(&m)
	return &m, validate(&m), nil
}

// decodeJSON keeps numbers as json.Number so row values round-trip into
// SQL literals without float conversion mangling large identifiers.
func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func normalize(m *Model) {
	for i := range m.Entities {
		if m.Entities[i].Schema == "" {
			m.Entities[i].Schema = DefaultSchema
		}
	}
	for i := range m.Relationships {
		m.Relationships[i].DeleteRule = NormalizeDeleteRule(m.Relationships[i].DeleteRule)
	}
}

func validate(m *Model) []string {
	var warnings []string

	seen := make(map[string]string)
	for _, e := range m.Entities {
		key := strings.ToLower(e.Schema + "." + e.Name)
		if first, ok := seen[key]; ok {
			warnings = append(warnings, fmt.Sprintf("duplicate entity %s.%s (first declared as %s)", e.Schema, e.Name, first))
			continue
		}
		seen[key] = e.Schema + "." + e.Name
	}

	for _, r := range m.Relationships {
		if m.EntityByName(r.SourceEntity) == nil {
			warnings = append(warnings, fmt.Sprintf("relationship %s references unknown source entity %s", r.Name, r.SourceEntity))
		}
		if m.EntityByName(r.TargetEntity) == nil {
			warnings = append(warnings, fmt.Sprintf("relationship %s references unknown target entity %s", r.Name, r.TargetEntity))
		}
		if len(r.Constraints) == 0 {
			warnings = append(warnings, fmt.Sprintf("relationship %s declares no column pairs", r.Name))
		}
	}

	return warnings
}

// LoadDatasets reads per-entity dataset files from a directory. Each
// *.json file holds either a bare row array (the file name is the
// entity name) or an object with "entity" and "rows" keys. Rows from
// files are merged over any datasets embedded in the model itself.
func LoadDatasets(dir string, m *Model) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read dataset directory: %w", err)
	}

	if m.Datasets == nil {
		m.Datasets = make(map[string][]Row)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read dataset file %s: %w", path, err)
		}

		entity := strings.TrimSuffix(name, ".json")
		var rows []Row
		if err := decodeJSON(data, &rows); err != nil {
			var wrapped struct {
				Entity string `json:"entity"`
				Rows   []Row  `json:"rows"`
			}
			if err := decodeJSON(data, &wrapped); err != nil {
				return fmt.Errorf("failed to parse dataset file %s: %w", path, err)
			}
			if wrapped.Entity != "" {
				entity = wrapped.Entity
			}
			rows = wrapped.Rows
		}

		m.Datasets[entity] = rows
	}

	return nil
}
