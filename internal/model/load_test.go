package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleModel = `{
  "name": "crm",
  "version": "4.2.0",
  "entities": [
    {
      "name": "Users",
      "attributes": [
        {"name": "Id", "data_type": "integer", "is_primary_key": true, "is_identity": true},
        {"name": "Email", "data_type": "string", "length": 256}
      ]
    },
    {
      "schema": "sales",
      "name": "Orders",
      "attributes": [
        {"name": "Id", "data_type": "integer", "is_primary_key": true},
        {"name": "UserId", "data_type": "integer"}
      ]
    }
  ],
  "relationships": [
    {
      "name": "FK_Orders_Users",
      "source_entity": "Orders",
      "target_entity": "Users",
      "constraints": [{"owner_column": "UserId", "referenced_column": "Id"}],
      "has_database_constraint": true,
      "delete_rule": "no_action"
    },
    {
      "name": "FK_Orders_Ghost",
      "source_entity": "Orders",
      "target_entity": "Phantom",
      "constraints": [{"owner_column": "UserId", "referenced_column": "Id"}],
      "has_database_constraint": true
    }
  ]
}`

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write model file: %v", err)
	}
	return path
}

func TestLoadNormalizesSchemaAndDeleteRule(t *testing.T) {
	m, warnings, err := Load(writeModelFile(t, sampleModel))
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	users := m.EntityByName("Users")
	if users == nil {
		t.Fatal("Expected Users entity to be present")
	}
	if users.Schema != DefaultSchema {
		t.Errorf("Expected empty schema to default to %s, got %s", DefaultSchema, users.Schema)
	}

	orders := m.EntityByName("Orders")
	if orders.Schema != "sales" {
		t.Errorf("Expected declared schema to be kept, got %s", orders.Schema)
	}

	if m.Relationships[0].DeleteRule != DeleteNoAction {
		t.Errorf("Expected delete rule to normalize to %q, got %q", DeleteNoAction, m.Relationships[0].DeleteRule)
	}

	// The phantom target is a warning, never a load failure.
	if len(warnings) != 1 {
		t.Fatalf("Expected exactly 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "Phantom") {
		t.Errorf("Expected warning to name the unknown entity, got %q", warnings[0])
	}
}

func TestLoadDuplicateEntityWarns(t *testing.T) {
	dup := `{
  "name": "x", "version": "1",
  "entities": [
    {"name": "Users", "attributes": [{"name": "Id", "data_type": "integer", "is_primary_key": true}]},
    {"name": "users", "attributes": [{"name": "Id", "data_type": "integer", "is_primary_key": true}]}
  ],
  "relationships": []
}`
	_, warnings, err := Load(writeModelFile(t, dup))
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "duplicate entity") {
		t.Errorf("Expected a duplicate entity warning, got %v", warnings)
	}
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	_, _, err := Load(writeModelFile(t, "{not json"))
	if err == nil {
		t.Fatal("Expected parse error for broken JSON, got nil")
	}
}

func TestEntityHelpers(t *testing.T) {
	m, _, err := Load(writeModelFile(t, sampleModel))
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	users := m.EntityByName("users")
	if users == nil {
		t.Fatal("Expected case-insensitive entity lookup to find Users")
	}

	pk := users.PrimaryKey()
	if len(pk) != 1 || pk[0].Name != "Id" {
		t.Errorf("Expected primary key [Id], got %v", pk)
	}

	if users.Attribute("email") == nil {
		t.Error("Expected case-insensitive attribute lookup to find Email")
	}

	rels := m.RelationshipsFrom("Orders")
	if len(rels) != 2 {
		t.Errorf("Expected 2 relationships from Orders, got %d", len(rels))
	}
}

func TestLoadDatasets(t *testing.T) {
	dir := t.TempDir()

	bare := `[{"Id": 1, "Email": "a@b.c"}]`
	if err := os.WriteFile(filepath.Join(dir, "Users.json"), []byte(bare), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	wrapped := `{"entity": "Orders", "rows": [{"Id": 10, "UserId": 1}, {"Id": 11, "UserId": 1}]}`
	if err := os.WriteFile(filepath.Join(dir, "orders_export.json"), []byte(wrapped), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}

	m := &Model{}
	if err := LoadDatasets(dir, m); err != nil {
		t.Fatalf("Failed to load datasets: %v", err)
	}

	if len(m.Datasets["Users"]) != 1 {
		t.Errorf("Expected 1 Users row, got %d", len(m.Datasets["Users"]))
	}
	if len(m.Datasets["Orders"]) != 2 {
		t.Errorf("Expected wrapped file to register under its entity key, got %v", m.Datasets)
	}
	if n, ok := m.Datasets["Users"][0]["Id"].(json.Number); !ok || n.String() != "1" {
		t.Errorf("Expected numeric values to stay json.Number, got %T", m.Datasets["Users"][0]["Id"])
	}
}

func TestLoadDatasetsMissingDirIsFine(t *testing.T) {
	m := &Model{}
	if err := LoadDatasets(filepath.Join(t.TempDir(), "nope"), m); err != nil {
		t.Errorf("Expected missing dataset directory to be tolerated, got %v", err)
	}
}

func TestNormalizeDeleteRule(t *testing.T) {
	cases := map[string]string{
		"CASCADE":     DeleteCascade,
		"cascade":     DeleteCascade,
		"SET_NULL":    DeleteSetNull,
		"set null":    DeleteSetNull,
		"SET_DEFAULT": DeleteSetDefault,
		"NO_ACTION":   DeleteNoAction,
		"":            DeleteNoAction,
		"RESTRICT":    DeleteNoAction,
	}
	for in, want := range cases {
		if got := NormalizeDeleteRule(in); got != want {
			t.Errorf("NormalizeDeleteRule(%q) = %q, expected %q", in, got, want)
		}
	}
}
