package model

import (
	"strings"

	"github.com/google/uuid"
)

// Delete rules as they appear in foreign key metadata.
const (
	DeleteNoAction   = "NO ACTION"
	DeleteCascade    = "CASCADE"
	DeleteSetNull    = "SET NULL"
	DeleteSetDefault = "SET DEFAULT"
)

// Attribute data types understood by the generators.
const (
	TypeString   = "string"
	TypeText     = "text"
	TypeInteger  = "integer"
	TypeBigInt   = "bigint"
	TypeDecimal  = "decimal"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeDateTime = "datetime"
	TypeUUID     = "uuid"
	TypeBinary   = "binary"
)

// Row is a single record of a dataset, keyed by attribute name.
type Row = map[string]interface{}

// Model is the exported application schema: entities, their attributes
// and the relationships between them, plus any bundled datasets.
type Model struct {
	Name          string           `json:"name"`
	Version       string           `json:"version"`
	Modules       []Module         `json:"modules,omitempty"`
	Entities      []Entity         `json:"entities"`
	Relationships []Relationship   `json:"relationships"`
	Datasets      map[string][]Row `json:"datasets,omitempty"`
}

type Module struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Entity is a modeled table. Name is the physical table name; Schema
// defaults to dbo when the export leaves it empty.
type Entity struct {
	ID          uuid.UUID   `json:"id,omitempty"`
	Module      string      `json:"module,omitempty"`
	Schema      string      `json:"schema,omitempty"`
	Name        string      `json:"name"`
	LogicalName string      `json:"logical_name,omitempty"`
	IsStatic    bool        `json:"is_static,omitempty"`
	Attributes  []Attribute `json:"attributes"`
	Indexes     []Index     `json:"indexes,omitempty"`
}

type Attribute struct {
	ID           uuid.UUID `json:"id,omitempty"`
	Name         string    `json:"name"`
	DataType     string    `json:"data_type"`
	Length       int       `json:"length,omitempty"`
	Precision    int       `json:"precision,omitempty"`
	Scale        int       `json:"scale,omitempty"`
	Nullable     bool      `json:"nullable"`
	IsPrimaryKey bool      `json:"is_primary_key,omitempty"`
	IsUnique     bool      `json:"is_unique,omitempty"`
	IsIdentity   bool      `json:"is_identity,omitempty"`
	Default      string    `json:"default,omitempty"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// RelationshipConstraint is one column pair of a foreign key. OwnerColumn
// lives on the source (child) entity, ReferencedColumn on the target (parent).
type RelationshipConstraint struct {
	OwnerColumn      string `json:"owner_column"`
	ReferencedColumn string `json:"referenced_column"`
}

// Relationship is a modeled foreign key from SourceEntity (child) to
// TargetEntity (parent). HasDatabaseConstraint records whether the
// constraint was verified against a live database; relationships without
// it are modeling intent only and never influence ordering.
type Relationship struct {
	ID                    uuid.UUID                `json:"id,omitempty"`
	Name                  string                   `json:"name"`
	SourceEntity          string                   `json:"source_entity"`
	TargetEntity          string                   `json:"target_entity"`
	Constraints           []RelationshipConstraint `json:"constraints"`
	HasDatabaseConstraint bool                     `json:"has_database_constraint"`
	DeleteRule            string                   `json:"delete_rule,omitempty"`
}

// EntityByName finds an entity by its physical name, case-insensitively.
func (m *Model) EntityByName(name string) *Entity {
	for i := range m.Entities {
		if strings.EqualFold(m.Entities[i].Name, name) {
			return &m.Entities[i]
		}
	}
	return nil
}

// RelationshipsFrom returns the relationships owned by the given entity.
func (m *Model) RelationshipsFrom(entity string) []Relationship {
	var rels []Relationship
	for _, r := range m.Relationships {
		if strings.EqualFold(r.SourceEntity, entity) {
			rels = append(rels, r)
		}
	}
	return rels
}

// StaticEntities returns the reference-data entities in model order.
func (m *Model) StaticEntities() []Entity {
	var static []Entity
	for _, e := range m.Entities {
		if e.IsStatic {
			static = append(static, e)
		}
	}
	return static
}

// Attribute finds an attribute by name, case-insensitively.
func (e *Entity) Attribute(name string) *Attribute {
	for i := range e.Attributes {
		if strings.EqualFold(e.Attributes[i].Name, name) {
			return &e.Attributes[i]
		}
	}
	return nil
}

// PrimaryKey returns the primary key attributes in declaration order.
func (e *Entity) PrimaryKey() []Attribute {
	var pk []Attribute
	for _, a := range e.Attributes {
		if a.IsPrimaryKey {
			pk = append(pk, a)
		}
	}
	return pk
}

// NormalizeDeleteRule maps catalog spellings to the canonical rule names.
func NormalizeDeleteRule(rule string) string {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rule), "_", " ")) {
	case "CASCADE":
		return DeleteCascade
	case "SET NULL":
		return DeleteSetNull
	case "SET DEFAULT":
		return DeleteSetDefault
	default:
		return DeleteNoAction
	}
}
