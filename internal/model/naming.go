package model

import "strings"

// DefaultSchema is assumed when an entity does not declare one.
const DefaultSchema = "dbo"

// TableName identifies a physical table by schema and name. It is
// comparable and used as the canonical table key everywhere downstream;
// two entities are the same table only if both parts match.
type TableName struct {
	Schema string
	Name   string
}

func (t TableName) IsZero() bool {
	return t.Schema == "" && t.Name == ""
}

// Qualified renders the schema-qualified name.
func (t TableName) Qualified() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Compare orders table names case-insensitively by schema then name,
// breaking exact ties on the raw spelling so distinct names never
// compare equal. Returns -1, 0 or 1.
func (t TableName) Compare(o TableName) int {
	if c := strings.Compare(strings.ToLower(t.Schema), strings.ToLower(o.Schema)); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(t.Name), strings.ToLower(o.Name)); c != 0 {
		return c
	}
	if c := strings.Compare(t.Schema, o.Schema); c != 0 {
		return c
	}
	return strings.Compare(t.Name, o.Name)
}

// NameResolver maps a modeled entity to its effective physical table
// name. The same resolver must be injected into the graph builder and
// every script writer so ordering and emission agree on spelling.
type NameResolver func(schema, physical, logical, module string) TableName

// DefaultResolver keeps the modeled schema and physical name, applying
// the default schema where the model leaves it empty.
func DefaultResolver() NameResolver {
	return func(schema, physical, _, _ string) TableName {
		if schema == "" {
			schema = DefaultSchema
		}
		return TableName{Schema: schema, Name: physical}
	}
}

// RenameRule rewrites effective table names for entities it matches.
// Empty match fields are wildcards; MatchName matches the physical or
// the logical name. Replacement fields apply only when non-empty.
type RenameRule struct {
	MatchModule string `json:"match_module,omitempty" mapstructure:"match_module"`
	MatchSchema string `json:"match_schema,omitempty" mapstructure:"match_schema"`
	MatchName   string `json:"match_name,omitempty" mapstructure:"match_name"`
	Schema      string `json:"schema,omitempty" mapstructure:"schema"`
	Name        string `json:"name,omitempty" mapstructure:"name"`
	Prefix      string `json:"prefix,omitempty" mapstructure:"prefix"`
	Suffix      string `json:"suffix,omitempty" mapstructure:"suffix"`
}

func (r RenameRule) matches(schema, physical, logical, module string) bool {
	if r.MatchModule != "" && !strings.EqualFold(r.MatchModule, module) {
		return false
	}
	if r.MatchSchema != "" && !strings.EqualFold(r.MatchSchema, schema) {
		return false
	}
	if r.MatchName != "" && !strings.EqualFold(r.MatchName, physical) && !strings.EqualFold(r.MatchName, logical) {
		return false
	}
	return true
}

// ResolverFromRules builds a resolver that applies the first matching
// rename rule on top of the default resolution. With no rules it
// behaves exactly like DefaultResolver.
func ResolverFromRules(rules []RenameRule) NameResolver {
	return func(schema, physical, logical, module string) TableName {
		if schema == "" {
			schema = DefaultSchema
		}
		name := physical
		for _, rule := range rules {
			if !rule.matches(schema, physical, logical, module) {
				continue
			}
			if rule.Schema != "" {
				schema = rule.Schema
			}
			if rule.Name != "" {
				name = rule.Name
			}
			name = rule.Prefix + name + rule.Suffix
			break
		}
		return TableName{Schema: schema, Name: name}
	}
}
