// Package types holds the catalog record shapes shared by the
// hydration adapters and the evidence matcher.
package types

// TableRecord is one table discovered in a live database catalog.
type TableRecord struct {
	Schema string
	Name   string
}

// ForeignKeyRecord is one enforced foreign key column pair read from a
// live database catalog. Composite keys produce one record per column
// pair sharing the constraint name.
type ForeignKeyRecord struct {
	Constraint   string
	SourceSchema string
	SourceTable  string
	SourceColumn string
	TargetSchema string
	TargetTable  string
	TargetColumn string
	IsNullable   bool
	DeleteRule   string
}
