package evidence

import (
	"testing"

	"github.com/keelson-db/keelson/internal/model"
	"github.com/keelson-db/keelson/internal/types"
)

func matchModel() *model.Model {
	return &model.Model{
		Name: "demo",
		Entities: []model.Entity{
			{Schema: "dbo", Name: "Country", Attributes: []model.Attribute{
				{Name: "Id", DataType: model.TypeInteger, IsPrimaryKey: true},
			}},
			{Schema: "dbo", Name: "City", Attributes: []model.Attribute{
				{Name: "Id", DataType: model.TypeInteger, IsPrimaryKey: true},
				{Name: "CountryId", DataType: model.TypeInteger},
			}},
		},
		Relationships: []model.Relationship{
			{
				Name: "CityBelongsToCountry", SourceEntity: "City", TargetEntity: "Country",
				Constraints: []model.RelationshipConstraint{{OwnerColumn: "CountryId", ReferencedColumn: "Id"}},
			},
			{
				Name: "CityTwin", SourceEntity: "City", TargetEntity: "City",
				Constraints: []model.RelationshipConstraint{{OwnerColumn: "TwinId", ReferencedColumn: "Id"}},
			},
		},
	}
}

func TestMatchRecordsByTablesAndColumns(t *testing.T) {
	m := matchModel()
	records := []types.ForeignKeyRecord{
		{
			Constraint:   "FK__City__Country__3B75D760",
			SourceSchema: "dbo", SourceTable: "City", SourceColumn: "COUNTRYID",
			TargetSchema: "dbo", TargetTable: "Country", TargetColumn: "ID",
			IsNullable: false, DeleteRule: model.DeleteCascade,
		},
	}

	matches, unmatched := MatchRecords(m, records)

	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	got := matches[0]
	if got.Relationship.Name != "CityBelongsToCountry" {
		t.Errorf("Matched wrong relationship: %s", got.Relationship.Name)
	}
	if got.Constraint != "FK__City__Country__3B75D760" {
		t.Errorf("Expected the live constraint name, got %s", got.Constraint)
	}
	if got.DeleteRule != model.DeleteCascade || got.Nullable {
		t.Errorf("Catalog facts not carried: rule=%s nullable=%t", got.DeleteRule, got.Nullable)
	}
	// CityTwin has no live constraint.
	if len(unmatched) != 1 || unmatched[0] != "CityTwin" {
		t.Errorf("Expected CityTwin unmatched, got %v", unmatched)
	}
}

func TestMatchRecordsCompositeKey(t *testing.T) {
	m := &model.Model{
		Name: "demo",
		Entities: []model.Entity{
			{Schema: "dbo", Name: "Parent"},
			{Schema: "dbo", Name: "Child"},
		},
		Relationships: []model.Relationship{{
			Name: "ChildParent", SourceEntity: "Child", TargetEntity: "Parent",
			Constraints: []model.RelationshipConstraint{
				{OwnerColumn: "PA", ReferencedColumn: "A"},
				{OwnerColumn: "PB", ReferencedColumn: "B"},
			},
		}},
	}

	full := []types.ForeignKeyRecord{
		{Constraint: "FK1", SourceSchema: "dbo", SourceTable: "Child", SourceColumn: "PA",
			TargetSchema: "dbo", TargetTable: "Parent", TargetColumn: "A", IsNullable: true},
		{Constraint: "FK1", SourceSchema: "dbo", SourceTable: "Child", SourceColumn: "PB",
			TargetSchema: "dbo", TargetTable: "Parent", TargetColumn: "B", IsNullable: false},
	}
	matches, unmatched := MatchRecords(m, full)
	if len(matches) != 1 || len(unmatched) != 0 {
		t.Fatalf("Expected composite match, got %d matches, unmatched %v", len(matches), unmatched)
	}
	// One NOT NULL column makes the whole constraint mandatory.
	if matches[0].Nullable {
		t.Error("Composite key with a NOT NULL column must not be nullable")
	}

	// A live constraint covering only one of the two pairs must not match.
	partial := full[:1]
	matches, unmatched = MatchRecords(m, partial)
	if len(matches) != 0 || len(unmatched) != 1 {
		t.Errorf("Partial column coverage must not match, got %d matches", len(matches))
	}
}

func TestMatchRecordsWrongTargetTable(t *testing.T) {
	m := matchModel()
	records := []types.ForeignKeyRecord{
		{
			Constraint:   "FK_City_Other",
			SourceSchema: "dbo", SourceTable: "City", SourceColumn: "CountryId",
			TargetSchema: "dbo", TargetTable: "Region", TargetColumn: "Id",
		},
	}

	matches, unmatched := MatchRecords(m, records)
	if len(matches) != 0 {
		t.Errorf("Expected no match for wrong target, got %v", matches)
	}
	if len(unmatched) != 2 {
		t.Errorf("Expected both relationships unmatched, got %v", unmatched)
	}
}
