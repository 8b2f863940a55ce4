package sqlgen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/keelson-db/keelson/internal/model"
)

func TestForProvider(t *testing.T) {
	cases := []struct {
		provider string
		name     string
	}{
		{"sqlserver", ProviderSQLServer},
		{"mssql", ProviderSQLServer},
		{"postgres", ProviderPostgres},
		{"postgresql", ProviderPostgres},
		{"mysql", ProviderMySQL},
	}
	for _, tc := range cases {
		d, err := ForProvider(tc.provider)
		if err != nil {
			t.Fatalf("ForProvider(%s) failed: %v", tc.provider, err)
		}
		if d.Name() != tc.name {
			t.Errorf("ForProvider(%s) = %s, expected %s", tc.provider, d.Name(), tc.name)
		}
	}

	if _, err := ForProvider("oracle"); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func TestLiterals(t *testing.T) {
	ss := &SQLServerDialect{}
	pg := &PostgresDialect{}
	my := &MySQLDialect{}

	if got := ss.Literal(nil); got != "NULL" {
		t.Errorf("Expected NULL, got %s", got)
	}
	if got := ss.Literal("it's"); got != "N'it''s'" {
		t.Errorf("Expected N'it''s', got %s", got)
	}
	if got := pg.Literal("it's"); got != "'it''s'" {
		t.Errorf("Expected 'it''s', got %s", got)
	}
	if got := my.Literal(`a\b`); got != `'a\\b'` {
		t.Errorf(`Expected 'a\\b', got %s`, got)
	}
	if got := ss.Literal(true); got != "1" {
		t.Errorf("Expected 1, got %s", got)
	}
	if got := pg.Literal(true); got != "TRUE" {
		t.Errorf("Expected TRUE, got %s", got)
	}
	if got := ss.Literal(json.Number("9007199254740993")); got != "9007199254740993" {
		t.Errorf("Large identifier mangled: %s", got)
	}
	if got := ss.Literal([]byte{0xDE, 0xAD}); got != "0xDEAD" {
		t.Errorf("Expected 0xDEAD, got %s", got)
	}
	if got := pg.Literal([]byte{0xDE, 0xAD}); got != `'\xdead'` {
		t.Errorf(`Expected '\xdead', got %s`, got)
	}
}

func TestQuoting(t *testing.T) {
	ss := &SQLServerDialect{}
	pg := &PostgresDialect{}
	my := &MySQLDialect{}
	name := model.TableName{Schema: "dbo", Name: "Order"}

	if got := ss.QuoteTable(name); got != "[dbo].[Order]" {
		t.Errorf("Expected [dbo].[Order], got %s", got)
	}
	if got := pg.QuoteTable(name); got != `"dbo"."Order"` {
		t.Errorf(`Expected "dbo"."Order", got %s`, got)
	}
	if got := my.QuoteTable(name); got != "`dbo`.`Order`" {
		t.Errorf("Expected `dbo`.`Order`, got %s", got)
	}
	if got := ss.QuoteIdent("we]ird"); got != "[we]]ird]" {
		t.Errorf("Bracket escaping broken: %s", got)
	}
}

func TestRenderCreateTable(t *testing.T) {
	d := &SQLServerDialect{}
	attrs := []model.Attribute{
		{Name: "Id", DataType: model.TypeInteger, IsPrimaryKey: true, IsIdentity: true},
		{Name: "Code", DataType: model.TypeString, Length: 20, IsUnique: true},
		{Name: "CountryId", DataType: model.TypeInteger, Nullable: true},
	}
	fks := []ForeignKeyClause{{
		Name:       "FK_City_Country",
		Columns:    []string{"CountryId"},
		RefTable:   model.TableName{Schema: "dbo", Name: "Country"},
		RefColumns: []string{"Id"},
		DeleteRule: model.DeleteCascade,
	}}

	sql := d.RenderCreateTable(model.TableName{Schema: "dbo", Name: "City"}, attrs, fks)

	for _, want := range []string{
		"CREATE TABLE [dbo].[City] (",
		"[Id] INT IDENTITY(1,1) NOT NULL",
		"[Code] NVARCHAR(20) NOT NULL",
		"[CountryId] INT NULL",
		"CONSTRAINT [PK_City] PRIMARY KEY ([Id])",
		"CONSTRAINT [UQ_City_Code] UNIQUE ([Code])",
		"CONSTRAINT [FK_City_Country] FOREIGN KEY ([CountryId]) REFERENCES [dbo].[Country] ([Id]) ON DELETE CASCADE",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("CREATE TABLE missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "ON DELETE NO ACTION") {
		t.Error("NO ACTION should not be spelled out")
	}
}

func TestRenderInsertAndUpdate(t *testing.T) {
	d := &PostgresDialect{}
	table := model.TableName{Schema: "public", Name: "country"}

	insert := d.RenderInsert(table, []string{"id", "name"}, [][]string{
		{"1", "'Iceland'"},
		{"2", "'Norway'"},
	})
	if !strings.Contains(insert, `INSERT INTO "public"."country" ("id", "name")`) {
		t.Errorf("Insert header wrong:\n%s", insert)
	}
	if !strings.Contains(insert, "(1, 'Iceland'),\n    (2, 'Norway');") {
		t.Errorf("Multi-row values wrong:\n%s", insert)
	}

	update := d.RenderUpdate(table,
		[]ColumnValue{{Column: "capital_id", Value: "7"}},
		[]ColumnValue{{Column: "id", Value: "1"}})
	if update != `UPDATE "public"."country" SET "capital_id" = 7 WHERE "id" = 1;` {
		t.Errorf("Update wrong: %s", update)
	}
}

func TestConstraintToggles(t *testing.T) {
	tables := []model.TableName{{Schema: "dbo", Name: "A"}, {Schema: "dbo", Name: "B"}}

	ss := (&SQLServerDialect{}).RenderDisableConstraints(tables)
	if len(ss) != 2 || ss[0] != "ALTER TABLE [dbo].[A] NOCHECK CONSTRAINT ALL;" {
		t.Errorf("SQL Server disable wrong: %v", ss)
	}

	my := (&MySQLDialect{}).RenderDisableConstraints(tables)
	if len(my) != 1 || my[0] != "SET FOREIGN_KEY_CHECKS = 0;" {
		t.Errorf("MySQL disable wrong: %v", my)
	}
}
