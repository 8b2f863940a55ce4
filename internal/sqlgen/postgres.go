package sqlgen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// PostgresDialect renders PostgreSQL-flavored SQL.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return ProviderPostgres }

func (d *PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) QuoteTable(t model.TableName) string {
	if t.Schema == "" {
		return d.QuoteIdent(t.Name)
	}
	return d.QuoteIdent(t.Schema) + "." + d.QuoteIdent(t.Name)
}

func (d *PostgresDialect) RenderColumnType(attr model.Attribute) string {
	switch attr.DataType {
	case model.TypeString:
		return fmt.Sprintf("VARCHAR(%d)", lengthOr(attr, 255))
	case model.TypeText:
		return "TEXT"
	case model.TypeInteger:
		return "INTEGER"
	case model.TypeBigInt:
		return "BIGINT"
	case model.TypeDecimal:
		p, s := precisionOr(attr, 18, 2)
		return fmt.Sprintf("NUMERIC(%d, %d)", p, s)
	case model.TypeBool:
		return "BOOLEAN"
	case model.TypeDate:
		return "DATE"
	case model.TypeDateTime:
		return "TIMESTAMP"
	case model.TypeUUID:
		return "UUID"
	case model.TypeBinary:
		return "BYTEA"
	default:
		return "VARCHAR(255)"
	}
}

func (d *PostgresDialect) RenderCreateTable(t model.TableName, attrs []model.Attribute, fks []ForeignKeyClause) string {
	return buildCreateTable(d, t, attrs, fks, func(a model.Attribute) string {
		if a.IsIdentity {
			return " GENERATED BY DEFAULT AS IDENTITY"
		}
		return ""
	})
}

func (d *PostgresDialect) RenderCreateIndex(t model.TableName, idx model.Index) string {
	return buildCreateIndex(d, t, idx)
}

func (d *PostgresDialect) RenderInsert(t model.TableName, columns []string, rows [][]string) string {
	return buildInsert(d, t, columns, rows)
}

func (d *PostgresDialect) RenderUpdate(t model.TableName, set []ColumnValue, where []ColumnValue) string {
	return buildUpdate(d, t, set, where)
}

func (d *PostgresDialect) RenderDelete(t model.TableName) string {
	return "DELETE FROM " + d.QuoteTable(t) + ";"
}

// Session-level trigger disabling also suspends foreign key checks,
// which is what the bootstrap wrap needs while both phases run.
func (d *PostgresDialect) RenderDisableConstraints(tables []model.TableName) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = "ALTER TABLE " + d.QuoteTable(t) + " DISABLE TRIGGER ALL;"
	}
	return out
}

func (d *PostgresDialect) RenderEnableConstraints(tables []model.TableName) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = "ALTER TABLE " + d.QuoteTable(t) + " ENABLE TRIGGER ALL;"
	}
	return out
}

func (d *PostgresDialect) Literal(val interface{}) string {
	style := literalStyle{
		quoteString:  func(s string) string { return "'" + escapeQuotes(s) + "'" },
		renderBool:   wordBool,
		renderBinary: func(b []byte) string { return `'\x` + hex.EncodeToString(b) + "'" },
		timeLayout:   "2006-01-02 15:04:05",
	}
	return style.render(val)
}
