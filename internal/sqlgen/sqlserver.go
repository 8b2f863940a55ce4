package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// SQLServerDialect renders Transact-SQL. It is the default target.
type SQLServerDialect struct{}

func (d *SQLServerDialect) Name() string { return ProviderSQLServer }

func (d *SQLServerDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *SQLServerDialect) QuoteTable(t model.TableName) string {
	if t.Schema == "" {
		return d.QuoteIdent(t.Name)
	}
	return d.QuoteIdent(t.Schema) + "." + d.QuoteIdent(t.Name)
}

func (d *SQLServerDialect) RenderColumnType(attr model.Attribute) string {
	switch attr.DataType {
	case model.TypeString:
		return fmt.Sprintf("NVARCHAR(%d)", lengthOr(attr, 255))
	case model.TypeText:
		return "NVARCHAR(MAX)"
	case model.TypeInteger:
		return "INT"
	case model.TypeBigInt:
		return "BIGINT"
	case model.TypeDecimal:
		p, s := precisionOr(attr, 18, 2)
		return fmt.Sprintf("DECIMAL(%d, %d)", p, s)
	case model.TypeBool:
		return "BIT"
	case model.TypeDate:
		return "DATE"
	case model.TypeDateTime:
		return "DATETIME2"
	case model.TypeUUID:
		return "UNIQUEIDENTIFIER"
	case model.TypeBinary:
		if attr.Length > 0 {
			return fmt.Sprintf("VARBINARY(%d)", attr.Length)
		}
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(255)"
	}
}

func (d *SQLServerDialect) RenderCreateTable(t model.TableName, attrs []model.Attribute, fks []ForeignKeyClause) string {
	return buildCreateTable(d, t, attrs, fks, func(a model.Attribute) string {
		if a.IsIdentity {
			return " IDENTITY(1,1)"
		}
		return ""
	})
}

func (d *SQLServerDialect) RenderCreateIndex(t model.TableName, idx model.Index) string {
	return buildCreateIndex(d, t, idx)
}

func (d *SQLServerDialect) RenderInsert(t model.TableName, columns []string, rows [][]string) string {
	return buildInsert(d, t, columns, rows)
}

func (d *SQLServerDialect) RenderUpdate(t model.TableName, set []ColumnValue, where []ColumnValue) string {
	return buildUpdate(d, t, set, where)
}

func (d *SQLServerDialect) RenderDelete(t model.TableName) string {
	return "DELETE FROM " + d.QuoteTable(t) + ";"
}

func (d *SQLServerDialect) RenderDisableConstraints(tables []model.TableName) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = "ALTER TABLE " + d.QuoteTable(t) + " NOCHECK CONSTRAINT ALL;"
	}
	return out
}

func (d *SQLServerDialect) RenderEnableConstraints(tables []model.TableName) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = "ALTER TABLE " + d.QuoteTable(t) + " WITH CHECK CHECK CONSTRAINT ALL;"
	}
	return out
}

func (d *SQLServerDialect) Literal(val interface{}) string {
	style := literalStyle{
		quoteString:  func(s string) string { return "N'" + escapeQuotes(s) + "'" },
		renderBool:   numericBool,
		renderBinary: hexBinary,
		timeLayout:   "2006-01-02T15:04:05",
	}
	return style.render(val)
}
