package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// MySQLDialect renders MySQL-flavored SQL. Schemas map to databases,
// so qualified names keep the same two-part shape.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return ProviderMySQL }

func (d *MySQLDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MySQLDialect) QuoteTable(t model.TableName) string {
	if t.Schema == "" {
		return d.QuoteIdent(t.Name)
	}
	return d.QuoteIdent(t.Schema) + "." + d.QuoteIdent(t.Name)
}

func (d *MySQLDialect) RenderColumnType(attr model.Attribute) string {
	switch attr.DataType {
	case model.TypeString:
		return fmt.Sprintf("VARCHAR(%d)", lengthOr(attr, 255))
	case model.TypeText:
		return "TEXT"
	case model.TypeInteger:
		return "INT"
	case model.TypeBigInt:
		return "BIGINT"
	case model.TypeDecimal:
		p, s := precisionOr(attr, 18, 2)
		return fmt.Sprintf("DECIMAL(%d, %d)", p, s)
	case model.TypeBool:
		return "TINYINT(1)"
	case model.TypeDate:
		return "DATE"
	case model.TypeDateTime:
		return "DATETIME"
	case model.TypeUUID:
		return "CHAR(36)"
	case model.TypeBinary:
		if attr.Length > 0 {
			return fmt.Sprintf("VARBINARY(%d)", attr.Length)
		}
		return "BLOB"
	default:
		return "VARCHAR(255)"
	}
}

func (d *MySQLDialect) RenderCreateTable(t model.TableName, attrs []model.Attribute, fks []ForeignKeyClause) string {
	return buildCreateTable(d, t, attrs, fks, func(a model.Attribute) string {
		if a.IsIdentity {
			return " AUTO_INCREMENT"
		}
		return ""
	})
}

func (d *MySQLDialect) RenderCreateIndex(t model.TableName, idx model.Index) string {
	return buildCreateIndex(d, t, idx)
}

func (d *MySQLDialect) RenderInsert(t model.TableName, columns []string, rows [][]string) string {
	return buildInsert(d, t, columns, rows)
}

func (d *MySQLDialect) RenderUpdate(t model.TableName, set []ColumnValue, where []ColumnValue) string {
	return buildUpdate(d, t, set, where)
}

func (d *MySQLDialect) RenderDelete(t model.TableName) string {
	return "DELETE FROM " + d.QuoteTable(t) + ";"
}

// Foreign key checking is a session setting in MySQL, so the wrap is a
// single statement regardless of how many tables load.
func (d *MySQLDialect) RenderDisableConstraints(_ []model.TableName) []string {
	return []string{"SET FOREIGN_KEY_CHECKS = 0;"}
}

func (d *MySQLDialect) RenderEnableConstraints(_ []model.TableName) []string {
	return []string{"SET FOREIGN_KEY_CHECKS = 1;"}
}

func (d *MySQLDialect) Literal(val interface{}) string {
	style := literalStyle{
		quoteString: func(s string) string {
			s = strings.ReplaceAll(s, `\`, `\\`)
			return "'" + escapeQuotes(s) + "'"
		},
		renderBool:   numericBool,
		renderBinary: hexBinary,
		timeLayout:   "2006-01-02 15:04:05",
	}
	return style.render(val)
}
