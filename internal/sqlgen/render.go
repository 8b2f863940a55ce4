package sqlgen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// The statement shapes below are identical across providers once
// identifiers, types and literals are delegated to the dialect; only
// the identity keyword needs injecting per provider.

func buildCreateTable(d Dialect, t model.TableName, attrs []model.Attribute, fks []ForeignKeyClause, identity func(model.Attribute) string) string {
	var lines []string

	for _, a := range attrs {
		line := "    " + d.QuoteIdent(a.Name) + " " + d.RenderColumnType(a) + identity(a)
		if a.Nullable {
			line += " NULL"
		} else {
			line += " NOT NULL"
		}
		if a.Default != "" {
			line += " DEFAULT " + a.Default
		}
		lines = append(lines, line)
	}

	var pk []string
	for _, a := range attrs {
		if a.IsPrimaryKey {
			pk = append(pk, d.QuoteIdent(a.Name))
		}
	}
	if len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			d.QuoteIdent("PK_"+t.Name), strings.Join(pk, ", ")))
	}

	for _, a := range attrs {
		if a.IsUnique && !a.IsPrimaryKey {
			lines = append(lines, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)",
				d.QuoteIdent("UQ_"+t.Name+"_"+a.Name), d.QuoteIdent(a.Name)))
		}
	}

	for _, fk := range fks {
		cols := make([]string, len(fk.Columns))
		for i, c := range fk.Columns {
			cols[i] = d.QuoteIdent(c)
		}
		refCols := make([]string, len(fk.RefColumns))
		for i, c := range fk.RefColumns {
			refCols[i] = d.QuoteIdent(c)
		}
		line := fmt.Sprintf("    CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(fk.Name), strings.Join(cols, ", "), d.QuoteTable(fk.RefTable), strings.Join(refCols, ", "))
		if fk.DeleteRule != "" && fk.DeleteRule != model.DeleteNoAction {
			line += " ON DELETE " + fk.DeleteRule
		}
		lines = append(lines, line)
	}

	return "CREATE TABLE " + d.QuoteTable(t) + " (\n" + strings.Join(lines, ",\n") + "\n);"
}

func buildCreateIndex(d Dialect, t model.TableName, idx model.Index) string {
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = d.QuoteIdent(c)
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		unique, d.QuoteIdent(idx.Name), d.QuoteTable(t), strings.Join(cols, ", "))
}

func buildInsert(d Dialect, t model.TableName, columns []string, rows [][]string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = "    (" + strings.Join(row, ", ") + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s)\nVALUES\n%s;",
		d.QuoteTable(t), strings.Join(quoted, ", "), strings.Join(values, ",\n"))
}

func buildUpdate(d Dialect, t model.TableName, set []ColumnValue, where []ColumnValue) string {
	sets := make([]string, len(set))
	for i, cv := range set {
		sets[i] = d.QuoteIdent(cv.Column) + " = " + cv.Value
	}
	conds := make([]string, len(where))
	for i, cv := range where {
		conds[i] = d.QuoteIdent(cv.Column) + " = " + cv.Value
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		d.QuoteTable(t), strings.Join(sets, ", "), strings.Join(conds, " AND "))
}

func lengthOr(attr model.Attribute, fallback int) int {
	if attr.Length > 0 {
		return attr.Length
	}
	return fallback
}

func precisionOr(attr model.Attribute, p, s int) (int, int) {
	if attr.Precision > 0 {
		p = attr.Precision
		s = attr.Scale
	}
	return p, s
}

func hexBinary(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}
