package sqlgen

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keelson-db/keelson/internal/model"
)

// literalStyle captures the pieces of literal rendering that providers
// disagree on. Everything else is shared.
type literalStyle struct {
	quoteString  func(string) string
	renderBool   func(bool) string
	renderBinary func([]byte) string
	timeLayout   string
}

func (s literalStyle) render(val interface{}) string {
	if val == nil {
		return "NULL"
	}
	switch v := val.(type) {
	case string:
		return s.quoteString(v)
	case bool:
		return s.renderBool(v)
	case json.Number:
		return v.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	case time.Time:
		return s.quoteString(v.Format(s.timeLayout))
	case uuid.UUID:
		return s.quoteString(v.String())
	case []byte:
		return s.renderBinary(v)
	default:
		return s.quoteString(fmt.Sprintf("%v", v))
	}
}

// escapeQuotes doubles embedded single quotes, the escape every
// supported provider agrees on.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func numericBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func wordBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// renderRow renders one dataset row into column-ordered literals,
// forcing NULL where a column is listed as deferred. Deferred keys are
// lowercase column names.
func renderRow(d Dialect, columns []string, row model.Row, deferred map[string]bool) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		if deferred[strings.ToLower(col)] {
			out[i] = "NULL"
			continue
		}
		out[i] = d.Literal(rowValue(row, col))
	}
	return out
}

// rowValue looks a column up case-insensitively, the way attribute
// names are matched everywhere else.
func rowValue(row model.Row, column string) interface{} {
	if v, ok := row[column]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return nil
}
