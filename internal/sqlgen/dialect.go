// Package sqlgen renders the ordered model into deployable SQL text.
// Writers produce strings only; putting them on disk is the bundle
// package's job.
package sqlgen

import (
	"fmt"

	"github.com/keelson-db/keelson/internal/model"
)

// Supported target providers.
const (
	ProviderSQLServer = "sqlserver"
	ProviderPostgres  = "postgres"
	ProviderMySQL     = "mysql"
)

// ForeignKeyClause is one table-level constraint rendered into a CREATE
// TABLE statement.
type ForeignKeyClause struct {
	Name       string
	Columns    []string
	RefTable   model.TableName
	RefColumns []string
	DeleteRule string
}

// ColumnValue pairs a column name with an already-rendered SQL literal.
type ColumnValue struct {
	Column string
	Value  string
}

// Dialect renders provider-specific SQL. Implementations are stateless
// and safe to share across writers.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	QuoteTable(t model.TableName) string
	RenderColumnType(attr model.Attribute) string
	RenderCreateTable(t model.TableName, attrs []model.Attribute, fks []ForeignKeyClause) string
	RenderCreateIndex(t model.TableName, idx model.Index) string
	RenderInsert(t model.TableName, columns []string, rows [][]string) string
	RenderUpdate(t model.TableName, set []ColumnValue, where []ColumnValue) string
	RenderDelete(t model.TableName) string
	RenderDisableConstraints(tables []model.TableName) []string
	RenderEnableConstraints(tables []model.TableName) []string
	Literal(val interface{}) string
}

// ForProvider returns the dialect for a provider name.
func ForProvider(provider string) (Dialect, error) {
	switch provider {
	case ProviderSQLServer, "mssql":
		return &SQLServerDialect{}, nil
	case ProviderPostgres, "postgresql":
		return &PostgresDialect{}, nil
	case ProviderMySQL:
		return &MySQLDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
