// Package sqlserver reads table and foreign key metadata from SQL
// Server through the sys.* catalog views.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/keelson-db/keelson/internal/model"
	"github.com/keelson-db/keelson/internal/types"
)

type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("sqlserver", url)
	if err != nil {
		return fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to reach sqlserver: %w", err)
	}
	a.db = db
	return nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) ListTables(ctx context.Context) ([]types.TableRecord, error) {
	query := `
	SET NOCOUNT ON;
	SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name
	FROM sys.tables t
	WHERE t.is_ms_shipped = 0
	ORDER BY table_schema, table_name
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.TableRecord
	for rows.Next() {
		var t types.TableRecord
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table rows: %w", err)
	}

	a.logger.Debug("discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

// ListForeignKeys joins sys.foreign_keys with its column pairs, the
// delete action and the owning column's nullability.
func (a *Adapter) ListForeignKeys(ctx context.Context) ([]types.ForeignKeyRecord, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    fk.name AS constraint_name,
	    SCHEMA_NAME(pt.schema_id) AS source_schema,
	    OBJECT_NAME(fk.parent_object_id) AS source_table,
	    COL_NAME(fkc.parent_object_id, fkc.parent_column_id) AS source_column,
	    SCHEMA_NAME(rt.schema_id) AS target_schema,
	    OBJECT_NAME(fk.referenced_object_id) AS target_table,
	    COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) AS target_column,
	    c.is_nullable,
	    fk.delete_referential_action_desc
	FROM sys.foreign_keys fk
	INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
	INNER JOIN sys.tables pt ON fk.parent_object_id = pt.object_id
	INNER JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
	INNER JOIN sys.columns c ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
	WHERE fk.is_ms_shipped = 0
	ORDER BY source_schema, source_table, fk.name, fkc.constraint_column_id
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []types.ForeignKeyRecord
	for rows.Next() {
		var fk types.ForeignKeyRecord
		var deleteRule string
		if err := rows.Scan(
			&fk.Constraint,
			&fk.SourceSchema,
			&fk.SourceTable,
			&fk.SourceColumn,
			&fk.TargetSchema,
			&fk.TargetTable,
			&fk.TargetColumn,
			&fk.IsNullable,
			&deleteRule,
		); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key row: %w", err)
		}
		fk.DeleteRule = model.NormalizeDeleteRule(deleteRule)
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate foreign key rows: %w", err)
	}

	a.logger.Debug("discovered foreign keys", zap.Int("count", len(fks)))
	return fks, nil
}
