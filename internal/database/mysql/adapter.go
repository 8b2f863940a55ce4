// Package mysql reads table and foreign key metadata from MySQL
// through information_schema.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
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
	db, err := sql.Open("mysql", url)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to reach mysql: %w", err)
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
	SELECT TABLE_SCHEMA, TABLE_NAME
	FROM information_schema.TABLES
	WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = DATABASE()
	ORDER BY TABLE_SCHEMA, TABLE_NAME
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

func (a *Adapter) ListForeignKeys(ctx context.Context) ([]types.ForeignKeyRecord, error) {
	query := `
	SELECT
	    kcu.CONSTRAINT_NAME,
	    kcu.TABLE_SCHEMA,
	    kcu.TABLE_NAME,
	    kcu.COLUMN_NAME,
	    kcu.REFERENCED_TABLE_SCHEMA,
	    kcu.REFERENCED_TABLE_NAME,
	    kcu.REFERENCED_COLUMN_NAME,
	    c.IS_NULLABLE = 'YES',
	    rc.DELETE_RULE
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
	    ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
	    AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
	JOIN information_schema.COLUMNS c
	    ON c.TABLE_SCHEMA = kcu.TABLE_SCHEMA
	    AND c.TABLE_NAME = kcu.TABLE_NAME
	    AND c.COLUMN_NAME = kcu.COLUMN_NAME
	WHERE kcu.TABLE_SCHEMA = DATABASE()
	    AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	ORDER BY kcu.TABLE_SCHEMA, kcu.TABLE_NAME, kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
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
