// Package postgres reads table and foreign key metadata from
// PostgreSQL through information_schema and pg_catalog.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/keelson-db/keelson/internal/model"
	"github.com/keelson-db/keelson/internal/types"
)

type Adapter struct {
	pool   *pgxpool.Pool
	qb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func New(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 2
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to reach postgres: %w", err)
	}
	a.pool = pool
	return nil
}

func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *Adapter) ListTables(ctx context.Context) ([]types.TableRecord, error) {
	query, args, err := a.qb.
		Select("table_schema", "table_name").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_type": "BASE TABLE"}).
		Where(squirrel.NotEq{"table_schema": []string{"pg_catalog", "information_schema"}}).
		OrderBy("table_schema", "table_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build table query: %w", err)
	}

	rows, err := a.pool.Query(ctx, query, args...)
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

// ListForeignKeys walks pg_constraint directly: information_schema
// splits composite keys across views in ways that lose the column
// pairing, while conkey/confkey keep the pairs aligned.
func (a *Adapter) ListForeignKeys(ctx context.Context) ([]types.ForeignKeyRecord, error) {
	query := `
	SELECT
	    con.conname AS constraint_name,
	    src_ns.nspname AS source_schema,
	    src.relname AS source_table,
	    src_col.attname AS source_column,
	    tgt_ns.nspname AS target_schema,
	    tgt.relname AS target_table,
	    tgt_col.attname AS target_column,
	    NOT src_col.attnotnull AS is_nullable,
	    CASE con.confdeltype
	        WHEN 'c' THEN 'CASCADE'
	        WHEN 'n' THEN 'SET NULL'
	        WHEN 'd' THEN 'SET DEFAULT'
	        ELSE 'NO ACTION'
	    END AS delete_rule
	FROM pg_constraint con
	JOIN pg_class src ON src.oid = con.conrelid
	JOIN pg_namespace src_ns ON src_ns.oid = src.relnamespace
	JOIN pg_class tgt ON tgt.oid = con.confrelid
	JOIN pg_namespace tgt_ns ON tgt_ns.oid = tgt.relnamespace
	JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS pair(src_attnum, tgt_attnum, ord) ON true
	JOIN pg_attribute src_col ON src_col.attrelid = src.oid AND src_col.attnum = pair.src_attnum
	JOIN pg_attribute tgt_col ON tgt_col.attrelid = tgt.oid AND tgt_col.attnum = pair.tgt_attnum
	WHERE con.contype = 'f'
	ORDER BY source_schema, source_table, constraint_name, pair.ord
	`
	rows, err := a.pool.Query(ctx, query)
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
