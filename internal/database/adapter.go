// Package database connects to live target databases and reads the
// foreign key constraints they actually enforce. Hydration never
// mutates the target; it exists so the ordering engine only trusts
// relationships a real database has verified.
package database

import (
	"context"
	"fmt"

	"github.com/keelson-db/keelson/internal/database/mysql"
	"github.com/keelson-db/keelson/internal/database/postgres"
	"github.com/keelson-db/keelson/internal/database/sqlserver"
	"github.com/keelson-db/keelson/internal/types"
	"go.uber.org/zap"
)

// MetadataAdapter reads catalog metadata from one provider.
type MetadataAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	ListTables(ctx context.Context) ([]types.TableRecord, error)
	ListForeignKeys(ctx context.Context) ([]types.ForeignKeyRecord, error)
}

// NewAdapter returns the adapter for a provider name. A nil logger is
// replaced with a no-op logger by each adapter.
func NewAdapter(provider string, logger *zap.Logger) (MetadataAdapter, error) {
	switch provider {
	case "sqlserver", "mssql":
		return sqlserver.New(logger), nil
	case "postgresql", "postgres":
		return postgres.New(logger), nil
	case "mysql":
		return mysql.New(logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
