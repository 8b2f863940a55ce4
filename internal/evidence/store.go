package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/keelson-db/keelson/internal/model"
)

// DefaultPath is where the cache lives relative to the project root.
const DefaultPath = ".keelson/evidence.db"

// Store is the on-disk evidence cache. Hydration writes verified
// constraints into it; generation reads them back to mark
// relationships as database-backed.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS verified_constraints (
    model_name      TEXT NOT NULL,
    relationship_id TEXT NOT NULL,
    constraint_name TEXT NOT NULL,
    provider        TEXT NOT NULL,
    delete_rule     TEXT NOT NULL,
    is_nullable     INTEGER NOT NULL,
    verified_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (model_name, relationship_id)
);`

// Open opens (creating if needed) the cache at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create evidence directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize evidence cache: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record upserts one verified constraint. Re-hydrating refreshes the
// stored catalog facts and the timestamp.
func (s *Store) Record(ctx context.Context, modelName, provider string, m Match) error {
	query := `
	INSERT INTO verified_constraints
	    (model_name, relationship_id, constraint_name, provider, delete_rule, is_nullable, verified_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (model_name, relationship_id) DO UPDATE SET
	    constraint_name = excluded.constraint_name,
	    provider = excluded.provider,
	    delete_rule = excluded.delete_rule,
	    is_nullable = excluded.is_nullable,
	    verified_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query,
		modelName, m.Relationship.ID.String(), m.Constraint, provider, m.DeleteRule, m.Nullable)
	if err != nil {
		return fmt.Errorf("failed to record evidence for %s: %w", m.Relationship.Name, err)
	}
	return nil
}

// Apply marks every relationship with recorded evidence as verified
// and overwrites its delete rule with the catalog fact. Returns how
// many relationships were hydrated.
func (s *Store) Apply(ctx context.Context, m *model.Model) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT relationship_id, delete_rule FROM verified_constraints WHERE model_name = ?`, m.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to read evidence cache: %w", err)
	}
	defer rows.Close()

	rules := make(map[string]string)
	for rows.Next() {
		var id, rule string
		if err := rows.Scan(&id, &rule); err != nil {
			return 0, fmt.Errorf("failed to scan evidence row: %w", err)
		}
		rules[id] = rule
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate evidence rows: %w", err)
	}

	applied := 0
	for i := range m.Relationships {
		rel := &m.Relationships[i]
		rule, ok := rules[rel.ID.String()]
		if !ok {
			continue
		}
		rel.HasDatabaseConstraint = true
		rel.DeleteRule = model.NormalizeDeleteRule(rule)
		applied++
	}
	return applied, nil
}
