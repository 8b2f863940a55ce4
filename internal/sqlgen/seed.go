package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

// DefaultBatchSize caps how many rows share one INSERT statement.
const DefaultBatchSize = 100

// SeedScripts is the static reference-data artifact set: one
// re-runnable script per static entity plus a combined script that
// clears children before parents and reloads in dependency order.
type SeedScripts struct {
	Files    []Script
	Combined string
}

// WriteSeeds renders DELETE-then-INSERT seed scripts for the static
// entities present in the order. Deletes run in reverse dependency
// order so child rows disappear before the parents they reference.
func WriteSeeds(d Dialect, m *model.Model, order []depgraph.TableNode, batchSize int) SeedScripts {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	type staticTable struct {
		node   depgraph.TableNode
		entity *model.Entity
	}
	var statics []staticTable
	for _, node := range order {
		entity := m.EntityByName(node.Name)
		if entity != nil && entity.IsStatic {
			statics = append(statics, staticTable{node: node, entity: entity})
		}
	}

	var scripts SeedScripts
	var combined strings.Builder
	combined.WriteString(commentBlock(
		"keelson seed script",
		fmt.Sprintf("%d static entities, children cleared before parents", len(statics)),
	))
	combined.WriteString("\n")

	for i := len(statics) - 1; i >= 0; i-- {
		combined.WriteString(d.RenderDelete(statics[i].node.Table))
		combined.WriteString("\n")
	}
	combined.WriteString("\n")

	for i, st := range statics {
		rows := m.Datasets[st.entity.Name]
		inserts := insertStatements(d, st.node.Table, st.entity, rows, nil, batchSize)

		var file strings.Builder
		file.WriteString(d.RenderDelete(st.node.Table))
		file.WriteString("\n")
		for _, stmt := range inserts {
			file.WriteString(stmt)
			file.WriteString("\n")
			combined.WriteString(stmt)
			combined.WriteString("\n")
		}

		scripts.Files = append(scripts.Files, Script{
			Name:    fmt.Sprintf("%03d_%s.%s.sql", i+1, st.node.Table.Schema, st.node.Table.Name),
			Content: file.String(),
		})
	}

	scripts.Combined = combined.String()
	return scripts
}

// insertStatements renders batched multi-row inserts for one table.
// Columns are the entity's attributes that actually occur in the data,
// in attribute order; deferred columns render as NULL.
func insertStatements(d Dialect, t model.TableName, entity *model.Entity, rows []model.Row, deferred map[string]bool, batchSize int) []string {
	if len(rows) == 0 {
		return nil
	}

	columns := presentColumns(entity, rows)
	if len(columns) == 0 {
		return nil
	}

	var statements []string
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([][]string, 0, end-start)
		for _, row := range rows[start:end] {
			batch = append(batch, renderRow(d, columns, row, deferred))
		}
		statements = append(statements, d.RenderInsert(t, columns, batch))
	}
	return statements
}

// presentColumns keeps the attributes at least one row assigns a value
// to. Absent columns fall to their defaults, and identity columns stay
// out of the column list unless the data pins them.
func presentColumns(entity *model.Entity, rows []model.Row) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			present[strings.ToLower(key)] = true
		}
	}

	var columns []string
	for _, a := range entity.Attributes {
		if present[strings.ToLower(a.Name)] {
			columns = append(columns, a.Name)
		}
	}
	return columns
}
