package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

// PhasedScript is the rendered two-phase bootstrap load. Phase1 inserts
// every row with deferred foreign key columns forced to NULL; Phase2
// backfills those columns once all referenced rows exist.
// RequiresPhasing is true only when Phase2 actually changes a value, so
// an all-NULL deferred column never forces the second phase.
type PhasedScript struct {
	Phase1          []string
	Phase2          []string
	Preamble        []string
	Postamble       []string
	RequiresPhasing bool
}

// ToScript renders both phases as one text blob with comment banners.
func (s *PhasedScript) ToScript() string {
	var b strings.Builder

	b.WriteString(commentBlock(
		"keelson bootstrap snapshot",
		fmt.Sprintf("phased loading required: %t", s.RequiresPhasing),
	))
	b.WriteString("\n")

	for _, stmt := range s.Preamble {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	if len(s.Preamble) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(commentBlock("phase 1: inserts, deferred foreign key columns set to NULL"))
	for _, stmt := range s.Phase1 {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s.RequiresPhasing {
		b.WriteString(commentBlock("phase 2: backfill deferred foreign key columns"))
		for _, stmt := range s.Phase2 {
			b.WriteString(stmt)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, stmt := range s.Postamble {
		b.WriteString(stmt)
		b.WriteString("\n")
	}

	return b.String()
}

// WriteBootstrap renders the first-deployment snapshot from a phased
// plan: all entities, static and dynamic, in the mandatory-edge order.
// A deferred column on a table without a primary key is fatal, since
// phase two has no way to address the rows it must update.
func WriteBootstrap(d Dialect, m *model.Model, plan *depgraph.PhasedPlan, batchSize int) (*PhasedScript, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	script := &PhasedScript{}
	var loaded []model.TableName

	for _, node := range plan.Order {
		entity := m.EntityByName(node.Name)
		if entity == nil {
			continue
		}
		rows := m.Datasets[entity.Name]
		if len(rows) == 0 {
			continue
		}
		loaded = append(loaded, node.Table)

		deferred := make(map[string]bool)
		for _, col := range plan.DeferredFor(node.Table) {
			deferred[strings.ToLower(col.Column)] = true
		}

		script.Phase1 = append(script.Phase1,
			insertStatements(d, node.Table, entity, rows, deferred, batchSize)...)

		updates, err := backfillStatements(d, node.Table, entity, rows, deferred)
		if err != nil {
			return nil, err
		}
		if len(updates) > 0 {
			script.Phase2 = append(script.Phase2, updates...)
			script.RequiresPhasing = true
		}
	}

	script.Preamble = d.RenderDisableConstraints(loaded)
	script.Postamble = d.RenderEnableConstraints(loaded)
	return script, nil
}

// backfillStatements renders one UPDATE per row per deferred column
// that holds an actual value. Rows where the deferred column is NULL
// anyway need no backfill. Deferred keys are lowercase column names;
// columns emit in attribute order for stable output.
func backfillStatements(d Dialect, t model.TableName, entity *model.Entity, rows []model.Row, deferred map[string]bool) ([]string, error) {
	if len(deferred) == 0 {
		return nil, nil
	}

	var columns []string
	for _, a := range entity.Attributes {
		if deferred[strings.ToLower(a.Name)] {
			columns = append(columns, a.Name)
		}
	}

	pk := entity.PrimaryKey()
	var statements []string

	for _, row := range rows {
		for _, column := range columns {
			value := rowValue(row, column)
			if value == nil {
				continue
			}
			if len(pk) == 0 {
				return nil, fmt.Errorf("table %s needs column %s backfilled but has no primary key to address rows",
					t.Qualified(), column)
			}
			where := make([]ColumnValue, len(pk))
			for i, key := range pk {
				where[i] = ColumnValue{Column: key.Name, Value: d.Literal(rowValue(row, key.Name))}
			}
			statements = append(statements, d.RenderUpdate(t,
				[]ColumnValue{{Column: column, Value: d.Literal(value)}}, where))
		}
	}

	return statements, nil
}
