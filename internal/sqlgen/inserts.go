package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

// WriteInserts renders bulk row-insert scripts for the non-static
// entities with dataset rows, one file per entity in dependency order.
func WriteInserts(d Dialect, m *model.Model, order []depgraph.TableNode, batchSize int) []Script {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var scripts []Script
	seq := 0
	for _, node := range order {
		entity := m.EntityByName(node.Name)
		if entity == nil || entity.IsStatic {
			continue
		}
		rows := m.Datasets[entity.Name]
		if len(rows) == 0 {
			continue
		}
		seq++

		var file strings.Builder
		file.WriteString(commentBlock(fmt.Sprintf("%s: %d rows", node.Table.Qualified(), len(rows))))
		for _, stmt := range insertStatements(d, node.Table, entity, rows, nil, batchSize) {
			file.WriteString(stmt)
			file.WriteString("\n")
		}

		scripts = append(scripts, Script{
			Name:    fmt.Sprintf("%03d_%s.%s.sql", seq, node.Table.Schema, node.Table.Name),
			Content: file.String(),
		})
	}
	return scripts
}
