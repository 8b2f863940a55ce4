package sqlgen

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/depgraph"
	"github.com/keelson-db/keelson/internal/model"
)

// Script is one generated SQL file.
type Script struct {
	Name    string
	Content string
}

// DDLProject is the table-creation artifact set: one script per table
// in dependency order plus a combined install script.
type DDLProject struct {
	Files   []Script
	Install string
}

// WriteDDL renders CREATE TABLE and CREATE INDEX scripts for every
// ordered table. Foreign keys are emitted inline; when the order could
// not satisfy a constraint, the affected files and the install script
// carry a warning banner so the defect is visible in the artifact
// itself, not only in the logs.
func WriteDDL(d Dialect, m *model.Model, order []depgraph.TableNode, resolve model.NameResolver, validation depgraph.ValidationResult) DDLProject {
	if resolve == nil {
		resolve = model.DefaultResolver()
	}

	flagged := make(map[model.TableName]bool)
	for _, c := range validation.Cycles {
		for _, t := range c.Tables {
			flagged[t] = true
		}
	}

	var project DDLProject
	var install strings.Builder
	install.WriteString(commentBlock(
		"keelson install script",
		fmt.Sprintf("model %s version %s, provider %s", m.Name, m.Version, d.Name()),
		fmt.Sprintf("%d tables in dependency order", len(order)),
	))
	install.WriteString("\n")
	if !validation.Valid {
		install.WriteString(validationBanner(validation))
		install.WriteString("\n")
	}

	var indexes []string
	for i, node := range order {
		entity := m.EntityByName(node.Name)
		if entity == nil {
			continue
		}

		create := d.RenderCreateTable(node.Table, entity.Attributes, foreignKeyClauses(m, entity, resolve))

		var file strings.Builder
		if flagged[node.Table] {
			file.WriteString(cycleBanner(node.Table, validation.Cycles))
			file.WriteString("\n")
		}
		file.WriteString(create)
		file.WriteString("\n")
		for _, idx := range entity.Indexes {
			stmt := d.RenderCreateIndex(node.Table, idx)
			file.WriteString(stmt)
			file.WriteString("\n")
			indexes = append(indexes, stmt)
		}

		project.Files = append(project.Files, Script{
			Name:    fmt.Sprintf("%03d_%s.%s.sql", i+1, node.Table.Schema, node.Table.Name),
			Content: file.String(),
		})

		install.WriteString(create)
		install.WriteString("\n\n")
	}

	if len(indexes) > 0 {
		install.WriteString(commentBlock("indexes"))
		install.WriteString("\n")
		for _, stmt := range indexes {
			install.WriteString(stmt)
			install.WriteString("\n")
		}
	}

	project.Install = install.String()
	return project
}

// foreignKeyClauses collects the constraints an entity owns, resolved
// to effective parent names. DDL declares every modeled constraint with
// valid column pairs; hydration status matters for ordering, not for
// what the schema contains.
func foreignKeyClauses(m *model.Model, entity *model.Entity, resolve model.NameResolver) []ForeignKeyClause {
	var fks []ForeignKeyClause
	for _, rel := range m.RelationshipsFrom(entity.Name) {
		if len(rel.Constraints) == 0 {
			continue
		}
		target := m.EntityByName(rel.TargetEntity)
		if target == nil {
			continue
		}
		clause := ForeignKeyClause{
			Name:       rel.Name,
			RefTable:   resolve(target.Schema, target.Name, target.LogicalName, target.Module),
			DeleteRule: rel.DeleteRule,
		}
		valid := true
		for _, pair := range rel.Constraints {
			if entity.Attribute(pair.OwnerColumn) == nil || target.Attribute(pair.ReferencedColumn) == nil {
				valid = false
				break
			}
			clause.Columns = append(clause.Columns, pair.OwnerColumn)
			clause.RefColumns = append(clause.RefColumns, pair.ReferencedColumn)
		}
		if valid {
			fks = append(fks, clause)
		}
	}
	return fks
}
