package depgraph

import (
	"fmt"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// Build constructs the dependency graph for the given entities and
// relationships. Effective table names come from the injected resolver;
// the zero resolver keeps modeled names. Relationships are skipped, and
// counted, when they are not backed by a verified database constraint,
// when either end does not resolve to a known entity, or when a column
// pair names an attribute the entity does not have. The only failure is
// two entities resolving to the same effective name.
func Build(entities []model.Entity, relationships []model.Relationship, resolve model.NameResolver) (*Graph, error) {
	if resolve == nil {
		resolve = model.DefaultResolver()
	}

	g := &Graph{
		Nodes: make([]TableNode, 0, len(entities)),
		index: make(map[model.TableName]int, len(entities)),
	}

	byEntity := make(map[string]int, len(entities))
	for _, e := range entities {
		effective := resolve(e.Schema, e.Name, e.LogicalName, e.Module)
		if prev, ok := g.index[effective]; ok {
			return nil, fmt.Errorf("entities %s and %s both resolve to table %s",
				g.Nodes[prev].Name, e.Name, effective.Qualified())
		}
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, TableNode{
			Table:       effective,
			Schema:      e.Schema,
			Name:        e.Name,
			LogicalName: e.LogicalName,
			Module:      e.Module,
		})
		g.index[effective] = id
		if _, exists := byEntity[strings.ToLower(e.Name)]; !exists {
			byEntity[strings.ToLower(e.Name)] = id
		}
	}

	entityAt := func(name string) (model.Entity, int, bool) {
		id, ok := byEntity[strings.ToLower(name)]
		if !ok {
			return model.Entity{}, 0, false
		}
		return entities[id], id, true
	}

	for _, rel := range relationships {
		if !rel.HasDatabaseConstraint || len(rel.Constraints) == 0 {
			g.SkippedCount++
			continue
		}

		source, fromID, ok := entityAt(rel.SourceEntity)
		if !ok {
			g.SkippedCount++
			continue
		}
		target, toID, ok := entityAt(rel.TargetEntity)
		if !ok {
			g.SkippedCount++
			continue
		}

		nullable := true
		valid := true
		for _, pair := range rel.Constraints {
			owner := source.Attribute(pair.OwnerColumn)
			if owner == nil || target.Attribute(pair.ReferencedColumn) == nil {
				valid = false
				break
			}
			if !owner.Nullable {
				nullable = false
			}
		}
		if !valid {
			g.SkippedCount++
			continue
		}

		g.Edges = append(g.Edges, Edge{
			Constraint: rel.Name,
			From:       g.Nodes[fromID].Table,
			To:         g.Nodes[toID].Table,
			FromID:     fromID,
			ToID:       toID,
			Pairs:      rel.Constraints,
			Nullable:   nullable,
			DeleteRule: model.NormalizeDeleteRule(rel.DeleteRule),
		})
	}

	markJunctions(g, entities, byEntity)
	return g, nil
}

// markJunctions flags pure link tables: every attribute outside the
// primary key is the owning column of some edge, and the edges reach at
// least two distinct parent tables.
func markJunctions(g *Graph, entities []model.Entity, byEntity map[string]int) {
	owned := make(map[int]map[string]bool)
	parents := make(map[int]map[int]bool)
	for _, e := range g.Edges {
		if owned[e.FromID] == nil {
			owned[e.FromID] = make(map[string]bool)
			parents[e.FromID] = make(map[int]bool)
		}
		for _, pair := range e.Pairs {
			owned[e.FromID][strings.ToLower(pair.OwnerColumn)] = true
		}
		parents[e.FromID][e.ToID] = true
	}

	for _, e := range entities {
		id, ok := byEntity[strings.ToLower(e.Name)]
		if !ok || len(parents[id]) < 2 {
			continue
		}
		junction := true
		for _, a := range e.Attributes {
			if a.IsPrimaryKey {
				continue
			}
			if !owned[id][strings.ToLower(a.Name)] {
				junction = false
				break
			}
		}
		g.Nodes[id].IsJunction = junction
	}
}
