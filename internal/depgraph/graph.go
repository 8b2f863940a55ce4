// Package depgraph computes the dependency order of modeled tables from
// their verified foreign key constraints. Sorting never fails: cycles
// are detected, resolved or worked around, and everything noteworthy is
// reported through the returned result instead of logging or errors.
package depgraph

import (
	"github.com/keelson-db/keelson/internal/model"
)

// TableNode is one table in the dependency graph. Table is the
// effective physical name after naming rules; the modeled identity is
// kept alongside for reporting.
type TableNode struct {
	Table       model.TableName
	Schema      string
	Name        string
	LogicalName string
	Module      string
	IsJunction  bool
}

// Edge is a verified foreign key from a child table to its parent.
// Pairs carries the column pairs of composite keys in declaration order.
type Edge struct {
	Constraint string
	From       model.TableName
	To         model.TableName
	FromID     int
	ToID       int
	Pairs      []model.RelationshipConstraint
	Nullable   bool
	DeleteRule string
}

// Weak reports whether the edge can be deferred: the owning columns are
// nullable and deletes do not cascade through it. Weak edges are the
// only ones the resolver may break.
func (e Edge) Weak() bool {
	return e.Nullable && e.DeleteRule != model.DeleteCascade
}

// SelfLoop reports whether the edge references its own table.
func (e Edge) SelfLoop() bool {
	return e.FromID == e.ToID
}

// Graph is an immutable dependency graph over table nodes. Edge
// direction is child to parent; a table with no foreign keys has no
// outgoing edges. SkippedCount records relationships that never became
// edges (unverified, unresolvable or without valid column pairs).
type Graph struct {
	Nodes        []TableNode
	Edges        []Edge
	SkippedCount int

	index map[model.TableName]int
}

// NodeID resolves an effective table name to its node id.
func (g *Graph) NodeID(t model.TableName) (int, bool) {
	id, ok := g.index[t]
	return id, ok
}

// adjacency builds parent lists and in-degrees for the subset of edges
// the keep filter accepts. Self-loops never contribute: a table cannot
// be ordered relative to itself. Parallel edges between the same pair
// collapse to a single dependency.
func (g *Graph) adjacency(keep func(int, Edge) bool) (parents [][]int, children [][]int, indeg []int) {
	n := len(g.Nodes)
	parents = make([][]int, n)
	children = make([][]int, n)
	indeg = make([]int, n)

	seen := make(map[[2]int]bool, len(g.Edges))
	for i, e := range g.Edges {
		if e.SelfLoop() {
			continue
		}
		if keep != nil && !keep(i, e) {
			continue
		}
		key := [2]int{e.FromID, e.ToID}
		if seen[key] {
			continue
		}
		seen[key] = true
		parents[e.FromID] = append(parents[e.FromID], e.ToID)
		children[e.ToID] = append(children[e.ToID], e.FromID)
		indeg[e.FromID]++
	}
	return parents, children, indeg
}
