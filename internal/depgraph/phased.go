package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/keelson-db/keelson/internal/model"
)

// ErrUnbreakableCycle means tables reference each other through
// mandatory foreign keys only, so no insert order can satisfy the
// constraints and no column can be deferred. Phased generation is the
// one place where a cycle is fatal.
var ErrUnbreakableCycle = errors.New("cycle cannot be broken for phased loading")

// DeferredColumn is a foreign key column that phase one loads as NULL
// and phase two backfills.
type DeferredColumn struct {
	Column       string
	Constraint   string
	Parent       model.TableName
	ParentColumn string
}

// PhasedPlan is a two-phase load: Order satisfies every mandatory
// foreign key, Deferred lists the columns each table must leave NULL
// until its parents exist. RequiresPhasing reports whether any column
// is deferred at all; whether phase two actually emits updates depends
// on the data and is decided at render time.
type PhasedPlan struct {
	Order           []TableNode
	Deferred        map[model.TableName][]DeferredColumn
	RequiresPhasing bool
}

// DeferredFor returns the deferred columns of one table.
func (p *PhasedPlan) DeferredFor(t model.TableName) []DeferredColumn {
	return p.Deferred[t]
}

// IsDeferred reports whether a specific column of a table is deferred.
func (p *PhasedPlan) IsDeferred(t model.TableName, column string) bool {
	for _, d := range p.Deferred[t] {
		if d.Column == column {
			return true
		}
	}
	return false
}

// PlanPhases computes the bulk-load plan. Mandatory edges alone decide
// the order; weak edges the order happens to violate, and weak
// self-references, become deferred columns. A cycle of mandatory edges
// is fatal unless a configured override with an explicit order covers
// it exactly.
func PlanPhases(g *Graph, opts SortOptions) (*PhasedPlan, error) {
	skip := make(map[int]bool)
	for i, e := range g.Edges {
		if e.Weak() {
			skip[i] = true
		}
	}

	var synthetic []syntheticEdge
	var order []int
	for {
		var leftover []int
		order, leftover = kahn(g, skip, synthetic, opts)
		if len(leftover) == 0 {
			break
		}

		comps := findComponents(g, leftover, skip)
		if len(comps) == 0 {
			return nil, fmt.Errorf("manual cycle order conflicts with other mandatory dependencies")
		}

		compIdx, ovIdx, ok := matchSpliceOverride(comps, opts.Overrides)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnbreakableCycle, comps[0].Path)
		}
		added := splice(g, comps[compIdx], opts.Overrides[ovIdx], skip)
		synthetic = append(synthetic, added...)
	}

	// A mandatory self-reference cannot be deferred and cannot be
	// ordered around; it only ever loads under a configured override.
	for _, e := range g.Edges {
		if e.SelfLoop() && !e.Weak() && !overrideCovers(opts.Overrides, e.From) {
			return nil, fmt.Errorf("%w: %s -> %s (%s)", ErrUnbreakableCycle,
				e.From.Qualified(), e.To.Qualified(), e.Constraint)
		}
	}

	plan := &PhasedPlan{
		Order:    nodesAt(g, order),
		Deferred: make(map[model.TableName][]DeferredColumn),
	}

	pos := make(map[model.TableName]int, len(plan.Order))
	for i, n := range plan.Order {
		pos[n.Table] = i
	}

	for _, e := range g.Edges {
		if !e.Weak() {
			continue
		}
		if !e.SelfLoop() && pos[e.To] < pos[e.From] {
			continue
		}
		for _, pair := range e.Pairs {
			plan.Deferred[e.From] = append(plan.Deferred[e.From], DeferredColumn{
				Column:       pair.OwnerColumn,
				Constraint:   e.Constraint,
				Parent:       e.To,
				ParentColumn: pair.ReferencedColumn,
			})
		}
	}

	for t := range plan.Deferred {
		cols := plan.Deferred[t]
		sort.Slice(cols, func(i, j int) bool {
			if cols[i].Column != cols[j].Column {
				return cols[i].Column < cols[j].Column
			}
			return cols[i].Constraint < cols[j].Constraint
		})
		plan.RequiresPhasing = true
	}

	return plan, nil
}

func overrideCovers(overrides []CycleOverride, t model.TableName) bool {
	for _, ov := range overrides {
		if !ov.Allowed {
			continue
		}
		for _, m := range ov.Tables {
			if m.Compare(t) == 0 {
				return true
			}
		}
	}
	return false
}
