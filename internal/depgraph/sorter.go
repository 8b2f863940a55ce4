package depgraph

import (
	"fmt"
	"sort"

	"github.com/keelson-db/keelson/internal/model"
)

// Mode names the strategy that produced an ordering.
type Mode string

const (
	// ModeTopological is the normal outcome, including orders that
	// needed weak edges dropped to resolve cycles.
	ModeTopological Mode = "topological"
	// ModeManualOverride means at least one cycle was ordered by a
	// configured override.
	ModeManualOverride Mode = "manual-override"
	// ModeAlphabeticalFallback means dependency ordering was abandoned
	// and every table was ordered by name instead.
	ModeAlphabeticalFallback Mode = "alphabetical-fallback"
)

// SortOptions tune the ordering run.
type SortOptions struct {
	// DeferJunctionTables holds pure link tables back until no other
	// table is ready, pushing them as late as the dependencies allow.
	DeferJunctionTables bool
	// Overrides are the configured cycle resolutions.
	Overrides []CycleOverride
}

// OrderingResult is the complete outcome of one ordering run. Counts
// and flags are observational; nothing here is an error.
type OrderingResult struct {
	Order []TableNode
	Mode  Mode

	TopologicalOrderingApplied  bool
	AlphabeticalFallbackApplied bool
	CycleDetected               bool

	NodeCount        int
	EdgeCount        int
	SkippedEdgeCount int

	// Components are the strongly connected components found when the
	// sort first stalled, in stable order.
	Components []Component
	// BrokenEdges are the weak edges dropped to resolve cycles.
	BrokenEdges []Edge
	// UnmatchedOverrides are configured cycle resolutions that matched
	// no detected cycle. Callers treat them as configuration errors.
	UnmatchedOverrides []CycleOverride
	// Diagnostics narrate every decision that changed the outcome.
	Diagnostics []string
}

// markComponent records how the first component containing all the
// given tables was resolved.
func (r *OrderingResult) markComponent(tables []model.TableName, allowed bool, reason string) {
	for i := range r.Components {
		c := &r.Components[i]
		all := true
		for _, t := range tables {
			if !c.contains(t) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		if allowed {
			c.IsAllowed = true
		}
		if c.Reason == "" {
			c.Reason = reason
		}
		return
	}
}

// Positions returns the index of every ordered table.
func (r *OrderingResult) Positions() map[model.TableName]int {
	pos := make(map[model.TableName]int, len(r.Order))
	for i, n := range r.Order {
		pos[n.Table] = i
	}
	return pos
}

type syntheticEdge struct {
	child  int
	parent int
}

// Sort orders the graph so parents come before children. It never
// fails: cycles are resolved by configured overrides, then by dropping
// weak edges, and as a last resort the whole table set is ordered
// alphabetically. Every resolution step is reported in the result.
func Sort(g *Graph, opts SortOptions) OrderingResult {
	res := OrderingResult{
		Mode:             ModeTopological,
		NodeCount:        len(g.Nodes),
		EdgeCount:        len(g.Edges),
		SkippedEdgeCount: g.SkippedCount,
	}
	if g.SkippedCount > 0 {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("%d relationships skipped: not verified against the database or columns unresolved", g.SkippedCount))
	}

	skip := make(map[int]bool)
	var synthetic []syntheticEdge
	overrideMatched := make([]bool, len(opts.Overrides))
	firstStall := true

	finish := func() OrderingResult {
		unmatched, diags := collectUnmatched(opts.Overrides, overrideMatched)
		res.UnmatchedOverrides = unmatched
		res.Diagnostics = append(res.Diagnostics, diags...)
		return res
	}

	for {
		order, leftover := kahn(g, skip, synthetic, opts)
		if len(leftover) == 0 {
			res.Order = nodesAt(g, order)
			res.TopologicalOrderingApplied = true
			return finish()
		}

		res.CycleDetected = true
		comps := findComponents(g, leftover, skip)
		if len(comps) == 0 {
			// Only synthetic override edges can stall without a real
			// cycle: the declared order contradicts other dependencies.
			res.Mode = ModeAlphabeticalFallback
			res.AlphabeticalFallbackApplied = true
			res.TopologicalOrderingApplied = false
			res.Order = alphabetical(g)
			res.Diagnostics = append(res.Diagnostics,
				"manual cycle order conflicts with other dependencies; ordering all tables alphabetically")
			return finish()
		}
		if firstStall {
			firstStall = false
			res.Components = comps
			for _, c := range comps {
				res.Diagnostics = append(res.Diagnostics, "circular dependency detected: "+c.Path)
			}
			noteAllowedCycles(&res, comps, opts.Overrides, overrideMatched)
		}

		if compIdx, ovIdx, ok := matchSpliceOverride(comps, opts.Overrides); ok {
			ov := opts.Overrides[ovIdx]
			overrideMatched[ovIdx] = true
			synthetic = append(synthetic, splice(g, comps[compIdx], ov, skip)...)
			res.Mode = ModeManualOverride
			reason := ov.Reason
			if reason == "" {
				reason = "manual order applied"
			}
			res.markComponent(comps[compIdx].Tables, true, reason)
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("applied manual order for cycle %s", comps[compIdx].Path))
			continue
		}

		if idx, ok := lowestWeakEdge(g, comps, skip); ok {
			e := g.Edges[idx]
			skip[idx] = true
			res.BrokenEdges = append(res.BrokenEdges, e)
			res.markComponent([]model.TableName{e.From, e.To}, false,
				fmt.Sprintf("auto-resolved by deferring weak edge %s", e.Constraint))
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("dropped weak dependency %s -> %s (%s) to break a cycle",
					e.From.Qualified(), e.To.Qualified(), e.Constraint))
			continue
		}

		// No override and nothing breakable: order everything by name.
		res.Mode = ModeAlphabeticalFallback
		res.AlphabeticalFallbackApplied = true
		res.TopologicalOrderingApplied = false
		res.Order = alphabetical(g)
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("cycle %s has no weak edge and no manual order; ordering all %d tables alphabetically",
				comps[0].Path, len(g.Nodes)))
		return finish()
	}
}

// kahn runs one topological pass over the edges the skip set keeps,
// plus any synthetic ordering edges. Ready tables are emitted in name
// order; the queue keeps that order as new tables become ready.
func kahn(g *Graph, skip map[int]bool, synthetic []syntheticEdge, opts SortOptions) (order []int, leftover []int) {
	_, children, indeg := g.adjacency(func(i int, _ Edge) bool { return !skip[i] })
	for _, se := range synthetic {
		children[se.parent] = append(children[se.parent], se.child)
		indeg[se.child]++
	}

	// queue holds the ready nodes sorted by table name at all times.
	var queue []int
	for id := range g.Nodes {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Slice(queue, func(i, j int) bool {
		return g.Nodes[queue[i]].Table.Compare(g.Nodes[queue[j]].Table) < 0
	})

	emitted := make([]bool, len(g.Nodes))
	for len(queue) > 0 {
		pos := 0
		if opts.DeferJunctionTables {
			for i, id := range queue {
				if !g.Nodes[id].IsJunction {
					pos = i
					break
				}
			}
		}
		id := queue[pos]
		queue = append(queue[:pos], queue[pos+1:]...)
		order = append(order, id)
		emitted[id] = true

		for _, child := range children[id] {
			indeg[child]--
			if indeg[child] == 0 {
				insertPos := sort.Search(len(queue), func(i int) bool {
					return g.Nodes[queue[i]].Table.Compare(g.Nodes[child].Table) >= 0
				})
				queue = append(queue, 0)
				copy(queue[insertPos+1:], queue[insertPos:])
				queue[insertPos] = child
			}
		}
	}

	for id := range g.Nodes {
		if !emitted[id] {
			leftover = append(leftover, id)
		}
	}
	return order, leftover
}

func nodesAt(g *Graph, ids []int) []TableNode {
	nodes := make([]TableNode, len(ids))
	for i, id := range ids {
		nodes[i] = g.Nodes[id]
	}
	return nodes
}

func alphabetical(g *Graph) []TableNode {
	nodes := make([]TableNode, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Table.Compare(nodes[j].Table) < 0
	})
	return nodes
}
