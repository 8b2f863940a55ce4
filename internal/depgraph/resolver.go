package depgraph

import (
	"fmt"
	"sort"

	"github.com/keelson-db/keelson/internal/model"
)

// CycleOverride is a configured resolution for one specific cycle,
// matched against detected components by table set. With an Order it
// dictates the relative order of the members; without one it merely
// marks the cycle as understood so reports stop flagging it.
type CycleOverride struct {
	Tables  []model.TableName
	Order   []model.TableName
	Allowed bool
	Reason  string
}

// ValidateOverrides rejects override declarations that cannot match
// anything or contradict themselves. Called at configuration load so
// a bad declaration fails loudly instead of being skipped at sort time.
func ValidateOverrides(overrides []CycleOverride) error {
	for i, ov := range overrides {
		if len(ov.Tables) == 0 {
			return fmt.Errorf("cycle override %d declares no tables", i+1)
		}
		seen := make(map[model.TableName]bool, len(ov.Tables))
		for _, t := range ov.Tables {
			if seen[t] {
				return fmt.Errorf("cycle override %d lists table %s twice", i+1, t.Qualified())
			}
			seen[t] = true
		}
		if len(ov.Order) == 0 {
			continue
		}
		if len(ov.Order) != len(ov.Tables) {
			return fmt.Errorf("cycle override %d: order has %d tables, cycle has %d",
				i+1, len(ov.Order), len(ov.Tables))
		}
		for _, t := range ov.Order {
			if !seen[t] {
				return fmt.Errorf("cycle override %d: order lists %s which is not in the cycle",
					i+1, t.Qualified())
			}
			delete(seen, t)
		}
	}
	return nil
}

// matchSpliceOverride finds the first component whose member set equals
// the table set of an override that carries an explicit order.
func matchSpliceOverride(comps []Component, overrides []CycleOverride) (compIdx, ovIdx int, ok bool) {
	for ci, c := range comps {
		for oi, ov := range overrides {
			if len(ov.Order) == 0 {
				continue
			}
			if sameTableSet(c.Tables, ov.Tables) {
				return ci, oi, true
			}
		}
	}
	return 0, 0, false
}

// splice removes the component's internal edges and pins the declared
// relative order with synthetic edges. Regular sorting then places the
// members where their remaining dependencies allow.
func splice(g *Graph, c Component, ov CycleOverride, skip map[int]bool) []syntheticEdge {
	for i, e := range g.Edges {
		if !skip[i] && c.contains(e.From) && c.contains(e.To) {
			skip[i] = true
		}
	}

	var synthetic []syntheticEdge
	for i := 1; i < len(ov.Order); i++ {
		parent, ok := g.NodeID(ov.Order[i-1])
		if !ok {
			continue
		}
		child, ok := g.NodeID(ov.Order[i])
		if !ok {
			continue
		}
		synthetic = append(synthetic, syntheticEdge{child: child, parent: parent})
	}
	return synthetic
}

// lowestWeakEdge picks the alphabetically first breakable edge inside
// any of the given components. Self-references are never candidates;
// they do not block ordering.
func lowestWeakEdge(g *Graph, comps []Component, skip map[int]bool) (int, bool) {
	best := -1
	for i, e := range g.Edges {
		if skip[i] || !e.Weak() || e.SelfLoop() {
			continue
		}
		internal := false
		for _, c := range comps {
			if c.contains(e.From) && c.contains(e.To) {
				internal = true
				break
			}
		}
		if !internal {
			continue
		}
		if best == -1 || lessEdge(e, g.Edges[best]) {
			best = i
		}
	}
	return best, best != -1
}

// noteAllowedCycles records components covered by an order-less
// override: the cycle is acknowledged, automatic resolution still
// decides the order.
func noteAllowedCycles(res *OrderingResult, comps []Component, overrides []CycleOverride, matched []bool) {
	for _, c := range comps {
		for oi, ov := range overrides {
			if len(ov.Order) > 0 || !ov.Allowed || !sameTableSet(c.Tables, ov.Tables) {
				continue
			}
			matched[oi] = true
			res.markComponent(c.Tables, true, ov.Reason)
			note := fmt.Sprintf("cycle %s is declared allowed", c.Path)
			if ov.Reason != "" {
				note += ": " + ov.Reason
			}
			res.Diagnostics = append(res.Diagnostics, note)
		}
	}
}

// collectUnmatched reports overrides that matched no detected cycle.
// These point at stale configuration and callers refuse to proceed on
// them.
func collectUnmatched(overrides []CycleOverride, matched []bool) ([]CycleOverride, []string) {
	var unmatched []CycleOverride
	var diags []string
	for i, ov := range overrides {
		if matched[i] {
			continue
		}
		unmatched = append(unmatched, ov)
		names := make([]string, len(ov.Tables))
		for j, t := range ov.Tables {
			names[j] = t.Qualified()
		}
		sort.Strings(names)
		diags = append(diags, fmt.Sprintf("cycle override %v matched no detected cycle", names))
	}
	return unmatched, diags
}

func sameTableSet(a, b []model.TableName) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]model.TableName(nil), a...)
	bs := append([]model.TableName(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i].Compare(as[j]) < 0 })
	sort.Slice(bs, func(i, j int) bool { return bs[i].Compare(bs[j]) < 0 })
	for i := range as {
		if as[i].Compare(bs[i]) != 0 {
			return false
		}
	}
	return true
}
