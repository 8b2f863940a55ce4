package depgraph

import (
	"sort"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

// Component is one strongly connected component: a set of tables whose
// foreign keys form at least one cycle, or a single self-referencing
// table. Edges holds the constraints internal to the component.
// IsAllowed and Reason are filled in during resolution: IsAllowed when
// a configured override covers the cycle, Reason with the override's
// reason or an explanation of the automatic resolution.
type Component struct {
	Tables      []model.TableName
	Edges       []Edge
	HasWeakEdge bool
	Path        string
	IsAllowed   bool
	Reason      string
}

// contains reports membership by effective table name.
func (c Component) contains(t model.TableName) bool {
	for _, m := range c.Tables {
		if m == t {
			return true
		}
	}
	return false
}

// findComponents runs Tarjan's algorithm over the subgraph induced by
// the given node ids, honoring the edge skip set. A nil id set means
// the whole graph. Only cyclic components survive: two or more members,
// or one member with a self-referencing edge.
func findComponents(g *Graph, within []int, skip map[int]bool) []Component {
	n := len(g.Nodes)
	inSet := make([]bool, n)
	if within == nil {
		for i := range inSet {
			inSet[i] = true
		}
	} else {
		for _, id := range within {
			inSet[id] = true
		}
	}

	adj := make([][]int, n)
	for i, e := range g.Edges {
		if skip[i] || !inSet[e.FromID] || !inSet[e.ToID] {
			continue
		}
		adj[e.FromID] = append(adj[e.FromID], e.ToID)
	}

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		next  int
		stack []int
		comps [][]int
	)

	type frame struct {
		v, i int
	}

	for start := 0; start < n; start++ {
		if !inSet[start] || index[start] != -1 {
			continue
		}

		index[start] = next
		lowlink[start] = next
		next++
		stack = append(stack, start)
		onStack[start] = true
		frames := []frame{{v: start}}

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.i < len(adj[f.v]) {
				w := adj[f.v][f.i]
				f.i++
				if index[w] == -1 {
					index[w] = next
					lowlink[w] = next
					next++
					stack = append(stack, w)
					onStack[w] = true
					frames = append(frames, frame{v: w})
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}

			v := f.v
			frames = frames[:len(frames)-1]
			if lowlink[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				comps = append(comps, comp)
			}
			if len(frames) > 0 {
				p := &frames[len(frames)-1]
				if lowlink[v] < lowlink[p.v] {
					lowlink[p.v] = lowlink[v]
				}
			}
		}
	}

	var result []Component
	for _, ids := range comps {
		c := buildComponent(g, ids, skip)
		if len(c.Tables) >= 2 || len(c.Edges) > 0 {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Tables[0].Compare(result[j].Tables[0]) < 0
	})
	return result
}

func buildComponent(g *Graph, ids []int, skip map[int]bool) Component {
	member := make(map[int]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	var c Component
	for _, id := range ids {
		c.Tables = append(c.Tables, g.Nodes[id].Table)
	}
	sort.Slice(c.Tables, func(i, j int) bool { return c.Tables[i].Compare(c.Tables[j]) < 0 })

	for i, e := range g.Edges {
		if skip[i] || !member[e.FromID] || !member[e.ToID] {
			continue
		}
		c.Edges = append(c.Edges, e)
		if e.Weak() {
			c.HasWeakEdge = true
		}
	}
	sort.Slice(c.Edges, func(i, j int) bool { return lessEdge(c.Edges[i], c.Edges[j]) })

	names := make([]string, 0, len(c.Tables)+1)
	for _, t := range c.Tables {
		names = append(names, t.Qualified())
	}
	names = append(names, c.Tables[0].Qualified())
	c.Path = strings.Join(names, " -> ")
	return c
}

func lessEdge(a, b Edge) bool {
	if c := a.From.Compare(b.From); c != 0 {
		return c < 0
	}
	if c := a.To.Compare(b.To); c != 0 {
		return c < 0
	}
	return a.Constraint < b.Constraint
}
