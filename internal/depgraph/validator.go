package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/keelson-db/keelson/internal/model"
)

type ViolationKind string

const (
	// ViolationChildBeforeParent means a table is emitted before a
	// table it references; inserting in this order breaks the
	// constraint unless the referencing column is deferred.
	ViolationChildBeforeParent ViolationKind = "child-before-parent"
	// ViolationMissingParent means a referenced table is absent from
	// the order entirely. Legitimate for partial exports, so it warns
	// without invalidating the order.
	ViolationMissingParent ViolationKind = "missing-parent"
)

type Violation struct {
	Kind           ViolationKind
	Constraint     string
	Child          model.TableName
	Parent         model.TableName
	ChildPosition  int
	ParentPosition int
	Detail         string
}

// ForeignKeyDetail describes one constraint inside a reported cycle.
type ForeignKeyDetail struct {
	Constraint string
	Child      model.TableName
	Parent     model.TableName
	Columns    []model.RelationshipConstraint
	Nullable   bool
	DeleteRule string
}

// Weak mirrors Edge.Weak for reporting.
func (d ForeignKeyDetail) Weak() bool {
	return d.Nullable && d.DeleteRule != model.DeleteCascade
}

// CycleDiagnostic groups ordering violations that share tables into one
// explained cycle, with a concrete way out.
type CycleDiagnostic struct {
	Tables         []model.TableName
	ForeignKeys    []ForeignKeyDetail
	IsAllowed      bool
	Reason         string
	Recommendation string
}

type ValidationResult struct {
	Valid      bool
	Violations []Violation
	Cycles     []CycleDiagnostic
}

// Validate re-checks an emitted order against the modeled foreign keys.
// It deliberately shares no state with the sorter: names are resolved
// again and relationships are walked from scratch, so a sorter defect
// cannot hide from it. Tables absent from the order are simply not
// being emitted and their own constraints are not checked; referenced
// tables that are absent surface as missing-parent warnings.
func Validate(order []TableNode, entities []model.Entity, relationships []model.Relationship, resolve model.NameResolver, overrides []CycleOverride) ValidationResult {
	if resolve == nil {
		resolve = model.DefaultResolver()
	}

	pos := make(map[model.TableName]int, len(order))
	for i, n := range order {
		pos[n.Table] = i
	}

	byName := make(map[string]*model.Entity, len(entities))
	effective := make(map[string]model.TableName, len(entities))
	for i := range entities {
		e := &entities[i]
		key := strings.ToLower(e.Name)
		if _, ok := byName[key]; ok {
			continue
		}
		byName[key] = e
		effective[key] = resolve(e.Schema, e.Name, e.LogicalName, e.Module)
	}

	res := ValidationResult{Valid: true}
	var details []ForeignKeyDetail

	for _, rel := range relationships {
		if !rel.HasDatabaseConstraint || len(rel.Constraints) == 0 {
			continue
		}
		source, ok := byName[strings.ToLower(rel.SourceEntity)]
		if !ok {
			continue
		}
		target, ok := byName[strings.ToLower(rel.TargetEntity)]
		if !ok {
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
			continue
		}

		child := effective[strings.ToLower(rel.SourceEntity)]
		parent := effective[strings.ToLower(rel.TargetEntity)]
		details = append(details, ForeignKeyDetail{
			Constraint: rel.Name,
			Child:      child,
			Parent:     parent,
			Columns:    rel.Constraints,
			Nullable:   nullable,
			DeleteRule: model.NormalizeDeleteRule(rel.DeleteRule),
		})

		childPos, childEmitted := pos[child]
		if !childEmitted {
			continue
		}
		parentPos, parentEmitted := pos[parent]
		if !parentEmitted {
			res.Violations = append(res.Violations, Violation{
				Kind:           ViolationMissingParent,
				Constraint:     rel.Name,
				Child:          child,
				Parent:         parent,
				ChildPosition:  childPos,
				ParentPosition: -1,
				Detail: fmt.Sprintf("parent %s of %s (constraint %s) is not in the generated order",
					parent.Qualified(), child.Qualified(), rel.Name),
			})
			continue
		}
		// Equal positions can only be a self-reference, which loads fine
		// row by row and is not an ordering violation.
		if parentPos > childPos {
			res.Valid = false
			res.Violations = append(res.Violations, Violation{
				Kind:           ViolationChildBeforeParent,
				Constraint:     rel.Name,
				Child:          child,
				Parent:         parent,
				ChildPosition:  childPos,
				ParentPosition: parentPos,
				Detail: fmt.Sprintf("%s at position %d precedes its parent %s at position %d (constraint %s)",
					child.Qualified(), childPos, parent.Qualified(), parentPos, rel.Name),
			})
		}
	}

	res.Cycles = groupCycles(res.Violations, details, overrides)
	return res
}

// groupCycles explains child-before-parent violations that stem from
// genuine cycles. It rebuilds a small graph over the violated tables,
// finds its strongly connected components, and reports each component
// that contains a violated constraint with every foreign key running
// inside it. Isolated inversions with no cycle stay plain violations.
func groupCycles(violations []Violation, details []ForeignKeyDetail, overrides []CycleOverride) []CycleDiagnostic {
	involved := make(map[model.TableName]bool)
	for _, v := range violations {
		if v.Kind == ViolationChildBeforeParent {
			involved[v.Child] = true
			involved[v.Parent] = true
		}
	}
	if len(involved) == 0 {
		return nil
	}

	tables := make([]model.TableName, 0, len(involved))
	for t := range involved {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Compare(tables[j]) < 0 })

	g := &Graph{index: make(map[model.TableName]int, len(tables))}
	for _, t := range tables {
		g.index[t] = len(g.Nodes)
		g.Nodes = append(g.Nodes, TableNode{Table: t, Schema: t.Schema, Name: t.Name})
	}
	for _, d := range details {
		if !involved[d.Child] || !involved[d.Parent] {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			Constraint: d.Constraint,
			From:       d.Child,
			To:         d.Parent,
			FromID:     g.index[d.Child],
			ToID:       g.index[d.Parent],
			Pairs:      d.Columns,
			Nullable:   d.Nullable,
			DeleteRule: d.DeleteRule,
		})
	}

	var result []CycleDiagnostic
	for _, comp := range findComponents(g, nil, nil) {
		violated := false
		for _, v := range violations {
			if v.Kind == ViolationChildBeforeParent && comp.contains(v.Child) && comp.contains(v.Parent) {
				violated = true
				break
			}
		}
		if !violated {
			continue
		}

		diag := CycleDiagnostic{Tables: comp.Tables}
		for _, d := range details {
			if comp.contains(d.Child) && comp.contains(d.Parent) {
				diag.ForeignKeys = append(diag.ForeignKeys, d)
			}
		}
		sort.Slice(diag.ForeignKeys, func(i, j int) bool {
			a, b := diag.ForeignKeys[i], diag.ForeignKeys[j]
			if c := a.Child.Compare(b.Child); c != 0 {
				return c < 0
			}
			if c := a.Parent.Compare(b.Parent); c != 0 {
				return c < 0
			}
			return a.Constraint < b.Constraint
		})
		for _, ov := range overrides {
			if ov.Allowed && sameTableSet(diag.Tables, ov.Tables) {
				diag.IsAllowed = true
				diag.Reason = ov.Reason
				break
			}
		}
		diag.Recommendation = recommend(diag)
		result = append(result, diag)
	}
	return result
}

func recommend(c CycleDiagnostic) string {
	for _, fk := range c.ForeignKeys {
		if fk.Weak() {
			cols := make([]string, len(fk.Columns))
			for i, p := range fk.Columns {
				cols[i] = p.OwnerColumn
			}
			return fmt.Sprintf("phased loading can defer %s: insert %s with %s set to NULL, backfill after %s is loaded",
				fk.Constraint, fk.Child.Qualified(), strings.Join(cols, ", "), fk.Parent.Qualified())
		}
	}
	return "no deferrable foreign key in this cycle; declare a cycle override with an explicit order or relax one constraint to nullable"
}
