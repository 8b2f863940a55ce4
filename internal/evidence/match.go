// Package evidence verifies modeled relationships against constraints
// discovered in a live database and remembers the verdicts between
// runs. Relationships without recorded evidence stay unhydrated and
// never drive ordering.
package evidence

import (
	"strings"

	"github.com/keelson-db/keelson/internal/model"
	"github.com/keelson-db/keelson/internal/types"
)

// Match pairs one modeled relationship with the live constraint that
// enforces it. Nullability and delete rule come from the catalog, the
// authority on what the database actually does.
type Match struct {
	Relationship model.Relationship
	Constraint   string
	DeleteRule   string
	Nullable     bool
}

// MatchRecords lines modeled relationships up with live foreign key
// records. A relationship matches when child table, parent table and
// the full column pair set agree, all case-insensitively; the
// constraint name does not need to, since databases generate their
// own. Unmatched relationship names come back for reporting.
func MatchRecords(m *model.Model, records []types.ForeignKeyRecord) (matches []Match, unmatched []string) {
	type liveConstraint struct {
		key      string
		pairs    map[string]string
		nullable bool
		rule     string
		name     string
	}

	grouped := make(map[string]*liveConstraint)
	var order []string
	for _, rec := range records {
		key := strings.ToLower(rec.SourceSchema + "." + rec.SourceTable + "/" + rec.Constraint)
		lc, ok := grouped[key]
		if !ok {
			lc = &liveConstraint{
				key:      strings.ToLower(rec.SourceSchema + "." + rec.SourceTable + ">" + rec.TargetSchema + "." + rec.TargetTable),
				pairs:    make(map[string]string),
				nullable: true,
				rule:     rec.DeleteRule,
				name:     rec.Constraint,
			}
			grouped[key] = lc
			order = append(order, key)
		}
		lc.pairs[strings.ToLower(rec.SourceColumn)] = strings.ToLower(rec.TargetColumn)
		if !rec.IsNullable {
			lc.nullable = false
		}
	}

	for _, rel := range m.Relationships {
		source := m.EntityByName(rel.SourceEntity)
		target := m.EntityByName(rel.TargetEntity)
		if source == nil || target == nil || len(rel.Constraints) == 0 {
			unmatched = append(unmatched, rel.Name)
			continue
		}
		relKey := strings.ToLower(source.Schema + "." + source.Name + ">" + target.Schema + "." + target.Name)

		found := false
		for _, key := range order {
			lc := grouped[key]
			if lc.key != relKey || !pairsEqual(lc.pairs, rel.Constraints) {
				continue
			}
			matches = append(matches, Match{
				Relationship: rel,
				Constraint:   lc.name,
				DeleteRule:   lc.rule,
				Nullable:     lc.nullable,
			})
			found = true
			break
		}
		if !found {
			unmatched = append(unmatched, rel.Name)
		}
	}

	return matches, unmatched
}

func pairsEqual(live map[string]string, modeled []model.RelationshipConstraint) bool {
	if len(live) != len(modeled) {
		return false
	}
	for _, pair := range modeled {
		if live[strings.ToLower(pair.OwnerColumn)] != strings.ToLower(pair.ReferencedColumn) {
			return false
		}
	}
	return true
}
