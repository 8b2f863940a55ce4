package depgraph

import (
	"strings"
	"testing"

	"github.com/keelson-db/keelson/internal/model"
)

// entity builds a dbo table with an integer identity primary key plus
// the given columns.
func entity(name string, attrs ...model.Attribute) model.Entity {
	base := []model.Attribute{{Name: "Id", DataType: model.TypeInteger, IsPrimaryKey: true, IsIdentity: true}}
	return model.Entity{Schema: "dbo", Name: name, Attributes: append(base, attrs...)}
}

func col(name string, nullable bool) model.Attribute {
	return model.Attribute{Name: name, DataType: model.TypeInteger, Nullable: nullable}
}

// fk builds a verified single-column foreign key from source to the Id
// of target.
func fk(name, source, ownerCol, target string) model.Relationship {
	return model.Relationship{
		Name:                  name,
		SourceEntity:          source,
		TargetEntity:          target,
		Constraints:           []model.RelationshipConstraint{{OwnerColumn: ownerCol, ReferencedColumn: "Id"}},
		HasDatabaseConstraint: true,
		DeleteRule:            model.DeleteNoAction,
	}
}

func mustBuild(t *testing.T, entities []model.Entity, rels []model.Relationship) *Graph {
	t.Helper()
	g, err := Build(entities, rels, nil)
	if err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}
	return g
}

func orderNames(order []TableNode) []string {
	names := make([]string, len(order))
	for i, n := range order {
		names[i] = n.Table.Qualified()
	}
	return names
}

func sameOrder(got []TableNode, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, n := range got {
		if n.Table.Qualified() != want[i] {
			return false
		}
	}
	return true
}

func TestBuildEdgesAndCounts(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Orders", col("UserId", false)),
	}
	rels := []model.Relationship{fk("FK_Orders_Users", "Orders", "UserId", "Users")}

	g := mustBuild(t, entities, rels)

	if len(g.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(g.Edges))
	}

	e := g.Edges[0]
	if e.From.Qualified() != "dbo.Orders" || e.To.Qualified() != "dbo.Users" {
		t.Errorf("Expected edge dbo.Orders -> dbo.Users, got %s -> %s", e.From.Qualified(), e.To.Qualified())
	}
	if e.Weak() {
		t.Error("Expected NOT NULL foreign key to be a strong edge")
	}
	if g.SkippedCount != 0 {
		t.Errorf("Expected no skipped relationships, got %d", g.SkippedCount)
	}
}

func TestBuildWeakEdgeClassification(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Posts", col("EditorId", true), col("OwnerId", true)),
	}

	nullableNoAction := fk("FK_Posts_Editor", "Posts", "EditorId", "Users")
	nullableCascade := fk("FK_Posts_Owner", "Posts", "OwnerId", "Users")
	nullableCascade.DeleteRule = model.DeleteCascade

	g := mustBuild(t, entities, []model.Relationship{nullableNoAction, nullableCascade})

	if !g.Edges[0].Weak() {
		t.Error("Expected nullable NO ACTION edge to be weak")
	}
	if g.Edges[1].Weak() {
		t.Error("Expected CASCADE edge to be strong regardless of nullability")
	}
}

func TestBuildSkipsUnverifiedRelationships(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Orders", col("UserId", false)),
	}
	unhydrated := fk("FK_Orders_Users", "Orders", "UserId", "Users")
	unhydrated.HasDatabaseConstraint = false

	g := mustBuild(t, entities, []model.Relationship{unhydrated})

	if len(g.Edges) != 0 {
		t.Errorf("Expected model-only relationship to create no edge, got %d", len(g.Edges))
	}
	if g.SkippedCount != 1 {
		t.Errorf("Expected 1 skipped relationship, got %d", g.SkippedCount)
	}
}

func TestBuildSkipsUnresolvableRelationships(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Orders", col("UserId", false)),
	}
	rels := []model.Relationship{
		fk("FK_Ghost_Source", "Phantom", "UserId", "Users"),
		fk("FK_Ghost_Target", "Orders", "UserId", "Phantom"),
		fk("FK_Bad_Column", "Orders", "NoSuchColumn", "Users"),
		{
			Name: "FK_No_Pairs", SourceEntity: "Orders", TargetEntity: "Users",
			HasDatabaseConstraint: true,
		},
	}

	g := mustBuild(t, entities, rels)

	if len(g.Edges) != 0 {
		t.Errorf("Expected no edges from unresolvable relationships, got %d", len(g.Edges))
	}
	if g.SkippedCount != 4 {
		t.Errorf("Expected 4 skipped relationships, got %d", g.SkippedCount)
	}
}

func TestBuildCompositeKeyNullability(t *testing.T) {
	entities := []model.Entity{
		entity("Regions", col("Code", false)),
		entity("Stores", col("RegionId", true), col("RegionCode", false)),
	}
	rel := model.Relationship{
		Name: "FK_Stores_Regions", SourceEntity: "Stores", TargetEntity: "Regions",
		Constraints: []model.RelationshipConstraint{
			{OwnerColumn: "RegionId", ReferencedColumn: "Id"},
			{OwnerColumn: "RegionCode", ReferencedColumn: "Code"},
		},
		HasDatabaseConstraint: true,
		DeleteRule:            model.DeleteNoAction,
	}

	g := mustBuild(t, entities, []model.Relationship{rel})

	// One mandatory column makes the whole composite key mandatory.
	if g.Edges[0].Weak() {
		t.Error("Expected composite key with a NOT NULL column to be strong")
	}
}

func TestBuildNameCollision(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("People"),
	}
	resolve := func(schema, physical, logical, module string) model.TableName {
		return model.TableName{Schema: "dbo", Name: "Same"}
	}

	_, err := Build(entities, nil, resolve)
	if err == nil {
		t.Fatal("Expected effective name collision to fail the build")
	}
	if !strings.Contains(err.Error(), "resolve to table") {
		t.Errorf("Expected collision error to name the clash, got %q", err.Error())
	}
}

func TestBuildAppliesResolver(t *testing.T) {
	entities := []model.Entity{entity("Order")}
	resolve := model.ResolverFromRules([]model.RenameRule{
		{MatchName: "Order", Schema: "sales", Name: "OrderHeader"},
	})

	g, err := Build(entities, nil, resolve)
	if err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}
	if g.Nodes[0].Table.Qualified() != "sales.OrderHeader" {
		t.Errorf("Expected renamed table sales.OrderHeader, got %s", g.Nodes[0].Table.Qualified())
	}
	if g.Nodes[0].Name != "Order" {
		t.Errorf("Expected node to keep its modeled name, got %s", g.Nodes[0].Name)
	}
}

func TestBuildMarksJunctionTables(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Roles"),
		entity("UserRoles", col("UserId", false), col("RoleId", false)),
		entity("Orders", col("UserId", false), col("Notes", true)),
	}
	rels := []model.Relationship{
		fk("FK_UserRoles_Users", "UserRoles", "UserId", "Users"),
		fk("FK_UserRoles_Roles", "UserRoles", "RoleId", "Roles"),
		fk("FK_Orders_Users", "Orders", "UserId", "Users"),
	}

	g := mustBuild(t, entities, rels)

	for _, n := range g.Nodes {
		switch n.Name {
		case "UserRoles":
			if !n.IsJunction {
				t.Error("Expected UserRoles to be recognized as a junction table")
			}
		default:
			if n.IsJunction {
				t.Errorf("Expected %s not to be a junction table", n.Name)
			}
		}
	}
}
