package depgraph

import (
	"errors"
	"testing"

	"github.com/keelson-db/keelson/internal/model"
)

func TestPlanPhasesDefersWeakEdge(t *testing.T) {
	plan, err := PlanPhases(weakCycle(t), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}

	if !sameOrder(plan.Order, "dbo.X", "dbo.Y") {
		t.Errorf("Expected mandatory-edge order [dbo.X dbo.Y], got %v", orderNames(plan.Order))
	}
	if !plan.RequiresPhasing {
		t.Error("Expected the plan to require phasing")
	}

	x := model.TableName{Schema: "dbo", Name: "X"}
	deferred := plan.DeferredFor(x)
	if len(deferred) != 1 {
		t.Fatalf("Expected 1 deferred column on X, got %v", deferred)
	}
	d := deferred[0]
	if d.Column != "YRef" || d.Constraint != "FK_X_Y" {
		t.Errorf("Expected YRef via FK_X_Y deferred, got %s via %s", d.Column, d.Constraint)
	}
	if d.Parent.Name != "Y" || d.ParentColumn != "Id" {
		t.Errorf("Expected parent Y(Id), got %s(%s)", d.Parent.Qualified(), d.ParentColumn)
	}
	if !plan.IsDeferred(x, "YRef") {
		t.Error("Expected IsDeferred to report YRef")
	}
	if plan.IsDeferred(model.TableName{Schema: "dbo", Name: "Y"}, "XRef") {
		t.Error("Expected the mandatory column XRef not to be deferred")
	}
}

func TestPlanPhasesSatisfiedWeakEdgeNotDeferred(t *testing.T) {
	entities := []model.Entity{
		entity("Accounts"),
		entity("Profiles", col("AccountId", true)),
	}
	rels := []model.Relationship{fk("FK_Profiles_Accounts", "Profiles", "AccountId", "Accounts")}

	plan, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}

	// With the weak edge skipped both tables are roots and sort
	// alphabetically, which happens to satisfy the constraint anyway.
	if !sameOrder(plan.Order, "dbo.Accounts", "dbo.Profiles") {
		t.Errorf("Expected [dbo.Accounts dbo.Profiles], got %v", orderNames(plan.Order))
	}
	if plan.RequiresPhasing {
		t.Errorf("Expected no phasing, got deferred %v", plan.Deferred)
	}
}

func TestPlanPhasesViolatedWeakEdgeDeferred(t *testing.T) {
	entities := []model.Entity{
		entity("Users"),
		entity("Profiles", col("UserId", true)),
	}
	rels := []model.Relationship{fk("FK_Profiles_Users", "Profiles", "UserId", "Users")}

	plan, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}

	// Alphabetical order over the roots puts the child first here, so
	// the skipped weak edge is violated and the column must backfill.
	if !sameOrder(plan.Order, "dbo.Profiles", "dbo.Users") {
		t.Errorf("Expected [dbo.Profiles dbo.Users], got %v", orderNames(plan.Order))
	}
	if !plan.IsDeferred(model.TableName{Schema: "dbo", Name: "Profiles"}, "UserId") {
		t.Errorf("Expected UserId deferred, got %v", plan.Deferred)
	}
	if !plan.RequiresPhasing {
		t.Error("Expected phasing for the violated weak edge")
	}
}

func TestPlanPhasesStrongCycleFails(t *testing.T) {
	entities := []model.Entity{
		entity("X", col("YRef", false)),
		entity("Y", col("XRef", false)),
	}
	rels := []model.Relationship{
		fk("FK_X_Y", "X", "YRef", "Y"),
		fk("FK_Y_X", "Y", "XRef", "X"),
	}

	_, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err == nil {
		t.Fatal("Expected a mandatory cycle to fail phased planning")
	}
	if !errors.Is(err, ErrUnbreakableCycle) {
		t.Errorf("Expected ErrUnbreakableCycle, got %v", err)
	}
}

func TestPlanPhasesOverrideRescuesStrongCycle(t *testing.T) {
	entities := []model.Entity{
		entity("X", col("YRef", false)),
		entity("Y", col("XRef", false)),
	}
	rels := []model.Relationship{
		fk("FK_X_Y", "X", "YRef", "Y"),
		fk("FK_Y_X", "Y", "XRef", "X"),
	}
	opts := SortOptions{Overrides: []CycleOverride{{
		Tables: []model.TableName{{Schema: "dbo", Name: "X"}, {Schema: "dbo", Name: "Y"}},
		Order:  []model.TableName{{Schema: "dbo", Name: "Y"}, {Schema: "dbo", Name: "X"}},
		Reason: "constraints disabled during bootstrap",
	}}}

	plan, err := PlanPhases(mustBuild(t, entities, rels), opts)
	if err != nil {
		t.Fatalf("Expected the override to rescue the cycle, got %v", err)
	}
	if !sameOrder(plan.Order, "dbo.Y", "dbo.X") {
		t.Errorf("Expected the overridden order [dbo.Y dbo.X], got %v", orderNames(plan.Order))
	}
	if plan.RequiresPhasing {
		t.Error("Expected no deferred columns under a manual order")
	}
}

func TestPlanPhasesWeakSelfReference(t *testing.T) {
	entities := []model.Entity{
		entity("Employees", col("ManagerId", true)),
	}
	rels := []model.Relationship{fk("FK_Employees_Manager", "Employees", "ManagerId", "Employees")}

	plan, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}
	emp := model.TableName{Schema: "dbo", Name: "Employees"}
	if !plan.IsDeferred(emp, "ManagerId") {
		t.Errorf("Expected the self-referencing column deferred, got %v", plan.Deferred)
	}
	if !plan.RequiresPhasing {
		t.Error("Expected phasing for the self-reference")
	}
}

func TestPlanPhasesMandatorySelfReferenceFails(t *testing.T) {
	entities := []model.Entity{
		entity("Employees", col("ManagerId", false)),
	}
	rels := []model.Relationship{fk("FK_Employees_Manager", "Employees", "ManagerId", "Employees")}

	_, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if !errors.Is(err, ErrUnbreakableCycle) {
		t.Errorf("Expected ErrUnbreakableCycle for a mandatory self-reference, got %v", err)
	}

	// Declaring the cycle allowed lets the plan through without
	// deferring the column.
	opts := SortOptions{Overrides: []CycleOverride{{
		Tables:  []model.TableName{{Schema: "dbo", Name: "Employees"}},
		Allowed: true,
		Reason:  "root row references itself",
	}}}
	plan, err := PlanPhases(mustBuild(t, entities, rels), opts)
	if err != nil {
		t.Fatalf("Expected the allowance to admit the plan, got %v", err)
	}
	if plan.RequiresPhasing {
		t.Error("Expected no phasing for an allowed mandatory self-reference")
	}
}

func TestPlanPhasesCompositeKeyDefersAllColumns(t *testing.T) {
	entities := []model.Entity{
		entity("Regions", col("CountryCode", false), col("RegionCode", false)),
		entity("Offices", col("CountryCode", true), col("RegionCode", true)),
	}
	region := fk("FK_Offices_Regions", "Offices", "CountryCode", "Regions")
	region.Constraints = []model.RelationshipConstraint{
		{OwnerColumn: "CountryCode", ReferencedColumn: "CountryCode"},
		{OwnerColumn: "RegionCode", ReferencedColumn: "RegionCode"},
	}
	back := fk("FK_Regions_Offices", "Regions", "CountryCode", "Offices")
	rels := []model.Relationship{region, back}

	plan, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}
	if !sameOrder(plan.Order, "dbo.Offices", "dbo.Regions") {
		t.Errorf("Expected [dbo.Offices dbo.Regions], got %v", orderNames(plan.Order))
	}

	deferred := plan.DeferredFor(model.TableName{Schema: "dbo", Name: "Offices"})
	if len(deferred) != 2 {
		t.Fatalf("Expected both composite columns deferred, got %v", deferred)
	}
	if deferred[0].Column != "CountryCode" || deferred[1].Column != "RegionCode" {
		t.Errorf("Expected columns sorted [CountryCode RegionCode], got [%s %s]",
			deferred[0].Column, deferred[1].Column)
	}
}

func TestPlanPhasesLinearChainNeedsNoPhasing(t *testing.T) {
	entities := []model.Entity{
		entity("A"),
		entity("B", col("AId", false)),
		entity("C", col("BId", false)),
	}
	rels := []model.Relationship{
		fk("FK_B_A", "B", "AId", "A"),
		fk("FK_C_B", "C", "BId", "B"),
	}

	plan, err := PlanPhases(mustBuild(t, entities, rels), SortOptions{})
	if err != nil {
		t.Fatalf("Expected a plan, got error %v", err)
	}
	if !sameOrder(plan.Order, "dbo.A", "dbo.B", "dbo.C") {
		t.Errorf("Expected [dbo.A dbo.B dbo.C], got %v", orderNames(plan.Order))
	}
	if plan.RequiresPhasing || len(plan.Deferred) != 0 {
		t.Errorf("Expected an empty deferral map, got %v", plan.Deferred)
	}
}
