package build

import (
	"strings"
	"testing"

	"github.com/tracelight-dev/tracelight/pkg/sqlgraph"
)

func orderEdges(t *testing.T, doc *Document) map[string]Connection {
	t.Helper()
	edges := make(map[string]Connection, len(doc.Connections))
	for _, c := range doc.Connections {
		edges[c.ID] = c
	}
	return edges
}

func findObject(doc *Document, id string) (Object, bool) {
	for _, obj := range doc.Objects {
		if obj.ID == id {
			return obj, true
		}
	}
	return Object{}, false
}

func sampleQueries() []QueryLineage {
	return []QueryLineage{
		{
			Target: "mart.orders",
			Domain: "sales",
			Columns: []ColumnLineage{
				{Name: "order_id", Sources: []SourceRef{{Table: "staging.orders", Column: "id"}}},
				{Name: "customer_name", Sources: []SourceRef{{Table: "staging.customers", Column: "name"}}},
			},
			Joins: []PredicateLineage{
				{
					Condition: "orders.customer_id = customers.id",
					Sources: []SourceRef{
						{Table: "staging.orders", Column: "customer_id"},
						{Table: "staging.customers", Column: "id"},
					},
				},
			},
			Where: &PredicateLineage{
				Condition: "deleted_at IS NULL",
				Sources:   []SourceRef{{Table: "staging.orders", Column: "deleted_at"}},
			},
		},
	}
}

func TestBuild_TablesAndColumns(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	target, ok := findObject(doc, "mart.orders")
	if !ok {
		t.Fatal("expected target table object")
	}
	if target.Kind != "Table" || target.Domain != "sales" {
		t.Errorf("unexpected target object: %+v", target)
	}

	// Referenced-but-undefined tables become external.
	for _, id := range []string{"staging.orders", "staging.customers"} {
		obj, ok := findObject(doc, id)
		if !ok {
			t.Fatalf("expected external table %s", id)
		}
		if obj.Kind != "ExternalTable" {
			t.Errorf("%s: expected ExternalTable, got %s", id, obj.Kind)
		}
	}

	// Columns live under the table's container.
	col, ok := findObject(doc, "mart.orders__columns__order_id")
	if !ok {
		t.Fatal("expected order_id column object")
	}
	if col.Parent != "mart.orders__columns" {
		t.Errorf("unexpected column parent %q", col.Parent)
	}
	container, ok := findObject(doc, "mart.orders__columns")
	if !ok || container.Parent != "mart.orders" {
		t.Error("expected column container parented to the table")
	}

	edges := orderEdges(t, doc)
	want := "staging.orders__columns__id-mart.orders__columns__order_id"
	if _, ok := edges[want]; !ok {
		t.Errorf("expected edge %s, have %v", want, doc.Connections)
	}
}

func TestBuild_Markers(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	join, ok := findObject(doc, "mart.orders__JOIN")
	if !ok {
		t.Fatal("expected JOIN marker")
	}
	if join.Kind != "JoinInfo" || !strings.Contains(join.Label, "customers.id") {
		t.Errorf("unexpected join marker: %+v", join)
	}

	where, ok := findObject(doc, "mart.orders__WHERE")
	if !ok {
		t.Fatal("expected WHERE marker")
	}
	if where.Kind != "WhereInfo" || !strings.Contains(where.Label, "deleted_at") {
		t.Errorf("unexpected where marker: %+v", where)
	}

	edges := orderEdges(t, doc)
	if _, ok := edges["staging.orders__columns__deleted_at-mart.orders__WHERE"]; !ok {
		t.Error("expected edge into WHERE marker")
	}
}

func TestBuild_PhysicalOnly(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{PhysicalOnly: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, ok := findObject(doc, "mart.orders__JOIN"); ok {
		t.Error("physical-only documents should not contain JOIN markers")
	}
	if _, ok := findObject(doc, "mart.orders__WHERE"); ok {
		t.Error("physical-only documents should not contain WHERE markers")
	}
	for _, c := range doc.Connections {
		if strings.HasSuffix(c.Target, "__JOIN") || strings.HasSuffix(c.Target, "__WHERE") {
			t.Errorf("physical-only documents should not contain marker edges: %+v", c)
		}
	}
}

func TestBuild_DomainPanel(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	panel, ok := findObject(doc, "domain__sales")
	if !ok {
		t.Fatal("expected a domain panel")
	}
	if panel.Kind != "TextInfoPanel" || panel.Domain != "sales" {
		t.Errorf("unexpected panel: %+v", panel)
	}

	domains := doc.Domains()
	if len(domains) != 1 || domains[0] != "sales" {
		t.Errorf("expected domains [sales], got %v", domains)
	}
}

func TestBuild_DuplicateTarget(t *testing.T) {
	queries := []QueryLineage{
		{Target: "t", Columns: []ColumnLineage{{Name: "a"}}},
		{Target: "t", Columns: []ColumnLineage{{Name: "b"}}},
	}
	if _, err := Build(queries, Options{}); err == nil {
		t.Error("expected error for duplicate target")
	}
}

func TestBuild_DocumentLoadsIntoGraph(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	g, err := doc.Graph()
	if err != nil {
		t.Fatalf("document did not load into the graph model: %v", err)
	}
	if g.NodeCount() != len(doc.Objects) {
		t.Errorf("expected %d nodes, got %d", len(doc.Objects), g.NodeCount())
	}

	// The built document supports the highlight engine end to end.
	a, err := g.SelectColumnOrMarker("mart.orders__columns__order_id")
	if err != nil {
		t.Fatalf("SelectColumnOrMarker failed: %v", err)
	}
	if a.Nodes["staging.orders__columns__id"] != sqlgraph.StateHighlighted {
		t.Errorf("expected source column highlighted, got %v", a.Nodes["staging.orders__columns__id"])
	}
}

func TestBuild_LayoutPlacesSourcesLeft(t *testing.T) {
	doc, err := Build(sampleQueries(), Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	src, _ := findObject(doc, "staging.orders")
	dst, _ := findObject(doc, "mart.orders")
	if src.Position.X >= dst.Position.X {
		t.Errorf("source table at x=%v should be left of target at x=%v", src.Position.X, dst.Position.X)
	}
}

func TestBuild_CycleBreaking(t *testing.T) {
	queries := []QueryLineage{
		{
			Target:  "a",
			Columns: []ColumnLineage{{Name: "x", Sources: []SourceRef{{Table: "b", Column: "y"}}}},
		},
		{
			Target:  "b",
			Columns: []ColumnLineage{{Name: "y", Sources: []SourceRef{{Table: "a", Column: "x"}}}},
		},
	}
	doc, err := Build(queries, Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var breaker *Object
	for i := range doc.Objects {
		if doc.Objects[i].Kind == "CycleBreakerTable" {
			breaker = &doc.Objects[i]
			break
		}
	}
	if breaker == nil {
		t.Fatal("expected a cycle breaker table")
	}
	if !strings.Contains(breaker.ID, "__copy_for__") {
		t.Errorf("unexpected breaker id %q", breaker.ID)
	}
	if !strings.HasSuffix(breaker.Label, "(Copy)") {
		t.Errorf("breaker label should mark it as a copy, got %q", breaker.Label)
	}

	// The breaker has no incoming edges: it is a pure copy.
	for _, c := range doc.Connections {
		if strings.HasPrefix(c.Target, breaker.ID+"__") {
			t.Errorf("cycle breaker should have no incoming edges, found %+v", c)
		}
	}

	// The document still loads and the table relation is acyclic enough
	// for traversal to terminate.
	g, err := doc.Graph()
	if err != nil {
		t.Fatalf("document did not load: %v", err)
	}
	if _, err := g.SelectTable("a"); err != nil {
		t.Fatalf("SelectTable on a formerly cyclic table failed: %v", err)
	}
}

func TestBuild_EmptyTarget(t *testing.T) {
	if _, err := Build([]QueryLineage{{Target: ""}}, Options{}); err == nil {
		t.Error("expected error for empty target")
	}
}
