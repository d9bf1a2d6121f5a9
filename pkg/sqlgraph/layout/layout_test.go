package layout

import "testing"

func TestAssign_Empty(t *testing.T) {
	positions := Assign(nil)
	if len(positions) != 0 {
		t.Errorf("expected empty result, got %v", positions)
	}
}

func TestAssign_SourcesLeftOfDependents(t *testing.T) {
	tables := []Table{
		{ID: "mart", Width: 200, Height: 100, Sources: []string{"staging"}},
		{ID: "staging", Width: 200, Height: 100, Sources: []string{"raw"}},
		{ID: "raw", Width: 200, Height: 100},
	}
	positions := Assign(tables)

	if positions["raw"].X >= positions["staging"].X {
		t.Errorf("raw (%v) should be left of staging (%v)", positions["raw"].X, positions["staging"].X)
	}
	if positions["staging"].X >= positions["mart"].X {
		t.Errorf("staging (%v) should be left of mart (%v)", positions["staging"].X, positions["mart"].X)
	}
}

func TestAssign_ColumnSpacingUsesMaxWidth(t *testing.T) {
	tables := []Table{
		{ID: "wide", Width: 500, Height: 100},
		{ID: "narrow", Width: 100, Height: 100},
		{ID: "sink", Width: 200, Height: 100, Sources: []string{"wide", "narrow"}},
	}
	positions := Assign(tables)

	gap := positions["sink"].X - positions["wide"].X
	if gap != 500+TableXSpacing {
		t.Errorf("expected gap of %v, got %v", 500+TableXSpacing, gap)
	}
}

func TestAssign_StackingWithinColumn(t *testing.T) {
	tables := []Table{
		{ID: "a", Width: 200, Height: 120},
		{ID: "b", Width: 200, Height: 80},
	}
	positions := Assign(tables)

	if positions["a"].X != positions["b"].X {
		t.Error("tables without sources should share a column")
	}
	if positions["b"].Y-positions["a"].Y != 120+TableYSpacing {
		t.Errorf("expected b stacked %v below a, got %v", 120+TableYSpacing, positions["b"].Y-positions["a"].Y)
	}
}

func TestAssign_ShortColumnCentered(t *testing.T) {
	// Left column has two tables, right column one; the single table
	// should be pushed down to center on the taller column.
	tables := []Table{
		{ID: "a", Width: 200, Height: 100},
		{ID: "b", Width: 200, Height: 100},
		{ID: "sink", Width: 200, Height: 100, Sources: []string{"a", "b"}},
	}
	positions := Assign(tables)

	if positions["sink"].Y <= 0 {
		t.Errorf("expected sink to be centered below the column top, got %v", positions["sink"].Y)
	}
}

func TestAssign_UnknownSourceIgnored(t *testing.T) {
	tables := []Table{
		{ID: "a", Width: 200, Height: 100, Sources: []string{"not-present"}},
	}
	positions := Assign(tables)
	if _, ok := positions["a"]; !ok {
		t.Fatal("expected a position for a")
	}
}

func TestAssign_CycleDoesNotHang(t *testing.T) {
	tables := []Table{
		{ID: "a", Width: 200, Height: 100, Sources: []string{"b"}},
		{ID: "b", Width: 200, Height: 100, Sources: []string{"a"}},
	}
	positions := Assign(tables)
	if len(positions) != 2 {
		t.Errorf("expected positions for both tables, got %v", positions)
	}
}
