// Package layout positions tables of a lineage document on a 2D canvas.
// Tables are placed into grid columns by topological rank along source
// edges (sources to the left of the tables they feed), stacked top to
// bottom within a column, then converted to pixel coordinates and
// vertically centered per column.
package layout

import "sort"

const (
	// TableXSpacing is the horizontal gap between grid columns.
	TableXSpacing = 200
	// TableYSpacing is the vertical gap between tables in a column.
	TableYSpacing = 100
)

// Table is the layout view of a table node: its rendered size and the ids
// of the tables feeding it.
type Table struct {
	ID      string
	Width   float64
	Height  float64
	Sources []string
}

// Position is a pixel coordinate for a table's top-left corner.
type Position struct {
	X float64
	Y float64
}

// Assign computes a position for every table. Unknown source references
// are ignored. The input order is the stacking order within a column, so
// callers should pass tables in a deterministic order.
func Assign(tables []Table) map[string]Position {
	positions := make(map[string]Position, len(tables))
	if len(tables) == 0 {
		return positions
	}

	idx := make(map[string]int, len(tables))
	for i, t := range tables {
		idx[t.ID] = i
	}

	// Grid columns: every table starts at column 0 and sources are pushed
	// left of their dependents until the assignment stabilizes. The
	// iteration bound guards against source cycles, which the builder is
	// expected to have broken already.
	gridX := make([]int, len(tables))
	for iter := 0; iter < len(tables); iter++ {
		changed := false
		for i, t := range tables {
			for _, src := range t.Sources {
				si, ok := idx[src]
				if !ok || si == i {
					continue
				}
				if gridX[si] > gridX[i]-1 {
					gridX[si] = gridX[i] - 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	// Pixel x per column: previous column's x plus its widest table plus
	// spacing.
	maxWidth := make(map[int]float64)
	seen := make(map[int]bool)
	var columns []int
	for i, t := range tables {
		x := gridX[i]
		if t.Width > maxWidth[x] {
			maxWidth[x] = t.Width
		}
		if !seen[x] {
			seen[x] = true
			columns = append(columns, x)
		}
	}
	sort.Ints(columns)

	columnX := make(map[int]float64, len(columns))
	cursor := 0.0
	for i, x := range columns {
		if i > 0 {
			prev := columns[i-1]
			cursor = columnX[prev] + maxWidth[prev] + TableXSpacing
		}
		columnX[x] = cursor
	}

	// Pixel y within each column, accumulating heights.
	columnHeight := make(map[int]float64)
	order := make([][]int, len(columns))
	colSlot := make(map[int]int, len(columns))
	for i, x := range columns {
		colSlot[x] = i
	}
	for i := range tables {
		order[colSlot[gridX[i]]] = append(order[colSlot[gridX[i]]], i)
	}
	yOf := make([]float64, len(tables))
	for ci, members := range order {
		// members stack in input order.
		y := 0.0
		for _, i := range members {
			yOf[i] = y
			y += tables[i].Height + TableYSpacing
		}
		columnHeight[columns[ci]] = y - TableYSpacing
	}

	// Center every column on the tallest one.
	tallest := 0.0
	for _, h := range columnHeight {
		if h > tallest {
			tallest = h
		}
	}
	for i, t := range tables {
		x := gridX[i]
		offset := (tallest - columnHeight[x]) / 2
		positions[t.ID] = Position{X: columnX[x], Y: yOf[i] + offset}
	}
	return positions
}
