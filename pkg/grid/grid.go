package grid

import (
	"maps"
	"slices"
)

// Column holds the cells sharing one x coordinate.
type Column struct {
	X     float64
	cells map[Key]*Cell
}

// Cell returns the cell at row y.
func (c *Column) Cell(y float64) (*Cell, bool) {
	cell, ok := c.cells[KeyOf(y)]
	return cell, ok
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.cells)
}

// Cells returns the column's cells ordered by y.
func (c *Column) Cells() []*Cell {
	out := make([]*Cell, 0, len(c.cells))
	for _, k := range slices.Sorted(maps.Keys(c.cells)) {
		out = append(out, c.cells[k])
	}
	return out
}

// Grid is a sparse 2D cell container addressed by real-valued coordinates.
// A Grid is not safe for concurrent mutation; a run owns it exclusively until
// it is handed to the visualizer.
type Grid struct {
	columns map[Key]*Column
}

// New creates an empty grid.
func New() *Grid {
	return &Grid{columns: make(map[Key]*Column)}
}

// Add inserts an unmarked cell at (x, y). If the coordinate is already
// populated the existing cell is returned with its label replaced.
func (g *Grid) Add(x, y float64, content string) *Cell {
	xk := KeyOf(x)
	col, ok := g.columns[xk]
	if !ok {
		col = &Column{X: x, cells: make(map[Key]*Cell)}
		g.columns[xk] = col
	}
	yk := KeyOf(y)
	if cell, ok := col.cells[yk]; ok {
		cell.Content = content
		return cell
	}
	cell := NewCell(x, y, content)
	col.cells[yk] = cell
	return cell
}

// Column returns the column at x.
func (g *Grid) Column(x float64) (*Column, bool) {
	col, ok := g.columns[KeyOf(x)]
	return col, ok
}

// Cell returns the cell at (x, y).
func (g *Grid) Cell(x, y float64) (*Cell, bool) {
	col, ok := g.Column(x)
	if !ok {
		return nil, false
	}
	return col.Cell(y)
}

// Lookup returns the cell stored under canonical keys.
func (g *Grid) Lookup(x, y Key) (*Cell, bool) {
	col, ok := g.columns[x]
	if !ok {
		return nil, false
	}
	cell, ok := col.cells[y]
	return cell, ok
}

// Len returns the number of populated cells.
func (g *Grid) Len() int {
	n := 0
	for _, col := range g.columns {
		n += len(col.cells)
	}
	return n
}

// Columns returns the columns ordered by x.
func (g *Grid) Columns() []*Column {
	out := make([]*Column, 0, len(g.columns))
	for _, k := range g.XKeys() {
		out = append(out, g.columns[k])
	}
	return out
}

// XKeys returns the distinct column keys in ascending order.
func (g *Grid) XKeys() []Key {
	return slices.Sorted(maps.Keys(g.columns))
}

// YKeys returns the distinct row keys across all columns in ascending order.
func (g *Grid) YKeys() []Key {
	seen := make(map[Key]struct{})
	for _, col := range g.columns {
		for k := range col.cells {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Cells returns every cell ordered by x, then y.
func (g *Grid) Cells() []*Cell {
	out := make([]*Cell, 0, g.Len())
	for _, col := range g.Columns() {
		out = append(out, col.Cells()...)
	}
	return out
}

// Marked returns the number of cells carrying a construction marker.
func (g *Grid) Marked() int {
	n := 0
	for _, col := range g.columns {
		for _, c := range col.cells {
			if c.HasMarker() {
				n++
			}
		}
	}
	return n
}
