package render

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/layouttester/pkg/grid"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Projection maps world coordinates onto a uniform pixel raster. Columns
// and rows are laid out by rank, so gaps and uneven spacing between
// populated coordinates do not stretch the drawing.
type Projection struct {
	Width, Height    float64 // Canvas size
	Cell             float64 // Edge length of one square cell
	OffsetX, OffsetY float64 // Top-left corner of the drawn grid
	MinX, MinY       float64 // Smallest populated world coordinate per axis
	Columns, Rows    int     // Distinct x and y values

	g      *grid.Grid
	xs, ys []grid.Key
}

// NewProjection fits g into a width x height canvas. An empty grid yields a
// projection with zero cell size on which every hit test misses.
func NewProjection(g *grid.Grid, width, height float64) *Projection {
	p := &Projection{Width: width, Height: height, g: g}
	if g == nil || g.Len() == 0 || width <= 0 || height <= 0 {
		return p
	}
	p.xs, p.ys = g.XKeys(), g.YKeys()
	p.Columns, p.Rows = len(p.xs), len(p.ys)
	p.MinX, p.MinY = p.xs[0].Float(), p.ys[0].Float()
	p.Cell = math.Min(width/float64(p.Columns), height/float64(p.Rows))
	p.OffsetX = (width - float64(p.Columns)*p.Cell) / 2
	p.OffsetY = (height - float64(p.Rows)*p.Cell) / 2
	return p
}

// rank returns the position of world among keys. A value between two
// populated coordinates lies past the lower one by its world distance,
// capped below the next rank.
func rank(keys []grid.Key, world float64) float64 {
	k := grid.KeyOf(world)
	i, found := slices.BinarySearch(keys, k)
	switch {
	case found:
		return float64(i)
	case i == 0:
		if len(keys) == 0 {
			return 0
		}
		return world - keys[0].Float()
	}
	return float64(i-1) + math.Min(world-keys[i-1].Float(), 1)
}

// X returns the pixel column of world x.
func (p *Projection) X(world float64) float64 {
	return p.OffsetX + rank(p.xs, world)*p.Cell
}

// Y returns the pixel row of world y.
func (p *Projection) Y(world float64) float64 {
	return p.OffsetY + rank(p.ys, world)*p.Cell
}

// Pixels returns the pixel rectangle of the cell anchored at anchor. A
// non-nil box inflates it by its offsets, measured in cells.
func (p *Projection) Pixels(anchor grid.Position, box *grid.BoundingBox) (x, y, w, h float64) {
	x, y, w, h = p.X(anchor.X), p.Y(anchor.Y), p.Cell, p.Cell
	if box == nil {
		return x, y, w, h
	}
	r := box.Inflate(grid.Position{})
	return x + r.Left*p.Cell, y + r.Top*p.Cell, r.Width() * p.Cell, r.Height() * p.Cell
}

// CellAt returns the cell in column col and row row of the raster.
func (p *Projection) CellAt(col, row int) (*grid.Cell, bool) {
	if p.g == nil || col < 0 || row < 0 || col >= len(p.xs) || row >= len(p.ys) {
		return nil, false
	}
	return p.g.Lookup(p.xs[col], p.ys[row])
}

// Hit is the result of a successful hit test.
type Hit struct {
	Cell *grid.Cell
}

// Text is the inspection popup text for the hit cell.
func (h Hit) Text() string {
	return CellTitle(h.Cell)
}

// CellTitle formats a cell's world coordinate for popups and tooltips.
func CellTitle(c *grid.Cell) string {
	return fmt.Sprintf("World: X=%s, Y=%s", grid.FormatCoord(c.X), grid.FormatCoord(c.Y))
}

// HitTest returns the cell under pixel (px, py). Pointers outside the drawn
// grid, on unpopulated coordinates, or on cells without a label miss.
func (p *Projection) HitTest(px, py float64) (Hit, bool) {
	if p.Cell <= 0 || p.g == nil {
		return Hit{}, false
	}
	col := math.Floor((px - p.OffsetX) / p.Cell)
	row := math.Floor((py - p.OffsetY) / p.Cell)
	if col < 0 || row < 0 {
		return Hit{}, false
	}
	cell, ok := p.CellAt(int(col), int(row))
	if !ok || cell.Content == "" {
		return Hit{}, false
	}
	return Hit{Cell: cell}, true
}
