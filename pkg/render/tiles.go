package render

import (
	"github.com/matzehuels/layouttester/pkg/grid"
)

// Marker font size limits in pixels.
const (
	minMarkerFont = 6
	maxMarkerFont = 24
)

// Tile is one drawable cell in pixel space.
type Tile struct {
	X, Y, W, H float64    // Pixel rectangle
	CX, CY     float64    // Center, for marker text
	Fill       Color      // Fill colour
	FontSize   float64    // Marker font size, 0 when the cell has no marker
	Footprint  bool       // Drawn in the second pass with an inflated extent
	Cell       *grid.Cell // Source cell
}

// Tiles lays out every cell of r. Ordinary cells come first in column then
// row order, followed by footprint cells in the same order.
func Tiles(r *grid.LayoutResult, proj *Projection, pal Palette) []Tile {
	if r == nil || r.Grid == nil || proj.Cell <= 0 {
		return nil
	}
	cells := r.Grid.Cells()
	tiles := make([]Tile, 0, len(cells))
	var deferred []*grid.Cell
	for _, c := range cells {
		if grid.IsFootprintContent(c.Content) {
			deferred = append(deferred, c)
			continue
		}
		tiles = append(tiles, newTile(c, nil, proj, pal, false))
	}
	for _, c := range deferred {
		tiles = append(tiles, newTile(c, r.Footprint(c.Content), proj, pal, true))
	}
	return tiles
}

func newTile(c *grid.Cell, box *grid.BoundingBox, proj *Projection, pal Palette, footprint bool) Tile {
	x, y, w, h := proj.Pixels(c.Position(), box)
	t := Tile{
		X: x, Y: y, W: w, H: h,
		CX:        x + w/2,
		CY:        y + h/2,
		Fill:      pal.Fill(c),
		Footprint: footprint,
		Cell:      c,
	}
	if c.HasMarker() {
		t.FontSize = markerFontSize(w, h)
	}
	return t
}

func markerFontSize(w, h float64) float64 {
	return min(maxMarkerFont, max(minMarkerFont, min(w, h)*0.6))
}
