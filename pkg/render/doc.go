// Package render draws a merged layout grid.
//
// # Projection
//
// World coordinates are irregular reals, so the grid is first projected onto
// a uniform pixel raster. [NewProjection] picks a square cell size that fits
// every distinct column and row into the canvas and centers the result:
//
//	cell   = min(width / columns, height / rows)
//	pixel  = offset + (world - minWorld) * cell
//
// [Projection.HitTest] inverts the transform to find the cell under a pointer.
//
// # Drawing order
//
// [Tiles] lays cells out in two passes. Ordinary cells are 1x1 tiles and are
// emitted first. Footprint cells (extractors and beacons) are inflated by the
// layout's bounding boxes and emitted last so they cover their neighbours.
// [RenderSVG] and [RenderJSON] both consume the same tile list.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert the SVG using the external rsvg-convert tool
// (from librsvg).
//
//	svg := render.RenderSVG(result, render.WithSize(800, 600))
//	png, err := render.ToPNG(svg, 2.0)
package render
