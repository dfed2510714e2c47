// Package grid provides the sparse reservation grid shared by every stage of a
// layout test run.
//
// A [Grid] maps a column coordinate to a [Column], and a column maps a row
// coordinate to a [Cell]. Only populated cells exist; a missing cell means the
// fixture never described that position, not that it is empty.
//
// # Coordinates
//
// World coordinates are real numbers, but map lookups never use float64 keys.
// Every coordinate is canonicalised once into a fixed-precision [Key] with
// [KeyOf], so a value that went through the scripting runtime and back still
// finds its cell:
//
//	x, err := grid.ParseCoord("12.5")
//	cell, ok := g.Cell(x, y)
//
// # Construction markers
//
// A cell carries at most one construction marker. [Cell.Deposit] returns a
// [*ConflictError] when something was already planned on the cell.
//
// # Footprints
//
// Extractors and beacons cover more than one cell. Their extent is described
// by a [BoundingBox] of signed offsets which [BoundingBox.Inflate] turns into a
// world-space [Rect] anchored at a cell.
package grid
