package grid

import (
	"fmt"

	"github.com/matzehuels/layouttester/pkg/errors"
)

// Cell is one populated world coordinate.
type Cell struct {
	X, Y      float64   // World coordinates as read from the fixture
	Content   string    // Terrain/reservation label, replaced by some constructions
	Marker    string    // Construction marker, empty until something is planned here
	Direction Direction // Construction direction, DirectionUnset until planned
}

// NewCell creates an unmarked cell.
func NewCell(x, y float64, content string) *Cell {
	return &Cell{X: x, Y: y, Content: content, Direction: DirectionUnset}
}

// Position returns the cell's world coordinate.
func (c *Cell) Position() Position {
	return Position{X: c.X, Y: c.Y}
}

// HasMarker reports whether a construction was deposited on the cell.
func (c *Cell) HasMarker() bool {
	return c.Marker != ""
}

// Deposit records a planned construction. name is the planned entity's name and
// is only used for reporting. An empty content keeps the cell's label.
// A second deposit on the same cell fails with *ConflictError and leaves the cell untouched.
func (c *Cell) Deposit(name, marker, content string, dir Direction) error {
	if c.HasMarker() {
		return &ConflictError{Name: name, Marker: marker, Existing: c.Marker, At: c.Position()}
	}
	if marker == "" {
		return errors.New(errors.ErrCodeInvalidInput, "empty construction marker for %s at %s", name, c.Position())
	}
	c.Marker = marker
	if content != "" {
		c.Content = content
	}
	c.Direction = dir
	return nil
}

// ConflictError reports two constructions planned onto one cell.
type ConflictError struct {
	Name     string   // Incoming entity name
	Marker   string   // Incoming marker
	Existing string   // Marker already on the cell
	At       Position // Cell coordinate
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("can't add %s (%s) at position %s: a %s is already assigned here",
		e.Name, e.Marker, e.At, e.Existing)
}

// ErrorCode implements errors.Coder.
func (e *ConflictError) ErrorCode() errors.Code {
	return errors.ErrCodeConflict
}
