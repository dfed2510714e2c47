package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/layouttester/pkg/errors"
)

// keyScale is the number of Key units per world unit.
const keyScale = 1 << 10

// Key is the canonical fixed-precision form of a world coordinate.
// Two coordinates map to the same Key when they agree to within 1/1024 of a tile,
// which is far below the half-tile resolution pipelines work with.
type Key int64

// KeyOf canonicalises a world coordinate.
func KeyOf(v float64) Key {
	return Key(math.Round(v * keyScale))
}

// Float returns the world coordinate the key stands for.
func (k Key) Float() float64 {
	return float64(k) / keyScale
}

// String formats the key the way coordinates appear in fixtures.
func (k Key) String() string {
	return FormatCoord(k.Float())
}

// ParseCoord parses coordinate text in the locale-invariant fixture format:
// an optional sign, digits and an optional '.' fraction or exponent.
// Comma decimals, hex floats, NaN and infinities are rejected with a FORMAT error.
func ParseCoord(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, errors.New(errors.ErrCodeFormat, "empty coordinate")
	}
	for _, r := range t {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return 0, errors.New(errors.ErrCodeFormat, "invalid coordinate %q", s)
		}
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "invalid coordinate %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New(errors.ErrCodeFormat, "coordinate out of range %q", s)
	}
	return v, nil
}

// FormatCoord renders a coordinate with the shortest exact representation and a '.' separator.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Position is a point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("x=%s,y=%s", FormatCoord(p.X), FormatCoord(p.Y))
}

// Bounds is the valid placement region of a fixture. Both corners are inclusive.
type Bounds struct {
	LeftTop     Position `json:"left_top"`
	RightBottom Position `json:"right_bottom"`
}

// Contains reports whether (x, y) lies inside the bounds, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.LeftTop.X && x <= b.RightBottom.X &&
		y >= b.LeftTop.Y && y <= b.RightBottom.Y
}

// Rect is an axis-aligned world-space rectangle.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// BoundingBox holds signed offsets relative to an anchor cell.
// Negative offsets extend left/up, positive offsets extend right/down.
type BoundingBox struct {
	LeftTop     Position `json:"left_top"`
	RightBottom Position `json:"right_bottom"`
}

// Inflate returns the world-space rectangle covered by an entity anchored at the
// 1x1 cell whose top-left corner is anchor. The anchor cell spans
// [anchor, anchor+1) and is grown by the offsets on each side, so
// anchor (10,10) with offsets (-1,-1)/(2,2) covers x,y in [9,13].
func (b BoundingBox) Inflate(anchor Position) Rect {
	return Rect{
		Left:   anchor.X + b.LeftTop.X,
		Top:    anchor.Y + b.LeftTop.Y,
		Right:  anchor.X + 1 + b.RightBottom.X,
		Bottom: anchor.Y + 1 + b.RightBottom.Y,
	}
}
