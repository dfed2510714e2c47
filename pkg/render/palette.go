package render

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// Named colours used by the default palette.
var (
	Green      = Color{0x00, 0x80, 0x00}
	DarkGray   = Color{0xA9, 0xA9, 0xA9}
	DarkRed    = Color{0x8B, 0x00, 0x00}
	DarkOrange = Color{0xFF, 0x8C, 0x00}
	PoleBlue   = Color{0x51, 0x51, 0xB3}
	Red        = Color{0xFF, 0x00, 0x00}
	Lavender   = Color{0xE6, 0xE6, 0xFA}
	Magenta    = Color{0xFF, 0x00, 0xFF}
	Blue       = Color{0x00, 0x00, 0xFF}
	White      = Color{0xFF, 0xFF, 0xFF}
	Black      = Color{0x00, 0x00, 0x00}
)

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor reads "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, errors.New(errors.ErrCodeInvalidConfig, "invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid colour %q", s)
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Brighten lightens c according to a placement ordinal so that later
// placements in a chain are drawn lighter. The first placement keeps c.
func Brighten(c Color, ordinal int) Color {
	step := ordinal - 1
	amount := 0
	if step > 0 {
		amount = 64
	}
	amount += min(64, step*2)
	amount = max(0, amount)
	return Color{lighten(c.R, amount), lighten(c.G, amount), lighten(c.B, amount)}
}

func lighten(v uint8, amount int) uint8 {
	return uint8(min(255, int(v)+amount))
}

// Label used for ordinal-ramped cells.
const heatPipeLabel = "heat-pipe"

// Palette maps cell labels to fill colours.
type Palette struct {
	Colors  map[string]Color
	Default Color
}

// DefaultPalette returns the standard label colours.
func DefaultPalette() Palette {
	return Palette{
		Colors: map[string]Color{
			"can-build":         Green,
			"buildable":         Green,
			"oil-well":          DarkGray,
			"can-not-build":     DarkRed,
			"blocked":           DarkRed,
			"reserved-for-pump": DarkOrange,
			"reserved":          DarkOrange,
			"power_pole":        PoleBlue,
			heatPipeLabel:       Red,
			"pipe":              Lavender,
			grid.ContentBeacon:  Magenta,
		},
		Default: Blue,
	}
}

// With returns a copy of p with hex colour overrides applied.
func (p Palette) With(overrides map[string]string) (Palette, error) {
	out := Palette{Colors: maps.Clone(p.Colors), Default: p.Default}
	if out.Colors == nil {
		out.Colors = map[string]Color{}
	}
	for label, hex := range overrides {
		c, err := ParseColor(hex)
		if err != nil {
			return p, err
		}
		out.Colors[label] = c
	}
	return out, nil
}

// Fill returns the colour used to draw c. Heat pipes are ramped by their
// placement ordinal, read from the cell's marker.
func (p Palette) Fill(c *grid.Cell) Color {
	base, ok := p.Colors[c.Content]
	if !ok {
		base = p.Default
	}
	if c.Content == heatPipeLabel {
		ordinal, _ := strconv.Atoi(c.Marker)
		return Brighten(base, ordinal)
	}
	return base
}
