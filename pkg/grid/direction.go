package grid

// Direction is a 16-point compass value, north=0 increasing clockwise.
// Quarter turns are multiples of 4.
type Direction int

// DirectionUnset marks a cell nothing was planned on.
const DirectionUnset Direction = -1

const (
	North Direction = iota
	NorthNorthEast
	NorthEast
	EastNorthEast
	East
	EastSouthEast
	SouthEast
	SouthSouthEast
	South
	SouthSouthWest
	SouthWest
	WestSouthWest
	West
	WestNorthWest
	NorthWest
	NorthNorthWest
)

// directionNames are the names pipelines see in defines.direction.
var directionNames = [...]string{
	"north",
	"northnortheast",
	"northeast",
	"eastnortheast",
	"east",
	"eastsoutheast",
	"southeast",
	"southsoutheast",
	"south",
	"southsouthwest",
	"southwest",
	"westsouthwest",
	"west",
	"westnorthwest",
	"northwest",
	"northnorthwest",
}

// ParseDirection looks up a compass name such as "east" or "southsouthwest".
func ParseDirection(name string) (Direction, bool) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), true
		}
	}
	return DirectionUnset, false
}

// DirectionNames returns the compass names indexed by direction value.
func DirectionNames() []string {
	return directionNames[:]
}

// Valid reports whether d is one of the 16 compass values.
func (d Direction) Valid() bool {
	return d >= North && d <= NorthNorthWest
}

func (d Direction) String() string {
	if !d.Valid() {
		return "unset"
	}
	return directionNames[d]
}
