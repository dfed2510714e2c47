package pipeline

import (
	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// contextValue builds the shared stage context:
//
//	{ warnings = {}, area_bounds = {left_top = {x, y}, right_bottom = {x, y}},
//	  area = { [x] = { [y] = label } } }
func contextValue(fx *fixture.Fixture) bridge.Value {
	area := bridge.NewMapping()
	for _, col := range fx.Grid.Columns() {
		rows := bridge.NewMapping()
		for _, c := range col.Cells() {
			rows.Set(bridge.Number(c.Y), bridge.Text(c.Content))
		}
		area.Set(bridge.Number(col.X), bridge.Map(rows))
	}

	bounds := bridge.NewMapping().
		SetField("left_top", positionValue(fx.Bounds.LeftTop)).
		SetField("right_bottom", positionValue(fx.Bounds.RightBottom))

	return bridge.Map(bridge.NewMapping().
		SetField("warnings", bridge.Sequence()).
		SetField("area_bounds", bridge.Map(bounds)).
		SetField("area", bridge.Map(area)))
}

func positionValue(p grid.Position) bridge.Value {
	return bridge.Map(bridge.NewMapping().
		SetField("x", bridge.Number(p.X)).
		SetField("y", bridge.Number(p.Y)))
}

// boxFromValue reads {left_top = {x, y}, right_bottom = {x, y}}. Anything
// else yields nil.
func boxFromValue(v bridge.Value) *grid.BoundingBox {
	lt, ok1 := positionFromValue(v.Field("left_top"))
	rb, ok2 := positionFromValue(v.Field("right_bottom"))
	if !ok1 || !ok2 {
		return nil
	}
	return &grid.BoundingBox{LeftTop: lt, RightBottom: rb}
}

func positionFromValue(v bridge.Value) (grid.Position, bool) {
	x, ok1 := number(v.Field("x"))
	y, ok2 := number(v.Field("y"))
	return grid.Position{X: x, Y: y}, ok1 && ok2
}

func number(v bridge.Value) (float64, bool) {
	if n, ok := v.AsNumber(); ok {
		return n, true
	}
	if s, ok := v.AsText(); ok {
		n, err := grid.ParseCoord(s)
		return n, err == nil
	}
	return 0, false
}
