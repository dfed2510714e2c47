// Package fixture reads area reservation fixtures.
//
// A fixture is a JSON document describing a sparse reservation grid and the
// rectangle planned entities must stay inside:
//
//	{
//	  "area": {"<x>": {"<y>": "<label>"}},
//	  "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 9, "y": 9}},
//	  "footprints": {"beacon": {"left_top": {...}, "right_bottom": {...}}}
//	}
//
// Coordinates may be JSON numbers or decimal text; text always uses '.' as the
// decimal separator regardless of the process locale. The optional footprints
// object seeds the extractor/beacon bounding boxes for pipelines that do not
// publish them from their toolbox.
//
// [Parse] validates the document against an embedded JSON schema first, so a
// structurally wrong fixture fails with a SCHEMA error before any coordinate
// is parsed. Malformed coordinate text fails with a FORMAT error.
package fixture

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

//go:embed fixture.schema.json
var schemaText string

var (
	schema     *jsonschema.Schema
	schemaOnce sync.Once
)

func fixtureSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		schema = jsonschema.MustCompileString("fixture.schema.json", schemaText)
	})
	return schema
}

// Fixture is a parsed fixture document.
type Fixture struct {
	Grid         *grid.Grid
	Bounds       grid.Bounds
	ExtractorBox *grid.BoundingBox
	BeaconBox    *grid.BoundingBox
}

// coord accepts a JSON number or decimal text.
type coord float64

func (c *coord) UnmarshalJSON(data []byte) error {
	text := string(bytes.Trim(data, `"`))
	v, err := grid.ParseCoord(text)
	if err != nil {
		return err
	}
	*c = coord(v)
	return nil
}

type rawPosition struct {
	X coord `json:"x"`
	Y coord `json:"y"`
}

func (p rawPosition) position() grid.Position {
	return grid.Position{X: float64(p.X), Y: float64(p.Y)}
}

type rawBox struct {
	LeftTop     rawPosition `json:"left_top"`
	RightBottom rawPosition `json:"right_bottom"`
}

func (b *rawBox) boundingBox() *grid.BoundingBox {
	if b == nil {
		return nil
	}
	return &grid.BoundingBox{LeftTop: b.LeftTop.position(), RightBottom: b.RightBottom.position()}
}

type rawFixture struct {
	Area       map[string]map[string]string `json:"area"`
	AreaBounds *rawBox                      `json:"area_bounds"`
	Footprints struct {
		Extractor *rawBox `json:"extractor"`
		Beacon    *rawBox `json:"beacon"`
	} `json:"footprints"`
}

// Parse builds a fresh grid from fixture text. Every cell starts without a
// construction marker. Parsing the same text twice yields identical grids.
func Parse(data []byte) (*Fixture, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "malformed fixture text")
	}
	if err := fixtureSchema().Validate(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "fixture does not match schema")
	}

	var raw rawFixture
	if err := json.Unmarshal(data, &raw); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "malformed fixture text")
	}
	if raw.AreaBounds == nil {
		return nil, errors.New(errors.ErrCodeSchema, "area_bounds is required")
	}

	g := grid.New()
	// Distinct spellings of one coordinate ("1" and "1.0") would otherwise
	// overwrite each other in map order.
	xTexts := make(map[grid.Key]string, len(raw.Area))
	for xText, column := range raw.Area {
		x, err := grid.ParseCoord(xText)
		if err != nil {
			return nil, err
		}
		if prev, ok := xTexts[grid.KeyOf(x)]; ok {
			return nil, errors.New(errors.ErrCodeFormat, "duplicate column key %q (same coordinate as %q)", xText, prev)
		}
		xTexts[grid.KeyOf(x)] = xText

		yTexts := make(map[grid.Key]string, len(column))
		for yText, label := range column {
			y, err := grid.ParseCoord(yText)
			if err != nil {
				return nil, err
			}
			if prev, ok := yTexts[grid.KeyOf(y)]; ok {
				return nil, errors.New(errors.ErrCodeFormat, "duplicate row key %q in column %q (same coordinate as %q)", yText, xText, prev)
			}
			yTexts[grid.KeyOf(y)] = yText
			g.Add(x, y, label)
		}
	}

	return &Fixture{
		Grid: g,
		Bounds: grid.Bounds{
			LeftTop:     raw.AreaBounds.LeftTop.position(),
			RightBottom: raw.AreaBounds.RightBottom.position(),
		},
		ExtractorBox: raw.Footprints.Extractor.boundingBox(),
		BeaconBox:    raw.Footprints.Beacon.boundingBox(),
	}, nil
}
