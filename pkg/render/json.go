package render

import (
	"encoding/json"

	"github.com/matzehuels/layouttester/pkg/grid"
)

type jsonOutput struct {
	Width        float64           `json:"width"`
	Height       float64           `json:"height"`
	Cell         float64           `json:"cell"`
	OffsetX      float64           `json:"offset_x"`
	OffsetY      float64           `json:"offset_y"`
	Bounds       grid.Bounds       `json:"bounds"`
	ExtractorBox *grid.BoundingBox `json:"extractor_box,omitempty"`
	BeaconBox    *grid.BoundingBox `json:"beacon_box,omitempty"`
	Planned      int               `json:"planned"`
	Tiles        []jsonTile        `json:"tiles"`
}

type jsonTile struct {
	WorldX    float64 `json:"world_x"`
	WorldY    float64 `json:"world_y"`
	Content   string  `json:"content"`
	Marker    string  `json:"marker,omitempty"`
	Direction string  `json:"direction,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Fill      string  `json:"fill"`
	Footprint bool    `json:"footprint,omitempty"`
}

// RenderJSON serializes the projected tiles of a layout in drawing order.
func RenderJSON(result *grid.LayoutResult, width, height float64, pal Palette) ([]byte, error) {
	out := jsonOutput{Width: width, Height: height, Tiles: []jsonTile{}}
	var g *grid.Grid
	if result != nil {
		g = result.Grid
		out.Bounds = result.Bounds
		out.ExtractorBox = result.ExtractorBox
		out.BeaconBox = result.BeaconBox
	}
	proj := NewProjection(g, width, height)
	out.Cell, out.OffsetX, out.OffsetY = proj.Cell, proj.OffsetX, proj.OffsetY
	if g != nil {
		out.Planned = g.Marked()
	}

	for _, t := range Tiles(result, proj, pal) {
		jt := jsonTile{
			WorldX:    t.Cell.X,
			WorldY:    t.Cell.Y,
			Content:   t.Cell.Content,
			Marker:    t.Cell.Marker,
			X:         t.X,
			Y:         t.Y,
			Width:     t.W,
			Height:    t.H,
			Fill:      t.Fill.Hex(),
			Footprint: t.Footprint,
		}
		if t.Cell.Direction.Valid() {
			jt.Direction = t.Cell.Direction.String()
		}
		out.Tiles = append(out.Tiles, jt)
	}
	return json.MarshalIndent(out, "", "  ")
}
