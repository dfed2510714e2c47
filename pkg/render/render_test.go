package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/layouttester/pkg/grid"
)

func squareResult() *grid.LayoutResult {
	g := grid.New()
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			g.Add(x, y, "buildable")
		}
	}
	return &grid.LayoutResult{Grid: g, Bounds: grid.Bounds{RightBottom: grid.Position{X: 1, Y: 1}}}
}

func TestNewProjection(t *testing.T) {
	p := NewProjection(squareResult().Grid, 800, 600)

	if p.Cell != 300 {
		t.Errorf("Cell = %v, want 300", p.Cell)
	}
	if p.OffsetX != 100 || p.OffsetY != 0 {
		t.Errorf("offset = (%v, %v), want (100, 0)", p.OffsetX, p.OffsetY)
	}
	if got := p.X(1); got != 400 {
		t.Errorf("X(1) = %v, want 400", got)
	}
	if got := p.Y(1); got != 300 {
		t.Errorf("Y(1) = %v, want 300", got)
	}
}

func TestNewProjectionEmpty(t *testing.T) {
	p := NewProjection(grid.New(), 800, 600)
	if p.Cell != 0 {
		t.Errorf("Cell = %v, want 0", p.Cell)
	}
	if _, ok := p.HitTest(400, 300); ok {
		t.Error("hit on empty grid")
	}
}

func TestHitTest(t *testing.T) {
	p := NewProjection(squareResult().Grid, 800, 600)

	tests := []struct {
		name   string
		px, py float64
		want   string
		hit    bool
	}{
		{"first cell", 150, 10, "World: X=0, Y=0", true},
		{"second column", 420, 10, "World: X=1, Y=0", true},
		{"left margin", 50, 10, "", false},
		{"right margin", 790, 10, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := p.HitTest(tt.px, tt.py)
			if ok != tt.hit {
				t.Fatalf("HitTest() ok = %v, want %v", ok, tt.hit)
			}
			if ok && hit.Text() != tt.want {
				t.Errorf("Text() = %q, want %q", hit.Text(), tt.want)
			}
		})
	}
}

func TestProjectionSparseColumns(t *testing.T) {
	g := grid.New()
	for _, x := range []float64{0, 1, 5} {
		g.Add(x, 0, "buildable")
	}
	beacon, _ := g.Cell(5, 0)
	if err := beacon.Deposit("beacon", "B", grid.ContentBeacon, grid.North); err != nil {
		t.Fatal(err)
	}
	r := &grid.LayoutResult{Grid: g, BeaconBox: &grid.BoundingBox{
		LeftTop:     grid.Position{X: -1, Y: 0},
		RightBottom: grid.Position{X: 1, Y: 0},
	}}
	p := NewProjection(g, 300, 100)

	if p.Cell != 100 || p.Columns != 3 {
		t.Fatalf("Cell = %v, Columns = %d, want 100 and 3", p.Cell, p.Columns)
	}
	if got := p.X(5); got != 200 {
		t.Errorf("X(5) = %v, want 200", got)
	}
	// Footprints may overhang the canvas by their own extent.
	for _, tile := range Tiles(r, p, DefaultPalette()) {
		if tile.Footprint {
			continue
		}
		if tile.X < 0 || tile.X+tile.W > p.Width {
			t.Errorf("tile for x=%v drawn at %v..%v, outside canvas width %v",
				tile.Cell.X, tile.X, tile.X+tile.W, p.Width)
		}
	}

	x, _, w, _ := p.Pixels(beacon.Position(), r.BeaconBox)
	if x != 100 || w != 300 {
		t.Errorf("footprint pixels = x %v w %v, want x 100 w 300", x, w)
	}
	hit, ok := p.HitTest(250, 50)
	if !ok || hit.Cell != beacon {
		t.Fatalf("HitTest(250, 50) = %v, %v, want the x=5 cell", hit.Cell, ok)
	}
	if _, ok := p.HitTest(301, 50); ok {
		t.Error("hit past the last column")
	}
}

func TestHitTestUnlabelled(t *testing.T) {
	g := grid.New()
	g.Add(0, 0, "buildable")
	g.Add(1, 0, "")
	p := NewProjection(g, 200, 100)

	if _, ok := p.HitTest(150, 50); ok {
		t.Error("unlabelled cell reported a hit")
	}
	if _, ok := p.HitTest(50, 50); !ok {
		t.Error("labelled cell missed")
	}
}

func TestBrighten(t *testing.T) {
	tests := []struct {
		ordinal int
		want    Color
	}{
		{0, Red},
		{1, Red},
		{2, Color{255, 66, 66}},
		{10, Color{255, 82, 82}},
		{100, Color{255, 128, 128}},
	}
	for _, tt := range tests {
		if got := Brighten(Red, tt.ordinal); got != tt.want {
			t.Errorf("Brighten(Red, %d) = %v, want %v", tt.ordinal, got, tt.want)
		}
	}
	if got := Brighten(White, 50); got != White {
		t.Errorf("Brighten(White) = %v, want saturated white", got)
	}
}

func TestPaletteFill(t *testing.T) {
	pal := DefaultPalette()
	tests := []struct {
		cell grid.Cell
		want Color
	}{
		{grid.Cell{Content: "buildable"}, Green},
		{grid.Cell{Content: "can-not-build"}, DarkRed},
		{grid.Cell{Content: "reserved-for-pump"}, DarkOrange},
		{grid.Cell{Content: "power_pole", Marker: "4"}, PoleBlue},
		{grid.Cell{Content: "heat-pipe", Marker: "2"}, Color{255, 66, 66}},
		{grid.Cell{Content: "pipe", Marker: "+"}, Lavender},
		{grid.Cell{Content: "something"}, Blue},
	}
	for _, tt := range tests {
		if got := pal.Fill(&tt.cell); got != tt.want {
			t.Errorf("Fill(%q) = %v, want %v", tt.cell.Content, got, tt.want)
		}
	}
}

func TestPaletteWith(t *testing.T) {
	pal, err := DefaultPalette().With(map[string]string{"pipe": "#102030"})
	if err != nil {
		t.Fatal(err)
	}
	if got := pal.Colors["pipe"]; got != (Color{0x10, 0x20, 0x30}) {
		t.Errorf("pipe = %v", got)
	}
	if DefaultPalette().Colors["pipe"] != Lavender {
		t.Error("With() mutated the default palette")
	}
	if _, err := DefaultPalette().With(map[string]string{"pipe": "lavender"}); err == nil {
		t.Error("expected error for non-hex colour")
	}
}

func TestTilesFootprintLast(t *testing.T) {
	r := squareResult()
	beacon, _ := r.Grid.Cell(0, 0)
	if err := beacon.Deposit("beacon", "B", grid.ContentBeacon, grid.North); err != nil {
		t.Fatal(err)
	}
	r.BeaconBox = &grid.BoundingBox{RightBottom: grid.Position{X: 1, Y: 1}}
	p := NewProjection(r.Grid, 800, 600)

	tiles := Tiles(r, p, DefaultPalette())
	if len(tiles) != 4 {
		t.Fatalf("len(tiles) = %d, want 4", len(tiles))
	}
	last := tiles[len(tiles)-1]
	if !last.Footprint || last.Cell != beacon {
		t.Fatalf("last tile = %+v, want the beacon footprint", last)
	}
	if last.W != 600 || last.H != 600 {
		t.Errorf("footprint size = %vx%v, want 600x600", last.W, last.H)
	}
	if last.Fill != Magenta {
		t.Errorf("beacon fill = %v, want magenta", last.Fill)
	}
	if last.FontSize != maxMarkerFont {
		t.Errorf("FontSize = %v, want %v", last.FontSize, maxMarkerFont)
	}
	for _, tile := range tiles[:3] {
		if tile.Footprint || tile.W != 300 {
			t.Errorf("ordinary tile = %+v", tile)
		}
	}
}

func TestTilesFootprintWithoutBox(t *testing.T) {
	r := squareResult()
	c, _ := r.Grid.Cell(1, 1)
	c.Content = grid.ContentExtractor
	tiles := Tiles(r, NewProjection(r.Grid, 800, 600), DefaultPalette())
	last := tiles[len(tiles)-1]
	if last.Cell != c || last.W != 300 {
		t.Errorf("extractor without box = %+v, want 1x1 tile drawn last", last)
	}
}

func TestMarkerFontSize(t *testing.T) {
	tests := []struct{ w, h, want float64 }{
		{300, 300, 24},
		{20, 40, 12},
		{4, 4, 6},
	}
	for _, tt := range tests {
		if got := markerFontSize(tt.w, tt.h); got != tt.want {
			t.Errorf("markerFontSize(%v, %v) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	r := squareResult()
	c, _ := r.Grid.Cell(0, 0)
	if err := c.Deposit("pipe", "+", "pipe", grid.North); err != nil {
		t.Fatal(err)
	}

	svg := RenderSVG(r, WithSize(400, 400), WithBackground(White))
	for _, want := range []string{
		`viewBox="0 0 400.0 400.0"`,
		`class="background"`,
		`<title>World: X=0, Y=0 (pipe) facing north</title>`,
		`stroke-width="0.5"`,
		`>+</text>`,
		`fill="#e6e6fa"`,
	} {
		if !bytes.Contains(svg, []byte(want)) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if n := bytes.Count(svg, []byte("<text")); n != 1 {
		t.Errorf("text elements = %d, want 1", n)
	}

	bare := RenderSVG(r, WithoutTitles())
	if bytes.Contains(bare, []byte("<title>")) {
		t.Error("WithoutTitles() still emitted titles")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := RenderSVG(nil)
	if !bytes.HasPrefix(svg, []byte("<svg")) || !bytes.HasSuffix(svg, []byte("</svg>\n")) {
		t.Errorf("RenderSVG(nil) = %s", svg)
	}
}

func TestRenderJSON(t *testing.T) {
	r := squareResult()
	c, _ := r.Grid.Cell(1, 0)
	if err := c.Deposit("pipe_joint", "x", "pipe", grid.East); err != nil {
		t.Fatal(err)
	}

	data, err := RenderJSON(r, 800, 600, DefaultPalette())
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Planned != 1 || len(out.Tiles) != 4 || out.Cell != 300 {
		t.Errorf("output = planned %d, tiles %d, cell %v", out.Planned, len(out.Tiles), out.Cell)
	}
	want := jsonTile{WorldX: 1, WorldY: 0, Content: "pipe", Marker: "x", Direction: "east", X: 400, Y: 0, Width: 300, Height: 300, Fill: "#e6e6fa"}
	if diff := cmp.Diff(want, out.Tiles[2]); diff != "" {
		t.Errorf("tile mismatch (-want +got):\n%s", diff)
	}
}
