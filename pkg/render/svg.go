package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/layouttester/pkg/grid"
)

const fontFamily = "Menlo, Consolas, monospace"

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	palette       Palette
	titles        bool
	background    *Color
}

// WithSize sets the canvas size in pixels (default 800x600).
func WithSize(w, h float64) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = w, h }
}

// WithPalette replaces the default label colours.
func WithPalette(p Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

// WithoutTitles omits the per-cell hover titles.
func WithoutTitles() SVGOption { return func(r *svgRenderer) { r.titles = false } }

// WithBackground fills the canvas before drawing cells.
func WithBackground(c Color) SVGOption { return func(r *svgRenderer) { r.background = &c } }

// RenderSVG draws the layout. Each cell carries a <title> with the same text
// an inspection hit test reports.
func RenderSVG(result *grid.LayoutResult, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	var g *grid.Grid
	if result != nil {
		g = result.Grid
	}
	proj := NewProjection(g, r.width, r.height)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	if r.background != nil {
		fmt.Fprintf(&buf, `  <rect class="background" x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			r.width, r.height, r.background.Hex())
	}
	for _, t := range Tiles(result, proj, r.palette) {
		renderTile(&buf, t, r.titles)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{width: DefaultWidth, height: DefaultHeight, palette: DefaultPalette(), titles: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func renderTile(buf *bytes.Buffer, t Tile, titles bool) {
	class := "cell"
	if t.Footprint {
		class = "cell footprint"
	}
	fmt.Fprintf(buf, `  <rect class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="white" stroke-width="0.5">`,
		class, t.X, t.Y, t.W, t.H, t.Fill.Hex())
	if titles {
		fmt.Fprintf(buf, `<title>%s</title>`, escapeXML(tileTitle(t.Cell)))
	}
	buf.WriteString("</rect>\n")

	if t.FontSize > 0 {
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="%.1f" fill="black">%s</text>`+"\n",
			t.CX, t.CY, fontFamily, t.FontSize, escapeXML(t.Cell.Marker))
	}
}

func tileTitle(c *grid.Cell) string {
	title := CellTitle(c)
	if c.Content != "" {
		title += " (" + c.Content + ")"
	}
	if c.Direction.Valid() {
		title += " facing " + c.Direction.String()
	}
	return title
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
