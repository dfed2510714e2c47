package pipeline

import (
	"context"

	"github.com/matzehuels/layouttester/pkg/cache"
	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/render"
)

// Render generates output artifacts for a successful run. PNG and PDF
// conversions are cached by the hash of the SVG they come from.
func (r *Runner) Render(ctx context.Context, res *Result, opts Options) (map[string][]byte, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	if res == nil || res.Layout == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "run produced no layout to render")
	}

	svg := render.RenderSVG(res.Layout,
		render.WithSize(opts.Width, opts.Height),
		render.WithPalette(opts.Palette))
	svgHash := cache.Hash(svg)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svg
		case FormatJSON:
			data, err = render.RenderJSON(res.Layout, opts.Width, opts.Height, opts.Palette)
		case FormatPNG, FormatPDF:
			data, err = r.convert(ctx, svg, svgHash, format, opts.Scale)
		}
		if err != nil {
			return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "render %s", format)
		}
		artifacts[format] = data
	}

	opts.Logger.Debug("rendered outputs", "fixture", res.Fixture, "formats", opts.Formats)
	return artifacts, nil
}

func (r *Runner) convert(ctx context.Context, svg []byte, svgHash, format string, scale float64) ([]byte, error) {
	key := cache.ArtifactKey(svgHash, format, scale)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	var data []byte
	var err error
	if format == FormatPNG {
		data, err = render.ToPNG(svg, scale)
	} else {
		data, err = render.ToPDF(svg)
	}
	if err != nil {
		return nil, err
	}
	_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	return data, nil
}
