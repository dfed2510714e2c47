package grid

// Footprint-bearing content labels. Cells carrying these labels are drawn with
// the matching BoundingBox instead of a single tile.
const (
	ContentExtractor = "extractor"
	ContentBeacon    = "beacon"
)

// LayoutResult is the assembled outcome of a run: the merged grid plus the
// footprints needed to draw multi-cell entities.
type LayoutResult struct {
	Grid         *Grid
	Bounds       Bounds
	ExtractorBox *BoundingBox
	BeaconBox    *BoundingBox
}

// Footprint returns the bounding box used to draw cells labelled content,
// or nil for ordinary 1x1 cells.
func (r *LayoutResult) Footprint(content string) *BoundingBox {
	switch content {
	case ContentExtractor:
		return r.ExtractorBox
	case ContentBeacon:
		return r.BeaconBox
	}
	return nil
}

// IsFootprintContent reports whether cells with this label are deferred to the
// footprint pass when drawing.
func IsFootprintContent(content string) bool {
	return content == ContentExtractor || content == ContentBeacon
}
