package merge

import (
	"maps"
	"slices"

	"github.com/matzehuels/layouttester/pkg/bridge"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// OrdinalField is the record field holding an entity's placement ordinal.
const OrdinalField = "placement_order"

// UnknownMarker is deposited for entity names missing from the table.
const UnknownMarker = "?"

// Rule describes how one planned entity name is recorded on a cell.
type Rule struct {
	// Marker is the symbol deposited on the cell.
	Marker string `toml:"marker,omitempty" json:"marker,omitempty"`
	// Ordinal uses the record's placement ordinal as the marker instead.
	Ordinal bool `toml:"ordinal,omitempty" json:"ordinal,omitempty"`
	// Content replaces the cell's label. Empty keeps the fixture label.
	Content string `toml:"content,omitempty" json:"content,omitempty"`
}

// MarkerTable maps planned entity names to rules.
type MarkerTable map[string]Rule

// DefaultMarkers returns the marker table of the current pipeline.
func DefaultMarkers() MarkerTable {
	return MarkerTable{
		"pipe":        {Marker: "+", Content: "pipe"},
		"output":      {Marker: "o", Content: "pipe"},
		"extractor":   {Marker: "p", Content: grid.ContentExtractor},
		"pipe_joint":  {Marker: "x", Content: "pipe"},
		"pipe_tunnel": {Marker: "t", Content: "pipe"},
		"power_pole":  {Ordinal: true, Content: "power_pole"},
		"beacon":      {Marker: "B", Content: grid.ContentBeacon},
		"heat-pipe":   {Ordinal: true, Content: "heat-pipe"},
	}
}

// Names returns the known entity names in sorted order.
func (t MarkerTable) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

// With returns a copy of t with overrides applied on top.
func (t MarkerTable) With(overrides MarkerTable) MarkerTable {
	out := maps.Clone(t)
	if out == nil {
		out = MarkerTable{}
	}
	maps.Copy(out, overrides)
	return out
}

// Resolve returns the marker and content for a construction record.
func (t MarkerTable) Resolve(name string, record bridge.Value) (marker, content string) {
	rule, ok := t[name]
	if !ok {
		return UnknownMarker, ""
	}
	if !rule.Ordinal {
		return rule.Marker, rule.Content
	}
	ord := record.Field(OrdinalField)
	if ord.IsNull() || ord.IsTable() {
		return UnknownMarker, rule.Content
	}
	return ord.String(), rule.Content
}
