// Package merge applies a pipeline's construction plan to a fixture grid.
//
// The plan is a nested tree keyed x -> y -> record, where each record has a
// name, a compass direction and optional name-specific fields. Every record
// inside the bounds rectangle deposits exactly one marker onto the matching
// grid cell. Records outside the bounds are logged and skipped; a record
// targeting an already-marked cell aborts the merge with a
// [grid.ConflictError].
package merge

import (
	"fmt"

	"github.com/matzehuels/layouttester/pkg/bridge"
	lterrors "github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

// Stats summarizes one merge.
type Stats struct {
	Planned  int
	Warnings []error // OUT_OF_BOUNDS, one per skipped record
}

// Merge deposits every record of plan onto g. Progress is written to log,
// ending with the "Planned entities: N" line. A null plan merges nothing.
// The first fatal error stops the merge; cells deposited before it keep
// their markers.
func Merge(plan bridge.Value, bounds grid.Bounds, g *grid.Grid, markers MarkerTable, log *bridge.Log) (Stats, error) {
	var stats Stats
	if markers == nil {
		markers = DefaultMarkers()
	}
	if !plan.IsNull() && !plan.IsTable() {
		return stats, lterrors.New(lterrors.ErrCodeInvalidInput, "construction plan is a %s, not a table", plan.Kind())
	}

	for _, col := range plan.Entries() {
		x, err := coordinate(col.Key)
		if err != nil {
			return stats, err
		}
		if !col.Val.IsTable() {
			return stats, lterrors.New(lterrors.ErrCodeInvalidInput, "construction plan column x=%s is not a table", col.Key)
		}
		for _, row := range col.Val.Entries() {
			y, err := coordinate(row.Key)
			if err != nil {
				return stats, err
			}
			if err := deposit(x, y, row.Val, bounds, g, markers, log, &stats); err != nil {
				return stats, err
			}
		}
	}

	log.Printf("Planned entities: %d", stats.Planned)
	return stats, nil
}

func deposit(x, y float64, record bridge.Value, bounds grid.Bounds, g *grid.Grid, markers MarkerTable, log *bridge.Log, stats *Stats) error {
	at := grid.Position{X: x, Y: y}
	if _, ok := record.AsMapping(); !ok {
		return lterrors.New(lterrors.ErrCodeInvalidInput, "construction record at %s is not a table", at)
	}
	name := record.Field("name").String()

	if !bounds.Contains(x, y) {
		msg := fmt.Sprintf("Entity planned out of bounds: %s at %s", name, at)
		log.Println(msg)
		stats.Warnings = append(stats.Warnings, lterrors.New(lterrors.ErrCodeOutOfBounds, "%s", msg))
		return nil
	}

	cell, ok := g.Cell(x, y)
	if !ok {
		return lterrors.New(lterrors.ErrCodeMissingCell, "no grid cell at %s for planned %s", at, name)
	}
	marker, content := markers.Resolve(name, record)
	if err := cell.Deposit(name, marker, content, direction(record)); err != nil {
		return err
	}
	stats.Planned++
	return nil
}

func coordinate(key bridge.Value) (float64, error) {
	if n, ok := key.AsNumber(); ok {
		return n, nil
	}
	if s, ok := key.AsText(); ok {
		return grid.ParseCoord(s)
	}
	return 0, lterrors.New(lterrors.ErrCodeFormat, "construction plan key %q is not a coordinate", key.String())
}

func direction(record bridge.Value) grid.Direction {
	switch v := record.Field("direction"); v.Kind() {
	case bridge.KindNumber:
		n, _ := v.AsNumber()
		if d := grid.Direction(int(n)); d.Valid() && float64(d) == n {
			return d
		}
	case bridge.KindText:
		s, _ := v.AsText()
		if d, ok := grid.ParseDirection(s); ok {
			return d
		}
	}
	return grid.DirectionUnset
}
