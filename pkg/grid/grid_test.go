package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	lterrors "github.com/matzehuels/layouttester/pkg/errors"
)

func TestParseCoord(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0", 0, false},
		{"-12.5", -12.5, false},
		{" 3.25 ", 3.25, false},
		{"1e2", 100, false},
		{"+7", 7, false},
		{"1,5", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"0x1p-2", 0, true},
		{"1e400", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCoord(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCoord(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !lterrors.Is(err, lterrors.ErrCodeFormat) {
				t.Errorf("ParseCoord(%q) code = %v, want FORMAT", tt.in, lterrors.GetCode(err))
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCoord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKeyOfRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.5, -0.5, 12.25, -1023.75, 100000.5} {
		k := KeyOf(v)
		if k.Float() != v {
			t.Errorf("KeyOf(%v).Float() = %v", v, k.Float())
		}
	}
	// float32 drift from a round trip through another runtime still finds the same key
	if KeyOf(float64(float32(0.1))) != KeyOf(0.1) {
		t.Error("KeyOf should absorb float32 rounding")
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{LeftTop: Position{X: 0, Y: 0}, RightBottom: Position{X: 10, Y: 5}}
	tests := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{10, 5, true},
		{5, 2.5, true},
		{-0.5, 2, false},
		{10.5, 2, false},
		{5, -1, false},
		{5, 5.5, false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestBoundingBoxInflate(t *testing.T) {
	box := BoundingBox{
		LeftTop:     Position{X: -1, Y: -1},
		RightBottom: Position{X: 2, Y: 2},
	}
	got := box.Inflate(Position{X: 10, Y: 10})
	want := Rect{Left: 9, Top: 9, Right: 13, Bottom: 13}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Inflate() mismatch (-want +got):\n%s", diff)
	}
	if got.Width() != 4 || got.Height() != 4 {
		t.Errorf("size = %vx%v, want 4x4", got.Width(), got.Height())
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name string
		want Direction
	}{
		{"north", 0},
		{"east", 4},
		{"south", 8},
		{"west", 12},
		{"northnorthwest", 15},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.name)
		if !ok || got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, %v, want %v", tt.name, got, ok, tt.want)
		}
		if got.String() != tt.name {
			t.Errorf("Direction(%d).String() = %q, want %q", got, got.String(), tt.name)
		}
	}
	if _, ok := ParseDirection("up"); ok {
		t.Error("ParseDirection(up) should fail")
	}
	if DirectionUnset.Valid() || Direction(16).Valid() {
		t.Error("out-of-range directions should be invalid")
	}
	if len(DirectionNames()) != 16 {
		t.Errorf("DirectionNames() has %d entries, want 16", len(DirectionNames()))
	}
}

func TestGridAddAndLookup(t *testing.T) {
	g := New()
	g.Add(0, 0, "can-build")
	g.Add(0, 1, "can-build")
	g.Add(2.5, -1, "can-not-build")

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}
	cell, ok := g.Cell(2.5, -1)
	if !ok {
		t.Fatal("Cell(2.5, -1) not found")
	}
	if cell.Content != "can-not-build" || cell.Direction != DirectionUnset || cell.HasMarker() {
		t.Errorf("unexpected cell %+v", cell)
	}
	if _, ok := g.Cell(1, 0); ok {
		t.Error("Cell(1, 0) should be absent")
	}
	if _, ok := g.Lookup(KeyOf(0), KeyOf(1)); !ok {
		t.Error("Lookup by key failed")
	}

	wantX := []Key{KeyOf(0), KeyOf(2.5)}
	if diff := cmp.Diff(wantX, g.XKeys()); diff != "" {
		t.Errorf("XKeys() mismatch (-want +got):\n%s", diff)
	}
	wantY := []Key{KeyOf(-1), KeyOf(0), KeyOf(1)}
	if diff := cmp.Diff(wantY, g.YKeys()); diff != "" {
		t.Errorf("YKeys() mismatch (-want +got):\n%s", diff)
	}

	// re-adding replaces the label, not the cell
	again := g.Add(2.5, -1, "reserved-for-pump")
	if again != cell || cell.Content != "reserved-for-pump" || g.Len() != 3 {
		t.Errorf("Add on existing coordinate should relabel in place")
	}
}

func TestCellDepositConflict(t *testing.T) {
	g := New()
	cell := g.Add(3, 4, "can-build")

	if err := cell.Deposit("pipe", "+", "pipe", North); err != nil {
		t.Fatalf("first Deposit() error = %v", err)
	}
	if cell.Marker != "+" || cell.Content != "pipe" || cell.Direction != North {
		t.Errorf("cell after deposit = %+v", cell)
	}

	err := cell.Deposit("beacon", "B", "beacon", East)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second Deposit() error = %v, want *ConflictError", err)
	}
	if conflict.Marker != "B" || conflict.Existing != "+" || conflict.At != (Position{X: 3, Y: 4}) {
		t.Errorf("conflict = %+v", conflict)
	}
	if !lterrors.Is(err, lterrors.ErrCodeConflict) {
		t.Error("ConflictError should carry the CONFLICT code")
	}
	if cell.Marker != "+" || cell.Content != "pipe" || cell.Direction != North {
		t.Errorf("conflicting deposit modified the cell: %+v", cell)
	}
	if g.Marked() != 1 {
		t.Errorf("Marked() = %d, want 1", g.Marked())
	}
}

func TestCellDepositKeepsContent(t *testing.T) {
	cell := NewCell(0, 0, "oil-well")
	if err := cell.Deposit("extractor", "p", "", South); err != nil {
		t.Fatal(err)
	}
	if cell.Content != "oil-well" {
		t.Errorf("Content = %q, want oil-well", cell.Content)
	}
	if err := NewCell(0, 0, "x").Deposit("thing", "", "", North); err == nil {
		t.Error("empty marker should be rejected")
	}
}

func TestLayoutResultFootprint(t *testing.T) {
	box := &BoundingBox{LeftTop: Position{X: -1, Y: -1}, RightBottom: Position{X: 1, Y: 1}}
	r := &LayoutResult{Grid: New(), BeaconBox: box}
	if r.Footprint(ContentBeacon) != box {
		t.Error("beacon footprint not returned")
	}
	if r.Footprint(ContentExtractor) != nil {
		t.Error("missing extractor box should be nil")
	}
	if r.Footprint("pipe") != nil || IsFootprintContent("pipe") {
		t.Error("pipe has no footprint")
	}
}
