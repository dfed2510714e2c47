package fixture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/grid"
)

const smallFixture = `{
  "area": {
    "0": {"0": "can-build", "1": "can-build"},
    "1": {"0": "can-not-build", "1": "reserved-for-pump"},
    "2.5": {"-0.5": "oil-well"}
  },
  "area_bounds": {
    "left_top": {"x": 0, "y": "-0.5"},
    "right_bottom": {"x": "2.5", "y": 1}
  }
}`

type cellView struct {
	X, Y    float64
	Content string
	Marker  string
}

func view(g *grid.Grid) []cellView {
	var out []cellView
	for _, c := range g.Cells() {
		out = append(out, cellView{c.X, c.Y, c.Content, c.Marker})
	}
	return out
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(smallFixture))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []cellView{
		{0, 0, "can-build", ""},
		{0, 1, "can-build", ""},
		{1, 0, "can-not-build", ""},
		{1, 1, "reserved-for-pump", ""},
		{2.5, -0.5, "oil-well", ""},
	}
	if diff := cmp.Diff(want, view(f.Grid)); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}

	wantBounds := grid.Bounds{
		LeftTop:     grid.Position{X: 0, Y: -0.5},
		RightBottom: grid.Position{X: 2.5, Y: 1},
	}
	if f.Bounds != wantBounds {
		t.Errorf("Bounds = %+v, want %+v", f.Bounds, wantBounds)
	}
	if f.ExtractorBox != nil || f.BeaconBox != nil {
		t.Error("footprints should be nil when absent")
	}
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse([]byte(smallFixture))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse([]byte(smallFixture))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(view(a.Grid), view(b.Grid)); diff != "" {
		t.Errorf("re-parse differs (-first +second):\n%s", diff)
	}
	if a.Grid == b.Grid {
		t.Error("each parse must build a fresh grid")
	}
}

func TestParseFootprints(t *testing.T) {
	doc := `{
	  "area": {"0": {"0": "can-build"}},
	  "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 0, "y": 0}},
	  "footprints": {
	    "beacon": {"left_top": {"x": -1, "y": -1}, "right_bottom": {"x": 1, "y": 1}}
	  }
	}`
	f, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := &grid.BoundingBox{
		LeftTop:     grid.Position{X: -1, Y: -1},
		RightBottom: grid.Position{X: 1, Y: 1},
	}
	if diff := cmp.Diff(want, f.BeaconBox); diff != "" {
		t.Errorf("BeaconBox mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"not json", `{area`, errors.ErrCodeFormat},
		{"missing bounds", `{"area": {}}`, errors.ErrCodeSchema},
		{"missing area", `{"area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeSchema},
		{"label not a string", `{"area": {"0": {"0": 5}}, "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeSchema},
		{"bounds missing corner", `{"area": {}, "area_bounds": {"left_top": {"x": 0, "y": 0}}}`, errors.ErrCodeSchema},
		{"comma decimal key", `{"area": {"1,5": {"0": "can-build"}}, "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeFormat},
		{"bad row key", `{"area": {"1": {"y": "can-build"}}, "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeFormat},
		{"duplicate row key", `{"area": {"0": {"1": "can-build", "1.0": "cant-build"}}, "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeFormat},
		{"duplicate column key", `{"area": {"0": {"0": "can-build"}, "0.0": {"1": "can-build"}}, "area_bounds": {"left_top": {"x": 0, "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeFormat},
		{"comma decimal bound", `{"area": {}, "area_bounds": {"left_top": {"x": "0,5", "y": 0}, "right_bottom": {"x": 1, "y": 1}}}`, errors.ErrCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCompressed(t *testing.T) {
	dir := t.TempDir()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write([]byte(smallFixture))
	gw.Close()

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zstData := zw.EncodeAll([]byte(smallFixture), nil)
	zw.Close()

	writeFile(t, filepath.Join(dir, "plain.json"), []byte(smallFixture))
	writeFile(t, filepath.Join(dir, "packed.json.gz"), gzBuf.Bytes())
	writeFile(t, filepath.Join(dir, "squeezed.json.zst"), zstData)

	for _, name := range []string{"plain.json", "packed.json.gz", "squeezed.json.zst"} {
		src, err := Load(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Load(%s) error = %v", name, err)
		}
		if string(src.Data) != smallFixture {
			t.Errorf("Load(%s) returned different text", name)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
	if _, err := Load(filepath.Join(dir, "notes.txt")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("wrong extension error = %v, want INVALID_INPUT", err)
	}
}

func TestListAndFind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), []byte("{}"))
	writeFile(t, filepath.Join(dir, "a.json.gz"), []byte("{}"))
	writeFile(t, filepath.Join(dir, "readme.md"), []byte("#"))
	if err := os.Mkdir(filepath.Join(dir, "c.json"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	e, err := Find(dir, "b")
	if err != nil || e.Path != filepath.Join(dir, "b.json") {
		t.Errorf("Find(b) = %+v, %v", e, err)
	}
	if _, err := Find(dir, "zzz"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Find(zzz) error = %v, want NOT_FOUND", err)
	}
	if _, err := Find(dir, "../b"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Find(../b) error = %v, want INVALID_INPUT", err)
	}
}
