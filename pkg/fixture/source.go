package fixture

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/layouttester/pkg/errors"
)

// Supported fixture file extensions, longest first so ".json.gz" wins over ".gz".
var extensions = []string{".json.zst", ".json.gz", ".json"}

// Source is the raw text of one fixture file. Runs re-parse Data every time so
// no grid state leaks from one run into the next.
type Source struct {
	Name string // File stem, e.g. "Oilfield1"
	Path string
	Data []byte // Decompressed JSON text
}

// Load reads a fixture file, transparently decompressing .gz and .zst files.
func Load(path string) (*Source, error) {
	name, ok := stem(filepath.Base(path))
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported fixture file %s (want .json, .json.gz or .json.zst)", path)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "fixture %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormat, err, "decompress %s", path)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormat, err, "decompress %s", path)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "read %s", path)
	}
	return &Source{Name: name, Path: path, Data: data}, nil
}

// Entry is a fixture found in a directory.
type Entry struct {
	Name string
	Path string
}

// List returns the fixtures in dir ordered by name. Subdirectories and files
// with other extensions are ignored.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "fixtures directory %s", dir)
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := stem(e.Name())
		if !ok {
			continue
		}
		out = append(out, Entry{Name: name, Path: filepath.Join(dir, e.Name())})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Find returns the fixture named name inside dir.
func Find(dir, name string) (Entry, error) {
	if err := errors.ValidateFixtureName(name); err != nil {
		return Entry{}, err
	}
	all, err := List(dir)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range all {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, errors.New(errors.ErrCodeNotFound, "fixture %q not found in %s", name, dir)
}

func stem(base string) (string, bool) {
	for _, ext := range extensions {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(base, ext), true
		}
	}
	return "", false
}
