package pipeline

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/layouttester/pkg/errors"
)

// rootMarker identifies the repository root of a pipeline checkout.
const rootMarker = "LICENSE"

// Environment is where a run finds its Lua sources.
type Environment struct {
	Root        string // repository root, empty when not found
	PipelineDir string // directory holding the pipeline's ?.lua modules
	DataDir     string // runtime data directory with base/ and core/
}

// SearchPath returns the package.path patterns for the environment.
func (e Environment) SearchPath() []string {
	return []string{
		filepath.Join(e.PipelineDir, "?.lua"),
		filepath.Join(e.DataDir, "base", "?.lua"),
		filepath.Join(e.DataDir, "core", "?.lua"),
		filepath.Join(e.DataDir, "core", "lualib", "?.lua"),
	}
}

// FindRoot walks up from dir to the first directory containing LICENSE.
func FindRoot(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		if isFile(filepath.Join(dir, rootMarker)) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultPipelineDir returns <root>/mod.
func DefaultPipelineDir(root string) string {
	return filepath.Join(root, "mod")
}

// DefaultDataDirs returns the runtime data candidates tried in order: a
// checkout next to the repository, then the usual install locations.
func DefaultDataDirs(root string) []string {
	var dirs []string
	if root != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(root), "factorio-data"))
	}
	if pf := os.Getenv("ProgramFiles(x86)"); pf != "" {
		dirs = append(dirs, filepath.Join(pf, "Steam", "steamapps", "common", "Factorio", "data"))
	}
	if pf := os.Getenv("ProgramFiles"); pf != "" {
		dirs = append(dirs, filepath.Join(pf, "Factorio", "data"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".steam", "steam", "steamapps", "common", "Factorio", "data"),
			filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", "common", "Factorio", "factorio.app", "Contents", "data"),
		)
	}
	return dirs
}

// ResolveEnvironment locates the pipeline and data directories. Unset
// options fall back to defaults relative to the repository root found above
// the working directory. A missing directory is an ENVIRONMENT error.
func ResolveEnvironment(opts Options) (Environment, error) {
	var env Environment
	if opts.PipelineDir == "" || len(opts.DataDirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return env, errors.Wrap(errors.ErrCodeEnvironment, err, "determine working directory")
		}
		root, ok := FindRoot(wd)
		if !ok {
			return env, errors.New(errors.ErrCodeEnvironment, "could not find the repository root (no %s above %s)", rootMarker, wd)
		}
		env.Root = root
	}

	env.PipelineDir = opts.PipelineDir
	if env.PipelineDir == "" {
		env.PipelineDir = DefaultPipelineDir(env.Root)
	}
	if !isDir(env.PipelineDir) {
		return env, errors.New(errors.ErrCodeEnvironment, "pipeline directory not found: %s", env.PipelineDir)
	}

	candidates := opts.DataDirs
	if len(candidates) == 0 {
		candidates = DefaultDataDirs(env.Root)
	}
	for _, dir := range candidates {
		if isDir(dir) {
			env.DataDir = dir
			return env, nil
		}
	}
	return env, errors.New(errors.ErrCodeEnvironment, "could not find the runtime data directory (tried %d locations)", len(candidates))
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
